package core

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestBudgetIDStable(t *testing.T) {
	a := BudgetID(2024, 3, "Variable Spending")
	b := BudgetID(2024, 3, "Variable Spending")
	if a != b {
		t.Fatalf("same (year, month, category) produced different ids: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestBudgetIDDistinguishesCategories(t *testing.T) {
	if BudgetID(2024, 3, "Food") == BudgetID(2024, 3, "Rent") {
		t.Fatal("different categories collided")
	}
	if BudgetID(2024, 3, "Food") == BudgetID(2024, 4, "Food") {
		t.Fatal("different months collided")
	}
}

func TestRange(t *testing.T) {
	recs := []TransactionRecord{
		{Date: day(7)},
		{Date: day(2)},
		{Date: day(15)},
	}
	r, err := Range(recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Min.Equal(day(2)) || !r.Max.Equal(day(15)) {
		t.Fatalf("expected [2, 15], got [%v, %v]", r.Min, r.Max)
	}

	if _, err := Range(nil); err != ErrEmptyBatch {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestBudgetIDsDistinct(t *testing.T) {
	recs := []BudgetRecord{
		{BudgetID: "a"},
		{BudgetID: "b"},
		{BudgetID: "a"},
	}
	ids := BudgetIDs(recs)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected [a b], got %v", ids)
	}
}

func TestYearMonth(t *testing.T) {
	if got := YearMonth(2024, 3); got != "2024-03" {
		t.Fatalf("expected 2024-03, got %s", got)
	}
	if got := YearMonth(2024, 12); got != "2024-12" {
		t.Fatalf("expected 2024-12, got %s", got)
	}
}
