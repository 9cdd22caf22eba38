package parser

import (
	"strings"
	"testing"
	"time"

	"budgetwatch/internal/core"
)

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"Date", "date"},
		{"Original Description", "original_description"},
		{"  Transaction   Type ", "transaction_type"},
		{"Account Name", "account_name"},
		{"cat", "category"},
		{"bgt", "budgeted_amount"},
		{"amt", "actual_amount"},
		{"rbal", "remaining_balance"},
	}
	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestTransactions(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,Description,Original Description,Amount,Transaction Type,Category,Account Name,Labels,Notes",
		"2024-03-01,Groceries,WHOLEFDS 123,45.67,debit,Food,Checking,,",
		"3/2/2024,Paycheck,ACME CORP,1500.00,credit,Pay,Checking,,",
	}, "\n")

	recs, err := Transactions(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	first := recs[0]
	if !first.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", first.Date)
	}
	if first.AmountCents != 4567 {
		t.Fatalf("expected 4567 cents, got %d", first.AmountCents)
	}
	if first.TransactionType != core.Debit {
		t.Fatalf("expected debit, got %s", first.TransactionType)
	}
	if recs[1].Date.Day() != 2 || recs[1].TransactionType != core.Credit {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestTransactionsBadDateFailsWholeFile(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,Description,Amount,Transaction Type,Category",
		"2024-03-01,ok,10.00,debit,Food",
		"not-a-date,bad,5.00,debit,Food",
	}, "\n")

	if _, err := Transactions(strings.NewReader(csvData)); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestBudgets(t *testing.T) {
	csvData := strings.Join([]string{
		"year,month,cat,bgt,amt,rbal,income,expense,transfer",
		"2024,3,Variable Spending,500.00,612.50,-112.50,false,true,false",
		"2024,3,Pay,3000.00,2950.00,50.00,true,false,false",
	}, "\n")

	recs, err := Budgets(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	spend := recs[0]
	if spend.CashFlowType != core.Expense {
		t.Fatalf("expected Expense, got %s", spend.CashFlowType)
	}
	if !spend.OverBudget {
		t.Fatal("negative remaining balance should mark over budget")
	}
	if spend.BudgetID != core.BudgetID(2024, 3, "Variable Spending") {
		t.Fatal("budget id does not match content hash")
	}

	pay := recs[1]
	if pay.CashFlowType != core.Income || pay.OverBudget {
		t.Fatalf("unexpected income line: %+v", pay)
	}
}

// Rows with no resolvable cash flow classification are dropped before
// persistence rather than failing the batch. This is deliberate policy.
func TestBudgetsDropsUnclassifiedRows(t *testing.T) {
	csvData := strings.Join([]string{
		"year,month,category,budgeted_amount,actual_amount,remaining_balance,income,expense,transfer",
		"2024,3,Food,100.00,50.00,50.00,false,true,false",
		"2024,3,Mystery,100.00,50.00,50.00,false,false,false",
	}, "\n")

	recs, err := Budgets(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the unclassified row to be dropped, got %d records", len(recs))
	}
	if recs[0].Category != "Food" {
		t.Fatalf("wrong surviving row: %+v", recs[0])
	}
}

func TestBudgetsSameLineSameID(t *testing.T) {
	line := "2024,3,Food,100.00,50.00,50.00,false,true,false"
	header := "year,month,category,budgeted_amount,actual_amount,remaining_balance,income,expense,transfer"

	a, err := Budgets(strings.NewReader(header + "\n" + line))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Budgets(strings.NewReader(header + "\n" + line))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a[0].BudgetID != b[0].BudgetID {
		t.Fatal("re-parsing the same logical line produced different ids")
	}
}

func TestEmptyFile(t *testing.T) {
	if _, err := Transactions(strings.NewReader("")); err == nil {
		t.Fatal("expected error for file with no header")
	}
}
