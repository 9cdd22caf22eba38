package amqp

import (
	"testing"
	"time"
)

func TestBudgetReportMessageRoundTrip(t *testing.T) {
	msg := &BudgetReportMessage{
		Year:          2024,
		Month:         3,
		Day:           15,
		Category:      "Variable Spending",
		SpendCents:    -61250,
		BudgetedCents: 50000,
		OverBudget:    true,
		Timestamp:     time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := BudgetReportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *msg {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, msg)
	}
}

func TestBudgetReportMessageFromJSONInvalid(t *testing.T) {
	if _, err := BudgetReportMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
