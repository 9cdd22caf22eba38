package amqp

import (
	"encoding/json"
	"time"
)

// BudgetReportMessage carries one cycle's month-to-date figures to the
// external reporting service, which renders and delivers the chart. Amounts
// are signed cents; SpendCents is the cumulative pivot cell for the category,
// so debit-heavy categories arrive negative.
type BudgetReportMessage struct {
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Day           int       `json:"day"`
	Category      string    `json:"category"`
	SpendCents    int64     `json:"spend_cents"`
	BudgetedCents int64     `json:"budgeted_cents"`
	OverBudget    bool      `json:"over_budget"`
	Timestamp     time.Time `json:"timestamp"`
}

func (m *BudgetReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetReportMessageFromJSON(data []byte) (*BudgetReportMessage, error) {
	var msg BudgetReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
