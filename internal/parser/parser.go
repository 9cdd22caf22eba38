// Package parser turns one snapshot file into normalized records. It is a
// pure transform: no filesystem or store access happens here.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"budgetwatch/internal/core"
)

// Accepted layouts for the transaction date column. Exports from different
// account providers disagree on this, so each value is tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// Short headers some budget exports use in place of the canonical names.
var headerAliases = map[string]string{
	"cat":  "category",
	"bgt":  "budgeted_amount",
	"amt":  "actual_amount",
	"rbal": "remaining_balance",
}

// NormalizeHeader canonicalizes a source column name: case-folded, runs of
// whitespace joined with "_", known short aliases expanded. "Original
// Description" and "original_description" map onto the same column.
func NormalizeHeader(h string) string {
	name := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), "_")
	if alias, ok := headerAliases[name]; ok {
		return alias
	}
	return name
}

// row is one CSV record indexed by canonical column name.
type row map[string]string

func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w", core.ErrEmptyBatch)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = NormalizeHeader(h)
	}

	var rows []row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		m := make(row, len(cols))
		for i, v := range rec {
			if i < len(cols) {
				m[cols[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

// Transactions parses a transaction snapshot. A date or amount that does not
// parse fails the whole file: a malformed date column usually means the batch
// is corrupt or from an incompatible export, and a partially applied batch
// would defeat the replacement-key semantics downstream.
func Transactions(r io.Reader) ([]core.TransactionRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	records := make([]core.TransactionRecord, 0, len(rows))
	for i, m := range rows {
		date, err := parseDate(m["date"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse date: %w", i+2, err)
		}
		cents, err := core.ParseSignedCents(m["amount"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse amount: %w", i+2, err)
		}
		records = append(records, core.TransactionRecord{
			Date:                date,
			Description:         m["description"],
			OriginalDescription: m["original_description"],
			AmountCents:         cents,
			TransactionType:     core.TransactionType(strings.ToLower(m["transaction_type"])),
			Category:            m["category"],
			AccountName:         m["account_name"],
			Labels:              m["labels"],
			Notes:               m["notes"],
		})
	}
	return records, nil
}

// Budgets parses a budget snapshot. Each row carries three mutually exclusive
// boolean flags (income/expense/transfer) that resolve to its cash flow type;
// rows satisfying none are dropped, deliberately and silently, rather than
// failing the batch. over_budget is derived from the remaining balance and
// budget_id from the (year, month, category) content hash.
func Budgets(r io.Reader) ([]core.BudgetRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	records := make([]core.BudgetRecord, 0, len(rows))
	for i, m := range rows {
		flow, ok := classifyCashFlow(m)
		if !ok {
			continue
		}
		year, err := strconv.Atoi(m["year"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse year: %w", i+2, err)
		}
		month, err := strconv.Atoi(m["month"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse month: %w", i+2, err)
		}
		budgeted, err := core.ParseSignedCents(m["budgeted_amount"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse budgeted amount: %w", i+2, err)
		}
		actual, err := core.ParseSignedCents(m["actual_amount"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse actual amount: %w", i+2, err)
		}
		remaining, err := core.ParseSignedCents(m["remaining_balance"])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse remaining balance: %w", i+2, err)
		}
		category := m["category"]
		records = append(records, core.BudgetRecord{
			BudgetID:       core.BudgetID(year, month, category),
			Year:           year,
			Month:          month,
			Category:       category,
			CashFlowType:   flow,
			BudgetedCents:  budgeted,
			ActualCents:    actual,
			RemainingCents: remaining,
			OverBudget:     remaining < 0,
		})
	}
	return records, nil
}

func classifyCashFlow(m row) (core.CashFlowType, bool) {
	switch {
	case isTrue(m["income"]):
		return core.Income, true
	case isTrue(m["expense"]):
		return core.Expense, true
	case isTrue(m["transfer"]):
		return core.Transfer, true
	default:
		return "", false
	}
}

func isTrue(s string) bool {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	return err == nil && b
}
