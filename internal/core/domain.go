package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Kind identifies which snapshot family a landing file belongs to and
// selects the parse and replacement rules applied to it.
type Kind int

const (
	KindTransactions Kind = iota
	KindBudgets
)

func (k Kind) String() string {
	switch k {
	case KindTransactions:
		return "transactions"
	case KindBudgets:
		return "budgets"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TransactionType is the debit/credit marker carried by every transaction row.
type TransactionType string

const (
	Debit  TransactionType = "debit"
	Credit TransactionType = "credit"
)

// CashFlowType classifies a budget line. Rows that resolve to none of the
// three types are dropped before persistence.
type CashFlowType string

const (
	Income   CashFlowType = "Income"
	Expense  CashFlowType = "Expense"
	Transfer CashFlowType = "Transfer"
)

// Outcome is the per-file ingestion result. It drives routing and is never
// persisted.
type Outcome int

const (
	OutcomeImported Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeImported {
		return "imported"
	}
	return "failed"
}

type (
	// TransactionRecord is one row of a transaction snapshot after
	// normalization. Amounts are signed cents; aggregation re-signs them so
	// debits are negative and credits positive.
	TransactionRecord struct {
		Date                time.Time
		Description         string
		OriginalDescription string
		AmountCents         int64
		TransactionType     TransactionType
		Category            string
		AccountName         string
		Labels              string
		Notes               string
	}

	// BudgetRecord is one budget line after normalization. BudgetID is a
	// content hash of (year, month, category), so re-extractions of the same
	// logical line always produce the same identifier.
	BudgetRecord struct {
		BudgetID       string
		Year           int
		Month          int
		Category       string
		CashFlowType   CashFlowType
		BudgetedCents  int64
		ActualCents    int64
		RemainingCents int64
		OverBudget     bool
	}

	// DateRange is the inclusive replacement key of a transaction batch.
	DateRange struct {
		Min time.Time
		Max time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyBatch    = errors.New("empty batch")
)

// BudgetID derives the stable identifier of a budget line from its
// pipe-joined (year, month, category) triple.
func BudgetID(year, month int, category string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%s", year, month, category)))
	return hex.EncodeToString(sum[:])
}

// YearMonth formats the composite grouping key used by the pivot, with a
// two-digit zero-padded month ("2024-03").
func YearMonth(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// Range computes the inclusive [min, max] date span of a transaction batch.
// An empty batch has no replacement key and returns ErrEmptyBatch.
func Range(records []TransactionRecord) (DateRange, error) {
	if len(records) == 0 {
		return DateRange{}, ErrEmptyBatch
	}
	r := DateRange{Min: records[0].Date, Max: records[0].Date}
	for _, rec := range records[1:] {
		if rec.Date.Before(r.Min) {
			r.Min = rec.Date
		}
		if rec.Date.After(r.Max) {
			r.Max = rec.Date
		}
	}
	return r, nil
}

// BudgetIDs returns the distinct budget identifiers of a batch in first-seen
// order. This is the replacement key of a budget snapshot.
func BudgetIDs(records []BudgetRecord) []string {
	seen := make(map[string]bool, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.BudgetID] {
			seen[rec.BudgetID] = true
			ids = append(ids, rec.BudgetID)
		}
	}
	return ids
}
