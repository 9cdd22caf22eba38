// Package aggregate derives the cumulative month-to-date spend view from the
// persisted transaction ledger.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/storage"
)

// Column identifies one pivot column: a category within a year-month.
type Column struct {
	Category  string
	YearMonth string
}

// Pivot is the cumulative (day, category, year-month) view. The cell for day
// d is the sum of the category's daily sums over days <= d inside the month,
// a true running total that never resets mid-month.
type Pivot struct {
	daily map[Column]map[int]int64
	days  []int
	cols  []Column
}

// Engine reads the full ledger and builds the pivot. Every call is a full
// scan; the ledger is small and this is not a hot path.
type Engine struct {
	store  *storage.Store
	logger *log.Logger
}

func New(store *storage.Store, logger *log.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.WithComponent(log.ComponentAggregate),
	}
}

// MonthToDate reads all persisted transactions and pivots them.
func (e *Engine) MonthToDate(ctx context.Context) (*Pivot, error) {
	records, err := e.store.ReadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	p := Build(records)
	e.logger.Debug("pivot built",
		log.FieldRows, len(records),
		"columns", len(p.cols),
		"days", len(p.days))
	return p, nil
}

// Build groups signed amounts by (year-month, day, category). Debits are
// forced negative regardless of the stored sign; credits keep their signed
// value.
func Build(records []core.TransactionRecord) *Pivot {
	daily := make(map[Column]map[int]int64)
	daySet := make(map[int]bool)

	for _, rec := range records {
		amount := rec.AmountCents
		if rec.TransactionType == core.Debit {
			if amount > 0 {
				amount = -amount
			}
		}

		col := Column{
			Category:  rec.Category,
			YearMonth: core.YearMonth(rec.Date.Year(), int(rec.Date.Month())),
		}
		day := rec.Date.Day()

		if daily[col] == nil {
			daily[col] = make(map[int]int64)
		}
		daily[col][day] += amount
		daySet[day] = true
	}

	days := make([]int, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Ints(days)

	cols := make([]Column, 0, len(daily))
	for c := range daily {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Category != cols[j].Category {
			return cols[i].Category < cols[j].Category
		}
		return cols[i].YearMonth < cols[j].YearMonth
	})

	return &Pivot{daily: daily, days: days, cols: cols}
}

// Cumulative returns the running total for the column through the given day:
// the sum of its daily sums with day <= d. Days and columns never observed
// contribute zero.
func (p *Pivot) Cumulative(day int, category, yearMonth string) int64 {
	sums, ok := p.daily[Column{Category: category, YearMonth: yearMonth}]
	if !ok {
		return 0
	}
	var total int64
	for d, amount := range sums {
		if d <= day {
			total += amount
		}
	}
	return total
}

// Days returns the sorted distinct days observed across all columns.
func (p *Pivot) Days() []int {
	out := make([]int, len(p.days))
	copy(out, p.days)
	return out
}

// Columns returns the pivot's (category, year-month) columns in sorted order.
func (p *Pivot) Columns() []Column {
	out := make([]Column, len(p.cols))
	copy(out, p.cols)
	return out
}
