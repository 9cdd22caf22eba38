// Package storage is the persistence adapter over SQLite: append, read and
// delete primitives on the two ledger tables, plus the transactional
// replace-by-key operations the ingestion engine builds on.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budgetwatch/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

// Open opens the database file without touching the schema. Most callers
// want New; Open exists so behavior against a store whose tables were never
// created stays observable.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// New opens the database and runs migrations.
func New(dbPath string) (*Store, error) {
	s, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(dbPath); err != nil {
		s.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withConn checks a connection out of the pool for exactly one operation and
// releases it on exit, normal or error.
func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// execer covers *sql.Conn and *sql.Tx so the delete and append helpers can
// run standalone or inside a replace transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableExists(ctx context.Context, q execer, table string) (bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", table, err)
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}

func deleteTransactionRange(ctx context.Context, q execer, r core.DateRange) error {
	exists, err := tableExists(ctx, q, "transactions")
	if err != nil {
		return err
	}
	if !exists {
		// First run: nothing to supersede yet.
		return nil
	}
	_, err = q.ExecContext(ctx,
		`DELETE FROM transactions WHERE date >= ? AND date <= ?`,
		r.Min.Format(dateLayout), r.Max.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("delete transactions in range: %w", err)
	}
	return nil
}

func deleteBudgetIDs(ctx context.Context, q execer, ids []string) error {
	exists, err := tableExists(ctx, q, "budgets")
	if err != nil {
		return err
	}
	if !exists || len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `DELETE FROM budgets WHERE budget_id = ?`, id); err != nil {
			return fmt.Errorf("delete budget %s: %w", id, err)
		}
	}
	return nil
}

func appendTransactions(ctx context.Context, q execer, records []core.TransactionRecord) error {
	const insert = `INSERT INTO transactions
		(date, description, original_description, amount_cents, transaction_type,
		 category, account_name, labels, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range records {
		_, err := q.ExecContext(ctx, insert,
			rec.Date.Format(dateLayout), rec.Description, rec.OriginalDescription,
			rec.AmountCents, string(rec.TransactionType),
			rec.Category, rec.AccountName, rec.Labels, rec.Notes)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	return nil
}

func appendBudgets(ctx context.Context, q execer, records []core.BudgetRecord) error {
	const insert = `INSERT INTO budgets
		(budget_id, year, month, category, cash_flow_type,
		 budgeted_cents, actual_cents, remaining_cents, over_budget)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range records {
		_, err := q.ExecContext(ctx, insert,
			rec.BudgetID, rec.Year, rec.Month, rec.Category, string(rec.CashFlowType),
			rec.BudgetedCents, rec.ActualCents, rec.RemainingCents, rec.OverBudget)
		if err != nil {
			return fmt.Errorf("insert budget %s: %w", rec.BudgetID, err)
		}
	}
	return nil
}

// DeleteTransactionRange removes all persisted rows whose date falls inside
// the inclusive range. A store whose transaction table was never created is
// left alone.
func (s *Store) DeleteTransactionRange(ctx context.Context, r core.DateRange) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		return deleteTransactionRange(ctx, conn, r)
	})
}

// DeleteBudgetIDs removes the budget rows with the given identifiers.
func (s *Store) DeleteBudgetIDs(ctx context.Context, ids []string) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		return deleteBudgetIDs(ctx, conn, ids)
	})
}

// ReplaceTransactions deletes every persisted row in the batch's date range
// and appends the batch, in one transaction. Re-ingesting an identical or
// overlapping batch therefore converges on exactly the latest batch's rows,
// and a crash mid-replace cannot leave the range emptied.
func (s *Store) ReplaceTransactions(ctx context.Context, records []core.TransactionRecord) error {
	key, err := core.Range(records)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if err := deleteTransactionRange(ctx, tx, key); err != nil {
			return err
		}
		if err := appendTransactions(ctx, tx, records); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ReplaceBudgets deletes the batch's budget ids and appends the batch, in one
// transaction.
func (s *Store) ReplaceBudgets(ctx context.Context, records []core.BudgetRecord) error {
	if len(records) == 0 {
		return core.ErrEmptyBatch
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if err := deleteBudgetIDs(ctx, tx, core.BudgetIDs(records)); err != nil {
			return err
		}
		if err := appendBudgets(ctx, tx, records); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ReadTransactions returns the full persisted ledger ordered by date. The
// table is small; a full scan per aggregation call is the intended model.
func (s *Store) ReadTransactions(ctx context.Context) ([]core.TransactionRecord, error) {
	var records []core.TransactionRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT date, description, original_description, amount_cents,
			        transaction_type, category, account_name, labels, notes
			 FROM transactions ORDER BY date, id`)
		if err != nil {
			return fmt.Errorf("query transactions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rec core.TransactionRecord
			var date, txType string
			if err := rows.Scan(&date, &rec.Description, &rec.OriginalDescription,
				&rec.AmountCents, &txType, &rec.Category, &rec.AccountName,
				&rec.Labels, &rec.Notes); err != nil {
				return fmt.Errorf("scan transaction: %w", err)
			}
			rec.Date, err = time.Parse(dateLayout, date)
			if err != nil {
				return fmt.Errorf("parse stored date %q: %w", date, err)
			}
			rec.TransactionType = core.TransactionType(txType)
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadBudgets returns the persisted budget lines for one (year, month).
func (s *Store) ReadBudgets(ctx context.Context, year, month int) ([]core.BudgetRecord, error) {
	var records []core.BudgetRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT budget_id, year, month, category, cash_flow_type,
			        budgeted_cents, actual_cents, remaining_cents, over_budget
			 FROM budgets WHERE year = ? AND month = ? ORDER BY category`,
			year, month)
		if err != nil {
			return fmt.Errorf("query budgets: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rec core.BudgetRecord
			var flow string
			if err := rows.Scan(&rec.BudgetID, &rec.Year, &rec.Month, &rec.Category,
				&flow, &rec.BudgetedCents, &rec.ActualCents, &rec.RemainingCents,
				&rec.OverBudget); err != nil {
				return fmt.Errorf("scan budget: %w", err)
			}
			rec.CashFlowType = core.CashFlowType(flow)
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountTransactionsInRange reports how many persisted rows fall inside the
// inclusive range. Used by observability and tests, not by ingestion.
func (s *Store) CountTransactionsInRange(ctx context.Context, r core.DateRange) (int, error) {
	var count int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE date >= ? AND date <= ?`,
			r.Min.Format(dateLayout), r.Max.Format(dateLayout))
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
