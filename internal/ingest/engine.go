// Package ingest applies landing-area snapshot files to the store with
// replace-by-key semantics and quarantines the ones that fail.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/parser"
	"budgetwatch/internal/storage"
)

// Config names the three landing-flow directories and the glob pattern that
// classifies each snapshot kind. Engines take it explicitly so tests can run
// several instances against temp directories.
type Config struct {
	RawDir      string
	ImportedDir string
	FailedDir   string

	TransactionPattern string
	BudgetPattern      string
}

type Engine struct {
	cfg    Config
	store  *storage.Store
	logger *log.Logger
}

func New(cfg Config, store *storage.Store, logger *log.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		logger: logger.WithComponent(log.ComponentIngest),
	}
}

// Run drains the landing area: every matching file is ingested and then moved
// to exactly one of the imported or failed directories. A file that fails to
// parse or persist never blocks the rest of the batch; only filesystem
// failures (discovery, routing) abort the run. The returned map records each
// file's outcome, keyed by its original landing path.
func (e *Engine) Run(ctx context.Context) (map[string]core.Outcome, error) {
	outcomes := make(map[string]core.Outcome)
	if err := e.runKind(ctx, core.KindTransactions, e.cfg.TransactionPattern, outcomes); err != nil {
		return outcomes, err
	}
	if err := e.runKind(ctx, core.KindBudgets, e.cfg.BudgetPattern, outcomes); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (e *Engine) runKind(ctx context.Context, kind core.Kind, pattern string, outcomes map[string]core.Outcome) error {
	// filepath.Glob returns lexicographic order. The naming convention embeds
	// dates, so this approximates chronological order; correctness does not
	// depend on it because replacement is by key.
	files, err := filepath.Glob(filepath.Join(e.cfg.RawDir, pattern))
	if err != nil {
		return fmt.Errorf("glob %s files: %w", kind, err)
	}

	for _, file := range files {
		outcome := core.OutcomeImported
		if err := e.ingestFile(ctx, file, kind); err != nil {
			outcome = core.OutcomeFailed
			e.logger.Error("snapshot ingestion failed",
				log.FieldFile, file,
				log.FieldKind, kind.String(),
				log.FieldError, err)
		}

		if err := e.route(file, outcome); err != nil {
			return err
		}
		outcomes[file] = outcome
		e.logger.Info("snapshot routed",
			log.FieldFile, file,
			log.FieldKind, kind.String(),
			log.FieldOutcome, outcome.String())
	}
	return nil
}

// ingestFile parses one snapshot and replaces the rows under its replacement
// key: the batch date range for transactions, the batch budget-id set for
// budgets. Delete and append run in one transaction inside the store.
func (e *Engine) ingestFile(ctx context.Context, path string, kind core.Kind) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	switch kind {
	case core.KindTransactions:
		records, err := parser.Transactions(f)
		if err != nil {
			return fmt.Errorf("parse transactions: %w", err)
		}
		if len(records) == 0 {
			// A header-only snapshot has no replacement key and replaces
			// nothing.
			return nil
		}
		if err := e.store.ReplaceTransactions(ctx, records); err != nil {
			return fmt.Errorf("replace transactions: %w", err)
		}
		e.logger.Debug("transactions replaced", log.FieldFile, path, log.FieldRows, len(records))
	case core.KindBudgets:
		records, err := parser.Budgets(f)
		if err != nil {
			return fmt.Errorf("parse budgets: %w", err)
		}
		if len(records) == 0 {
			// Possible when every row was dropped as unclassifiable.
			return nil
		}
		if err := e.store.ReplaceBudgets(ctx, records); err != nil {
			return fmt.Errorf("replace budgets: %w", err)
		}
		e.logger.Debug("budgets replaced", log.FieldFile, path, log.FieldRows, len(records))
	default:
		return fmt.Errorf("unknown snapshot kind %s", kind)
	}
	return nil
}

// route moves a processed file out of the landing area, keeping its basename.
// Every discovered file is routed exactly once, whatever its outcome.
func (e *Engine) route(path string, outcome core.Outcome) error {
	dest := e.cfg.ImportedDir
	if outcome == core.OutcomeFailed {
		dest = e.cfg.FailedDir
	}
	target := filepath.Join(dest, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("route %s file %s: %w", outcome, path, err)
	}
	return nil
}
