// Package pipeline runs one full cycle: extract snapshots, ingest the
// landing area, aggregate the ledger and hand the report figures to the
// external reporting service. Failures inside a single file never abort a
// cycle; anything else does, and the cycle is retried a bounded number of
// times.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"budgetwatch/internal/aggregate"
	"budgetwatch/internal/amqp"
	"budgetwatch/internal/core"
	"budgetwatch/internal/ingest"
	"budgetwatch/internal/log"
	"budgetwatch/internal/storage"
)

// Extractor is the remote-account adapter contract. Implementations
// authenticate against the account provider and write a transactions
// snapshot covering the lookback window plus a budget snapshot for the prior
// day's (year, month) into the landing directory, under the usual
// transactions*.csv / budget_*.csv names. The adapter itself lives outside
// this module.
type Extractor interface {
	Extract(ctx context.Context, lookbackDays int) error
}

// Publisher receives the cycle's report figures. *amqp.Client implements it.
type Publisher interface {
	PublishBudgetReport(ctx context.Context, msg *amqp.BudgetReportMessage) error
}

// Config tunes one pipeline instance.
type Config struct {
	LookbackDays   int
	ReportCategory string

	RetryAttempts int
	RetryDelay    time.Duration
}

type Pipeline struct {
	cfg       Config
	extractor Extractor // nil when snapshots are delivered externally
	ingester  *ingest.Engine
	pivoter   *aggregate.Engine
	store     *storage.Store
	publisher Publisher // nil disables the report step
	logger    *log.Logger

	now func() time.Time
}

func New(cfg Config, extractor Extractor, ingester *ingest.Engine, pivoter *aggregate.Engine,
	store *storage.Store, publisher Publisher, logger *log.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		ingester:  ingester,
		pivoter:   pivoter,
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentPipeline),
		now:       time.Now,
	}
}

// Run executes a single cycle attempt. Per-file ingestion failures are
// already contained by the ingestion engine; any error returned here is a
// run error and belongs to the retry loop.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.extractor != nil {
		if err := p.extractor.Extract(ctx, p.cfg.LookbackDays); err != nil {
			return fmt.Errorf("extract snapshots: %w", err)
		}
	}

	outcomes, err := p.ingester.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest landing area: %w", err)
	}
	imported, failed := 0, 0
	for _, o := range outcomes {
		if o == core.OutcomeImported {
			imported++
		} else {
			failed++
		}
	}
	p.logger.Info("landing area drained", "imported", imported, "failed", failed)

	pivot, err := p.pivoter.MonthToDate(ctx)
	if err != nil {
		return fmt.Errorf("aggregate ledger: %w", err)
	}

	if p.publisher == nil {
		return nil
	}
	return p.publishReport(ctx, pivot)
}

// publishReport looks up the prior calendar day's figure for the configured
// category and sends it out. The reporting service compares the spend against
// the budget line and renders the chart.
func (p *Pipeline) publishReport(ctx context.Context, pivot *aggregate.Pivot) error {
	asOf := p.now().AddDate(0, 0, -1)
	year, month, day := asOf.Year(), int(asOf.Month()), asOf.Day()

	spend := pivot.Cumulative(day, p.cfg.ReportCategory, core.YearMonth(year, month))

	budgets, err := p.store.ReadBudgets(ctx, year, month)
	if err != nil {
		return fmt.Errorf("read budgets: %w", err)
	}
	var line *core.BudgetRecord
	for i := range budgets {
		if budgets[i].Category == p.cfg.ReportCategory {
			line = &budgets[i]
			break
		}
	}
	if line == nil {
		return fmt.Errorf("no budget line for category %q in %s",
			p.cfg.ReportCategory, core.YearMonth(year, month))
	}

	msg := &amqp.BudgetReportMessage{
		Year:          year,
		Month:         month,
		Day:           day,
		Category:      p.cfg.ReportCategory,
		SpendCents:    spend,
		BudgetedCents: line.BudgetedCents,
		OverBudget:    -spend > line.BudgetedCents,
		Timestamp:     p.now(),
	}
	if err := p.publisher.PublishBudgetReport(ctx, msg); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	p.logger.Info("report published",
		log.FieldYear, year,
		log.FieldMonth, month,
		log.FieldDay, day,
		log.FieldCategory, p.cfg.ReportCategory,
		log.FieldAmountCents, spend)
	return nil
}

// RunWithRetry retries whole cycles with a fixed delay and abandons the run
// once the bound is exhausted, surfacing the last error. There is no
// checkpointing: every attempt repeats extract, ingest, aggregate and report.
// Idempotent replace-by-key makes the repetition safe.
func (p *Pipeline) RunWithRetry(ctx context.Context) error {
	attempts := p.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = p.Run(ctx)
		if lastErr == nil {
			return nil
		}
		p.logger.Error("run attempt failed",
			log.FieldAttempt, attempt,
			log.FieldError, lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			return fmt.Errorf("run interrupted: %w", ctx.Err())
		}
	}
	return fmt.Errorf("run abandoned after %d attempts: %w", attempts, lastErr)
}
