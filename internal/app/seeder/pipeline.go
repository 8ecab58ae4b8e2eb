// Package seeder loads notes and sales records for one user from JSONL
// files. Records go through the regular services, so each one is validated,
// embedded and indexed exactly as if it were created over the API.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

const (
	PhaseNotes = "notes"
	PhaseSales = "sales"
)

// allPhases defines the canonical execution order.
var allPhases = []string{PhaseNotes, PhaseSales}

type noteCreator interface {
	Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error)
}

type salesCreator interface {
	Create(ctx context.Context, input domain.SalesRecordInput) (*domain.SalesRecord, error)
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Skipped  int
	Errors   int
	Duration time.Duration
	Err      error
}

// Pipeline seeds one user's records phase by phase.
type Pipeline struct {
	log     *slog.Logger
	notes   noteCreator
	sales   salesCreator
	cfg     Config
	results map[string]PhaseResult
}

func NewPipeline(log *slog.Logger, notes noteCreator, sales salesCreator, cfg Config) *Pipeline {
	return &Pipeline{
		log:     log.With("component", "seeder"),
		notes:   notes,
		sales:   sales,
		cfg:     cfg,
		results: make(map[string]PhaseResult),
	}
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors reports whether any phase failed or rejected a record.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Run executes the phases whose file is configured. If phases is non-empty,
// only the listed phases run.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	if p.cfg.UserID == "" {
		return domain.NewValidationError("user_id", "required")
	}
	ctx = ctxutil.WithUserID(ctx, p.cfg.UserID)

	toRun := allPhases
	if len(phases) > 0 {
		filter := make(map[string]bool, len(phases))
		for _, ph := range phases {
			filter[ph] = true
		}
		toRun = nil
		for _, ph := range allPhases {
			if filter[ph] {
				toRun = append(toRun, ph)
			}
		}
	}

	for _, phase := range toRun {
		start := time.Now()
		p.log.InfoContext(ctx, "starting phase", slog.String("phase", phase))

		var result PhaseResult
		switch phase {
		case PhaseNotes:
			result = p.runNotes(ctx)
		case PhaseSales:
			result = p.runSales(ctx)
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.WarnContext(ctx, "phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
		} else {
			p.log.InfoContext(ctx, "phase completed",
				slog.String("phase", phase),
				slog.Int("inserted", result.Inserted),
				slog.Int("skipped", result.Skipped),
				slog.Int("errors", result.Errors),
				slog.Duration("duration", result.Duration),
			)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	p.log.InfoContext(ctx, "pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}

func (p *Pipeline) runNotes(ctx context.Context) PhaseResult {
	if p.cfg.NotesPath == "" {
		return PhaseResult{Err: fmt.Errorf("notes path not configured")}
	}

	inputs, stats, err := readNotes(p.cfg.NotesPath)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("read notes: %w", err)}
	}
	p.log.InfoContext(ctx, "notes parsed",
		slog.Int("records", len(inputs)),
		slog.Int("malformed_lines", stats.MalformedLines),
	)

	return insertEach(ctx, p, inputs, stats, func(in domain.NoteInput) error {
		_, err := p.notes.Create(ctx, in)
		return err
	})
}

func (p *Pipeline) runSales(ctx context.Context) PhaseResult {
	if p.cfg.SalesPath == "" {
		return PhaseResult{Err: fmt.Errorf("sales path not configured")}
	}

	inputs, stats, err := readSales(p.cfg.SalesPath)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("read sales: %w", err)}
	}
	p.log.InfoContext(ctx, "sales parsed",
		slog.Int("records", len(inputs)),
		slog.Int("malformed_lines", stats.MalformedLines),
	)

	return insertEach(ctx, p, inputs, stats, func(in domain.SalesRecordInput) error {
		_, err := p.sales.Create(ctx, in)
		return err
	})
}

// insertEach creates records one at a time. Invalid records are skipped;
// any other failure is counted and the phase carries on. Malformed lines
// count as skipped.
func insertEach[T any](ctx context.Context, p *Pipeline, inputs []T, stats Stats, create func(T) error) PhaseResult {
	result := PhaseResult{Skipped: stats.MalformedLines}
	if p.cfg.DryRun {
		result.Skipped += len(inputs)
		return result
	}

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		err := create(in)
		switch {
		case err == nil:
			result.Inserted++
		case errors.Is(err, domain.ErrValidation):
			result.Skipped++
			p.log.DebugContext(ctx, "record skipped", slog.Int("index", i), slog.String("error", err.Error()))
		default:
			result.Errors++
			p.log.WarnContext(ctx, "record failed", slog.Int("index", i), slog.String("error", err.Error()))
		}
	}
	return result
}
