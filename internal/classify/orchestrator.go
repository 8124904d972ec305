// Package classify drives the external AI classifier over the canonical
// corpus: one call per record and question, rate limited against a single
// global budget, retried on transient failure, degraded to the question's
// default on persistent failure. Records already fully classified by a
// previous run are skipped, making interrupted runs safe to resume.
package classify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/resilience"
)

// Asker is the classifier client capability: one prompt in, text out.
// Failures must be distinguishable as transient or permanent via the
// resilience package.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// CheckpointFunc is invoked after a record completes every question, so
// the caller can persist partial progress. Index is the record's position
// in the corpus. Checkpoint errors are logged, not fatal.
type CheckpointFunc func(ctx context.Context, index int, rec model.Record) error

// Config tunes the orchestrator. Zero value gets the defaults.
type Config struct {
	// MaxInFlight caps concurrent classifier requests. Default: 4.
	MaxInFlight int

	// MinInterval is the minimum spacing between requests, shared across
	// all records and questions; the external service enforces an
	// account-level aggregate limit, so the budget is global. Default:
	// 500ms.
	MinInterval time.Duration

	// Retry is the bounded backoff schedule for transient failures.
	Retry resilience.RetryConfig

	// Breaker tunes the circuit breaker around classifier calls. Zero
	// value gets the defaults.
	Breaker resilience.CircuitBreakerConfig

	// RetryDefaulted re-attempts fields whose current value is a
	// fallback default (from an earlier run's transient failures).
	RetryDefaulted bool
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 500 * time.Millisecond
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	return cfg
}

// Stats aggregates orchestration outcomes for the run report.
type Stats struct {
	Records           int `json:"records"`
	SkippedClassified int `json:"skipped_classified"`
	Answered          int `json:"answered"`
	Defaulted         int `json:"defaulted"`
	ParseFailures     int `json:"parse_failures"`
	TransientFailures int `json:"transient_failures"`
	CircuitSkips      int `json:"circuit_skips"`
}

// Orchestrator coordinates classification across the corpus. The rate
// limiter is the single shared coordination point between workers; its
// lifecycle is scoped to one orchestrator, therefore one run.
type Orchestrator struct {
	asker     Asker
	questions []model.Question
	cfg       Config
	limiter   *rate.Limiter
	breaker   *resilience.CircuitBreaker
}

// New creates an orchestrator for the given question spec.
func New(asker Asker, questions []model.Question, cfg Config) (*Orchestrator, error) {
	if asker == nil {
		return nil, eris.New("classify: nil asker")
	}
	if len(questions) == 0 {
		return nil, eris.New("classify: empty question spec")
	}
	cfg = cfg.withDefaults()

	brCfg := cfg.Breaker
	if brCfg.ShouldTrip == nil {
		// Only service-level failures open the circuit; cancellations and
		// unparseable answers say nothing about the service's health.
		brCfg.ShouldTrip = resilience.IsTransient
	}
	if brCfg.OnStateChange == nil {
		brCfg.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("classify: circuit state change",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}

	return &Orchestrator{
		asker:     asker,
		questions: questions,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		breaker:   resilience.NewCircuitBreaker(brCfg),
	}, nil
}

// Run classifies every record that still needs it. Records are processed
// concurrently up to MaxInFlight; each record's questions run in order.
// Cancellation stops new requests; requests already in flight complete
// and commit their answers, and completed records are still
// checkpointed, so a later Run resumes where this one stopped. When the
// circuit breaker opens, remaining questions default immediately instead
// of spending the retry budget against a down service. The returned
// error is non-nil only for cancellation — per-record failures degrade
// to defaults and are counted.
func (o *Orchestrator) Run(ctx context.Context, records []model.Record, checkpoint CheckpointFunc) ([]model.Record, Stats, error) {
	stats := Stats{Records: len(records)}
	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(o.cfg.MaxInFlight)

	for i := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec := &records[i]
			if rec.Classified(o.questions) {
				mu.Lock()
				stats.SkippedClassified++
				mu.Unlock()
				return nil
			}

			recStats, completed := o.classifyRecord(ctx, rec)
			mu.Lock()
			stats.Answered += recStats.Answered
			stats.Defaulted += recStats.Defaulted
			stats.ParseFailures += recStats.ParseFailures
			stats.TransientFailures += recStats.TransientFailures
			mu.Unlock()

			if completed && checkpoint != nil {
				// Checkpoint with a fresh context so an answered record
				// is persisted even when the run context is cancelled.
				cpCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
				defer cancel()
				if err := checkpoint(cpCtx, i, *rec); err != nil {
					zap.L().Warn("classify: checkpoint failed",
						zap.Int("record", i),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if stats.Defaulted > 0 {
		zap.L().Warn("classify: degraded answers",
			zap.Int("defaulted", stats.Defaulted),
			zap.Int("parse_failures", stats.ParseFailures),
			zap.Int("transient_failures", stats.TransientFailures),
			zap.Int("circuit_skips", stats.CircuitSkips),
		)
	}
	return records, stats, ctx.Err()
}

// classifyRecord runs the per-question state machine for one record.
// Returns completed=false when cancellation interrupted the question
// loop; in that case unattempted questions get no entry at all, so the
// next run re-attempts them.
func (o *Orchestrator) classifyRecord(ctx context.Context, rec *model.Record) (Stats, bool) {
	var stats Stats
	log := zap.L().With(zap.String("title", rec.Title))

	for _, q := range rec.PendingQuestions(o.questions, o.cfg.RetryDefaulted) {
		if ctx.Err() != nil {
			return stats, false
		}

		prompt := BuildPrompt(*rec, q)
		text, err := resilience.Do(ctx, o.retryFor(q), func(ctx context.Context) (string, error) {
			return resilience.ExecuteVal(ctx, o.breaker, func(ctx context.Context) (string, error) {
				if err := o.limiter.Wait(ctx); err != nil {
					return "", err
				}
				// Once issued, a request runs to completion; cancelling
				// the run only stops new requests from being admitted.
				return o.asker.Ask(context.WithoutCancel(ctx), prompt)
			})
		})

		if err != nil {
			if ctx.Err() != nil {
				// Cancelled before the request was issued: leave the
				// field untouched.
				return stats, false
			}
			if errors.Is(err, resilience.ErrCircuitOpen) {
				stats.CircuitSkips++
			} else {
				stats.TransientFailures++
			}
			stats.Defaulted++
			rec.SetAnswer(q.Field, q.DefaultAnswer())
			log.Warn("classify: request not answered, using default",
				zap.String("field", q.Field),
				zap.Error(err),
			)
			continue
		}

		ans, err := ParseAnswer(text, q)
		if err != nil {
			stats.ParseFailures++
			stats.Defaulted++
			rec.SetAnswer(q.Field, q.DefaultAnswer())
			log.Warn("classify: unparseable answer, using default",
				zap.String("field", q.Field),
				zap.Error(err),
			)
			continue
		}

		stats.Answered++
		rec.SetAnswer(q.Field, ans)
	}
	return stats, true
}

// retryFor attaches logging to the configured retry schedule.
func (o *Orchestrator) retryFor(q model.Question) resilience.RetryConfig {
	cfg := o.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("classify " + q.Field)
	}
	return cfg
}
