// Package pipeline composes normalization, deduplication, tagging and
// classification into one resumable run. Every stage checkpoints its
// output corpus, so an interrupted run continues from the last completed
// stage instead of repeating finished work.
package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scholar-cli/internal/classify"
	"github.com/sells-group/scholar-cli/internal/dedupe"
	"github.com/sells-group/scholar-cli/internal/model"
	"github.com/sells-group/scholar-cli/internal/source"
	"github.com/sells-group/scholar-cli/internal/store"
	"github.com/sells-group/scholar-cli/internal/tagger"
)

// Options controls one pipeline invocation.
type Options struct {
	// InputDir holds the per-source raw result files. Required for new
	// runs, ignored when resuming.
	InputDir string

	// ResumeRunID continues an earlier run from its latest checkpoint.
	ResumeRunID string

	// SkipClassification stops the pipeline after tagging.
	SkipClassification bool

	// RetryDefaulted re-attempts answers that fell back to defaults.
	RetryDefaulted bool
}

// Config carries per-stage tuning, assembled from the config file.
type Config struct {
	SourcePriority []string
	Dedupe         dedupe.Config
	Classify       classify.Config
}

// Pipeline runs the record integration flow end to end.
type Pipeline struct {
	store        store.Store
	asker        classify.Asker
	questions    []model.Question
	vocabularies map[string][]string
	cfg          Config
}

// New assembles a pipeline. The asker may be nil when classification
// will be skipped.
func New(st store.Store, asker classify.Asker, questions []model.Question, vocabularies map[string][]string, cfg Config) *Pipeline {
	if len(cfg.SourcePriority) == 0 {
		cfg.SourcePriority = dedupe.DefaultSourcePriority
	}
	return &Pipeline{
		store:        st,
		asker:        asker,
		questions:    questions,
		vocabularies: vocabularies,
		cfg:          cfg,
	}
}

// stageOrder maps a stage to its position in the pipeline.
func stageOrder(stage model.Stage) int {
	for i, s := range model.Stages() {
		if s == stage {
			return i
		}
	}
	return -1
}

// Run executes the pipeline and returns the report and the final corpus.
// The returned error is non-nil when a stage failed or the run was
// cancelled; the report reflects whatever completed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunReport, []model.Record, error) {
	run, records, done, err := p.prepareRun(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting", zap.String("input", run.Label), zap.Int("resume_stage", done+1))

	report := &RunReport{
		RunID:     run.ID,
		Label:     run.Label,
		StartedAt: time.Now().UTC(),
	}

	setStatus := func(status model.RunStatus) {
		if err := p.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.Error(err))
		}
	}
	setStatus(model.RunStatusRunning)

	trackStage := func(stage model.Stage, fn func() error) error {
		start := time.Now()
		err := fn()
		result := StageResult{
			Name:     stage,
			Status:   StageStatusComplete,
			Duration: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Status = StageStatusFailed
			result.Error = err.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", string(stage)),
				zap.Int64("duration_ms", result.Duration),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", string(stage)),
				zap.Int64("duration_ms", result.Duration),
				zap.Int("records", len(records)),
			)
		}
		report.Stages = append(report.Stages, result)
		return err
	}
	skipStage := func(stage model.Stage) {
		report.Stages = append(report.Stages, StageResult{Name: stage, Status: StageStatusSkipped})
	}
	fail := func(err error) (*RunReport, []model.Record, error) {
		setStatus(model.RunStatusFailed)
		return report, records, err
	}

	// Normalization.
	if done < stageOrder(model.StageNormalized) {
		err := trackStage(model.StageNormalized, func() error {
			normalized, stats, err := p.normalize(opts.InputDir)
			if err != nil {
				return err
			}
			records = normalized
			report.Normalize = stats
			return p.store.SaveCheckpoint(ctx, run.ID, model.StageNormalized, records)
		})
		if err != nil {
			return fail(err)
		}
	} else {
		skipStage(model.StageNormalized)
		report.Normalize = normalizeStatsFrom(records)
	}

	// Deduplication.
	if done < stageOrder(model.StageDeduplicated) {
		err := trackStage(model.StageDeduplicated, func() error {
			deduped, stats := dedupe.Deduplicate(records, p.cfg.Dedupe)
			records = deduped
			report.Dedupe = stats
			return p.store.SaveCheckpoint(ctx, run.ID, model.StageDeduplicated, records)
		})
		if err != nil {
			return fail(err)
		}
	} else {
		skipStage(model.StageDeduplicated)
		report.Dedupe = dedupe.Stats{Input: len(records), Output: len(records)}
	}

	// Domain tagging.
	if done < stageOrder(model.StageTagged) {
		err := trackStage(model.StageTagged, func() error {
			records = tagger.New(p.vocabularies).Tag(records)
			return p.store.SaveCheckpoint(ctx, run.ID, model.StageTagged, records)
		})
		if err != nil {
			return fail(err)
		}
	} else {
		skipStage(model.StageTagged)
	}
	report.Domains = countDomains(records)

	// Classification.
	if opts.SkipClassification {
		skipStage(model.StageClassified)
	} else {
		err := trackStage(model.StageClassified, func() error {
			return p.classify(ctx, run.ID, &records, report, opts.RetryDefaulted)
		})
		if err != nil {
			return fail(err)
		}
	}

	report.Duration = time.Since(report.StartedAt).Milliseconds()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: marshal report"))
	}
	if err := p.store.UpdateRunReport(ctx, run.ID, reportJSON); err != nil {
		log.Warn("pipeline: failed to save report", zap.Error(err))
	}

	log.Info("pipeline: complete",
		zap.Int("records", len(records)),
		zap.Int64("duration_ms", report.Duration),
	)
	return report, records, nil
}

// prepareRun creates a new run or loads the checkpoint of a resumed one.
// done is the order of the latest checkpointed stage, -1 for a fresh run.
func (p *Pipeline) prepareRun(ctx context.Context, opts Options) (*model.Run, []model.Record, int, error) {
	if opts.ResumeRunID == "" {
		if opts.InputDir == "" {
			return nil, nil, -1, eris.New("pipeline: input directory required")
		}
		run, err := p.store.CreateRun(ctx, opts.InputDir)
		if err != nil {
			return nil, nil, -1, eris.Wrap(err, "pipeline: create run")
		}
		return run, nil, -1, nil
	}

	run, err := p.store.GetRun(ctx, opts.ResumeRunID)
	if err != nil {
		return nil, nil, -1, eris.Wrapf(err, "pipeline: resume run %s", opts.ResumeRunID)
	}
	stage, records, err := store.LatestCheckpoint(ctx, p.store, run.ID)
	if err != nil {
		return nil, nil, -1, eris.Wrapf(err, "pipeline: load checkpoint for %s", run.ID)
	}
	if records == nil {
		return nil, nil, -1, eris.Errorf("pipeline: run %s has no checkpoint to resume from", run.ID)
	}
	done := stageOrder(stage)
	if stage == model.StageClassified {
		// Classification resumes within the stage, re-attempting only
		// incomplete records.
		done = stageOrder(model.StageTagged)
	}
	return run, records, done, nil
}

// normalize loads raw result files and converts them to canonical
// records, in source priority order so first-seen wins downstream.
func (p *Pipeline) normalize(inputDir string) ([]model.Record, NormalizeStats, error) {
	raw, err := LoadRawResults(inputDir)
	if err != nil {
		return nil, NormalizeStats{}, err
	}

	stats := NormalizeStats{PerSource: make(map[string]int)}
	var records []model.Record
	for _, tag := range p.normalizeOrder(raw) {
		result, err := source.Normalize(tag, raw[tag])
		if err != nil {
			return nil, NormalizeStats{}, err
		}
		records = append(records, result.Records...)
		stats.PerSource[tag] = len(result.Records)
		stats.Skipped += result.Skipped
		stats.Total += len(result.Records)
	}
	return records, stats, nil
}

// normalizeOrder returns the loaded source tags in priority order.
// Tags absent from the priority list go last, in map-independent order.
func (p *Pipeline) normalizeOrder(raw map[string][]map[string]any) []string {
	var order []string
	seen := make(map[string]bool)
	for _, tag := range p.cfg.SourcePriority {
		if _, ok := raw[tag]; ok {
			order = append(order, tag)
			seen[tag] = true
		}
	}
	var rest []string
	for tag := range raw {
		if !seen[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func (p *Pipeline) classify(ctx context.Context, runID string, records *[]model.Record, report *RunReport, retryDefaulted bool) error {
	cfg := p.cfg.Classify
	cfg.RetryDefaulted = retryDefaulted

	orch, err := classify.New(p.asker, p.questions, cfg)
	if err != nil {
		return err
	}

	// Seed the stage checkpoint so per-record updates have rows to
	// replace. Idempotent on resume: the seed is the loaded checkpoint.
	if err := p.store.SaveCheckpoint(ctx, runID, model.StageClassified, *records); err != nil {
		return err
	}

	classified, stats, err := orch.Run(ctx, *records, func(cpCtx context.Context, index int, rec model.Record) error {
		return p.store.SaveCheckpointRecord(cpCtx, runID, model.StageClassified, index, rec)
	})
	*records = classified
	report.Classify = &stats
	if err != nil {
		return eris.Wrap(err, "pipeline: classification interrupted")
	}
	return p.store.SaveCheckpoint(ctx, runID, model.StageClassified, *records)
}

// countDomains tallies how many records carry a positive score per domain.
func countDomains(records []model.Record) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		for domain, tag := range rec.DomainTags {
			if tag.Score > 0 {
				counts[domain]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

// normalizeStatsFrom reconstructs normalization counts from provenance
// when the stage itself was skipped on resume.
func normalizeStatsFrom(records []model.Record) NormalizeStats {
	stats := NormalizeStats{PerSource: make(map[string]int), Total: len(records)}
	for _, rec := range records {
		for _, src := range rec.Provenance {
			stats.PerSource[src]++
		}
	}
	return stats
}
