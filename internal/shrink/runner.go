package shrink

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner drives one compression job end-to-end against a fresh engine
// instance: write input, invoke, read output, apply the size-fallback
// policy, report. It owns no cross-job state; everything per-job lives in
// locals so a relaxed queue invariant could never leak progress between
// jobs.
type Runner struct {
	newEngine EngineFactory
	logger    *slog.Logger
}

// NewRunner creates a runner allocating engines through factory
func NewRunner(factory EngineFactory, logger *slog.Logger) *Runner {
	return &Runner{
		newEngine: factory,
		logger:    logger,
	}
}

// Run executes one job. All failures are converted into a single Error
// event; on success exactly one Result event follows the final progress and
// status events.
func (r *Runner) Run(ctx context.Context, job *Job, emitter Emitter) {
	tracker := NewProgressTracker(func(percent, current, total int) {
		emitter.Progress(job.ID, percent, current, total)
	})

	emitter.Status(job.ID, StageLoading, "initializing compression engine")

	engine, err := r.newEngine(tracker.ConsumeChunk)
	if err != nil {
		r.fail(job, emitter, fmt.Errorf("engine initialization failed: %w", err))
		return
	}
	defer engine.Close()

	emitter.Status(job.ID, StageReady, "compression engine ready")

	result, err := r.compress(ctx, job, engine, emitter, tracker)
	if err != nil {
		r.fail(job, emitter, err)
		return
	}

	// Completion is the only place a full 100% is reported
	_, current, total := tracker.Snapshot()
	if total > 0 {
		current = total
	}
	emitter.Progress(job.ID, 100, current, total)

	message := "compression complete"
	if result.UsedOriginalFallback {
		message = "compressed output was larger than the original; keeping the original file"
	}
	emitter.Status(job.ID, StageDone, message)
	emitter.Result(job.ID, result)

	r.logger.Info("Compression job finished",
		"job_id", job.ID,
		"original_size", len(job.Input),
		"output_size", len(result.Output),
		"used_original", result.UsedOriginalFallback,
		"pdf_version", result.PDFVersion)
}

func (r *Runner) compress(ctx context.Context, job *Job, engine Engine, emitter Emitter, tracker *ProgressTracker) (*Result, error) {
	emitter.Status(job.ID, StageRunning, "compressing document")
	emitter.Progress(job.ID, 0, 0, 0)

	// Clear stale same-named files before use
	if err := engine.RemoveFile(InputFileName); err != nil {
		return nil, fmt.Errorf("failed to clear input path: %w", err)
	}
	if err := engine.RemoveFile(OutputFileName); err != nil {
		return nil, fmt.Errorf("failed to clear output path: %w", err)
	}

	if err := engine.WriteFile(InputFileName, job.Input); err != nil {
		return nil, fmt.Errorf("failed to write input document: %w", err)
	}

	pdfVersion, ok := SniffVersion(job.Input)
	if !ok {
		pdfVersion = DefaultPDFVersion
	}

	options := job.Options.Normalize()
	args := BuildArgs(options, pdfVersion, engine.Path(OutputFileName), engine.Path(InputFileName))

	if err := engine.Run(ctx, args); err != nil {
		return nil, fmt.Errorf("ghostscript failed: %w", err)
	}

	output, err := engine.ReadFile(OutputFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed output: %w", err)
	}

	// Some presets inflate already-optimized documents; keep the original
	// when the engine made things worse
	usedOriginal := false
	if len(output) > len(job.Input) {
		output = job.Input
		usedOriginal = true
	}

	return &Result{
		Output:               output,
		UsedOriginalFallback: usedOriginal,
		PDFVersion:           pdfVersion,
	}, nil
}

func (r *Runner) fail(job *Job, emitter Emitter, err error) {
	r.logger.Error("Compression job failed", "job_id", job.ID, "error", err)
	emitter.Status(job.ID, StageFailed, err.Error())
	emitter.Error(job.ID, err)
}
