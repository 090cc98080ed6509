package shrink

import "context"

// Engine scratch-filesystem paths, unique to each engine instance
const (
	InputFileName  = "in.pdf"
	OutputFileName = "out.pdf"
)

// Job stage names reported through status events
const (
	StageLoading = "loading"
	StageReady   = "ready"
	StageRunning = "running"
	StageDone    = "done"
	StageFailed  = "failed"
)

// Job represents one queued compression request. The input buffer is owned
// by the queue from enqueue until the terminal event has been emitted.
type Job struct {
	ID      string        `json:"job_id"`
	Input   []byte        `json:"-"`
	Options ShrinkOptions `json:"options"`
}

// Result is produced exactly once per successful job
type Result struct {
	Output               []byte `json:"-"`
	UsedOriginalFallback bool   `json:"used_original_fallback"`
	PDFVersion           string `json:"pdf_version"`
}

// Emitter receives the lifecycle events of one job. Implementations carry
// them across the transport boundary; the runner guarantees exactly one
// terminal call (Result or Error) per job.
type Emitter interface {
	Status(jobID, stage, message string)
	Progress(jobID string, percent, current, total int)
	Result(jobID string, result *Result)
	Error(jobID string, err error)
}

// Engine is the opaque compression engine held by exactly one job: a private
// scratch filesystem plus a synchronous run entry point. Both of the
// engine's output streams feed the line sink it was created with.
type Engine interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	RemoveFile(name string) error
	Path(name string) string
	Run(ctx context.Context, args []string) error
	Close() error
}

// EngineFactory creates a fresh engine whose log lines are delivered to
// sink. A new instance is allocated per job; instances are never shared or
// pooled, so scratch files and callback state cannot leak between jobs.
type EngineFactory func(sink func(line string)) (Engine, error)
