package shrink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// fakeEngine is an in-memory stand-in for the Ghostscript wrapper: a map
// filesystem plus a scripted run that replays log lines into the sink and
// drops a canned output file.
type fakeEngine struct {
	files  map[string][]byte
	sink   func(string)
	closed bool

	initErr    error
	runErr     error
	logLines   []string
	output     []byte
	skipOutput bool
	runArgs    []string
	filesAtRun map[string][]byte
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{files: make(map[string][]byte)}
}

func (f *fakeEngine) WriteFile(name string, data []byte) error {
	f.files[name] = append([]byte(nil), data...)
	return nil
}

func (f *fakeEngine) ReadFile(name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", name)
	}
	return data, nil
}

func (f *fakeEngine) RemoveFile(name string) error {
	delete(f.files, name)
	return nil
}

func (f *fakeEngine) Path(name string) string {
	return "/" + name
}

func (f *fakeEngine) Run(ctx context.Context, args []string) error {
	f.runArgs = append([]string(nil), args...)
	f.filesAtRun = make(map[string][]byte, len(f.files))
	for name, data := range f.files {
		f.filesAtRun[name] = data
	}

	for _, line := range f.logLines {
		if f.sink != nil {
			f.sink(line)
		}
	}

	if f.runErr != nil {
		return f.runErr
	}
	if !f.skipOutput {
		f.files[OutputFileName] = append([]byte(nil), f.output...)
	}
	return nil
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// factory returns an EngineFactory handing out this fake (or its initErr)
func (f *fakeEngine) factory() EngineFactory {
	return func(sink func(string)) (Engine, error) {
		if f.initErr != nil {
			return nil, f.initErr
		}
		f.sink = sink
		return f, nil
	}
}

// capturedEvent records one emitter call for assertions
type capturedEvent struct {
	kind    string // "status", "progress", "result", "error"
	jobID   string
	stage   string
	message string
	percent int
	current int
	total   int
	result  *Result
	err     error
}

// captureEmitter collects events in order; safe for the worker goroutine
type captureEmitter struct {
	mu     sync.Mutex
	events []capturedEvent
	done   chan struct{}
}

func newCaptureEmitter() *captureEmitter {
	return &captureEmitter{done: make(chan struct{}, 1)}
}

func (c *captureEmitter) Status(jobID, stage, message string) {
	c.append(capturedEvent{kind: "status", jobID: jobID, stage: stage, message: message})
}

func (c *captureEmitter) Progress(jobID string, percent, current, total int) {
	c.append(capturedEvent{kind: "progress", jobID: jobID, percent: percent, current: current, total: total})
}

func (c *captureEmitter) Result(jobID string, result *Result) {
	c.append(capturedEvent{kind: "result", jobID: jobID, result: result})
	c.done <- struct{}{}
}

func (c *captureEmitter) Error(jobID string, err error) {
	c.append(capturedEvent{kind: "error", jobID: jobID, err: err})
	c.done <- struct{}{}
}

func (c *captureEmitter) append(event capturedEvent) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *captureEmitter) snapshot() []capturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedEvent(nil), c.events...)
}

func (c *captureEmitter) terminals() (results, errors int) {
	for _, event := range c.snapshot() {
		switch event.kind {
		case "result":
			results++
		case "error":
			errors++
		}
	}
	return results, errors
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
