package shrink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func runJob(t *testing.T, engine *fakeEngine, job *Job) *captureEmitter {
	t.Helper()

	emitter := newCaptureEmitter()
	runner := NewRunner(engine.factory(), testLogger())
	runner.Run(context.Background(), job, emitter)

	return emitter
}

func TestRunnerSuccess(t *testing.T) {
	input := []byte("%PDF-1.4\n" + strings.Repeat("x", 900))
	engine := newFakeEngine()
	engine.logLines = []string{"Processing pages 1 through 3.", "Page 1", "Page 2", "Page 3"}
	engine.output = []byte(strings.Repeat("y", 400))

	job := &Job{ID: "job-1", Input: input, Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	results, errs := emitter.terminals()
	if results != 1 || errs != 0 {
		t.Fatalf("Expected exactly one result and no error, got %d results, %d errors", results, errs)
	}

	events := emitter.snapshot()
	last := events[len(events)-1]
	if last.kind != "result" {
		t.Fatalf("Expected result as the final event, got %q", last.kind)
	}
	if last.result.UsedOriginalFallback {
		t.Error("Expected fallback flag false for a smaller output")
	}
	if !bytes.Equal(last.result.Output, engine.output) {
		t.Error("Expected the engine output to be returned")
	}
	if last.result.PDFVersion != "1.4" {
		t.Errorf("Expected sniffed version 1.4, got %q", last.result.PDFVersion)
	}
	if !engine.closed {
		t.Error("Expected the engine instance to be released")
	}
}

func TestRunnerStageSequence(t *testing.T) {
	engine := newFakeEngine()
	engine.output = []byte("small")

	job := &Job{ID: "job-1", Input: []byte("%PDF-1.5\nlarger input document"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	var stages []string
	for _, event := range emitter.snapshot() {
		if event.kind == "status" {
			stages = append(stages, event.stage)
		}
	}

	want := []string{StageLoading, StageReady, StageRunning, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("Expected stages %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("Stage %d: expected %q, got %q", i, want[i], stages[i])
		}
	}
}

func TestRunnerFinalProgressIsHundred(t *testing.T) {
	engine := newFakeEngine()
	engine.logLines = []string{"Processing pages 1 through 4.", "Page 1", "Page 2"}
	engine.output = []byte("ok")

	job := &Job{ID: "job-1", Input: []byte("%PDF-1.5\nsome input bytes"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	var progresses []capturedEvent
	for _, event := range emitter.snapshot() {
		if event.kind == "progress" {
			progresses = append(progresses, event)
		}
	}

	if len(progresses) == 0 {
		t.Fatal("Expected progress events")
	}
	first := progresses[0]
	if first.percent != 0 {
		t.Errorf("Expected initial progress 0, got %d", first.percent)
	}
	final := progresses[len(progresses)-1]
	if final.percent != 100 {
		t.Errorf("Expected final progress 100, got %d", final.percent)
	}
	if final.current != 4 || final.total != 4 {
		t.Errorf("Expected final current/total forced to the page count, got %d/%d", final.current, final.total)
	}
}

func TestRunnerFallbackWhenOutputLarger(t *testing.T) {
	input := []byte("%PDF-1.6\n" + strings.Repeat("x", 890)) // 900 bytes
	engine := newFakeEngine()
	engine.output = bytes.Repeat([]byte{'z'}, 1000)

	job := &Job{ID: "job-1", Input: input, Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	events := emitter.snapshot()
	last := events[len(events)-1]
	if last.kind != "result" {
		t.Fatalf("Expected a result, got %q", last.kind)
	}
	if !last.result.UsedOriginalFallback {
		t.Error("Expected fallback flag true for an inflated output")
	}
	if !bytes.Equal(last.result.Output, input) {
		t.Error("Expected the original input bytes to be returned")
	}

	// Completion message differs on the fallback path
	var doneMessage string
	for _, event := range events {
		if event.kind == "status" && event.stage == StageDone {
			doneMessage = event.message
		}
	}
	if !strings.Contains(doneMessage, "keeping the original") {
		t.Errorf("Expected fallback completion message, got %q", doneMessage)
	}
}

func TestRunnerEqualSizeKeepsEngineOutput(t *testing.T) {
	input := []byte("%PDF-1.5\n1234567890")
	engine := newFakeEngine()
	engine.output = bytes.Repeat([]byte{'e'}, len(input))

	job := &Job{ID: "job-1", Input: input, Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	events := emitter.snapshot()
	last := events[len(events)-1]
	if last.result.UsedOriginalFallback {
		t.Error("Equal-size output must not trigger the fallback")
	}
	if !bytes.Equal(last.result.Output, engine.output) {
		t.Error("Expected the engine output to be returned")
	}
}

func TestRunnerDefaultVersionWhenNoMarker(t *testing.T) {
	engine := newFakeEngine()
	engine.output = []byte("out")

	job := &Job{ID: "job-1", Input: []byte("no header here, long enough input"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	events := emitter.snapshot()
	last := events[len(events)-1]
	if last.kind != "result" {
		t.Fatalf("Expected a result, got %q", last.kind)
	}
	if last.result.PDFVersion != DefaultPDFVersion {
		t.Errorf("Expected default version %q, got %q", DefaultPDFVersion, last.result.PDFVersion)
	}
}

func TestRunnerEngineInitFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.initErr = errors.New("wasm load failed")

	job := &Job{ID: "job-1", Input: []byte("%PDF-1.5\ninput"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	results, errs := emitter.terminals()
	if results != 0 || errs != 1 {
		t.Fatalf("Expected exactly one error and no result, got %d results, %d errors", results, errs)
	}
}

func TestRunnerEngineRunFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.runErr = errors.New("exit status 1")

	job := &Job{ID: "job-1", Input: []byte("%PDF-1.5\ninput"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	results, errs := emitter.terminals()
	if results != 0 || errs != 1 {
		t.Fatalf("Expected exactly one error and no result, got %d results, %d errors", results, errs)
	}
	if !engine.closed {
		t.Error("Expected the engine instance to be released on failure")
	}
}

func TestRunnerMissingOutputIsFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.skipOutput = true

	job := &Job{ID: "job-1", Input: []byte("%PDF-1.5\ninput"), Options: DefaultShrinkOptions()}
	emitter := runJob(t, engine, job)

	results, errs := emitter.terminals()
	if results != 0 || errs != 1 {
		t.Fatalf("Expected exactly one error and no result, got %d results, %d errors", results, errs)
	}
}

func TestRunnerClearsStaleFilesAndWritesInput(t *testing.T) {
	engine := newFakeEngine()
	engine.files[InputFileName] = []byte("stale input")
	engine.files[OutputFileName] = []byte("stale output")
	engine.output = []byte("out")

	input := []byte("%PDF-1.5\nfresh input document")
	job := &Job{ID: "job-1", Input: input, Options: DefaultShrinkOptions()}
	runJob(t, engine, job)

	if !bytes.Equal(engine.filesAtRun[InputFileName], input) {
		t.Error("Expected the fresh input at the input path when the engine ran")
	}
	if _, ok := engine.filesAtRun[OutputFileName]; ok {
		t.Error("Expected the stale output to be removed before the engine ran")
	}
}

func TestRunnerNormalizesOptionsForArgs(t *testing.T) {
	engine := newFakeEngine()
	engine.output = []byte("out")

	job := &Job{
		ID:      "job-1",
		Input:   []byte("%PDF-1.5\ninput"),
		Options: ShrinkOptions{ResolutionDPI: -50, DownsampleThreshold: -1, QualityPreset: "bogus"},
	}
	runJob(t, engine, job)

	var found bool
	for _, arg := range engine.runArgs {
		if arg == "-dPDFSETTINGS=/ebook" {
			found = true
		}
		if arg == "-dColorImageResolution=-50" {
			t.Error("Expected resolution to be normalized before reaching the builder")
		}
	}
	if !found {
		t.Errorf("Expected the fallback preset in the argument vector, got %v", engine.runArgs)
	}
}
