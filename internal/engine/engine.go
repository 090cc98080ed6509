// Package engine wraps the Ghostscript binary as an opaque, single-use
// compression engine. Each instance owns a private scratch directory acting
// as its filesystem, and streams every line the interpreter prints to a
// caller-supplied sink. Instances are never reused across jobs.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"pdfshrink/internal/common"
)

// LineSink receives one chunk of engine log output at a time. Chunks may
// span multiple lines; stdout and stderr are delivered through the same
// sink because Ghostscript does not separate informational and diagnostic
// text cleanly.
type LineSink func(chunk string)

// Instance is a single-use handle to the compression engine
type Instance struct {
	binPath string
	root    string
	sink    LineSink
	logger  *slog.Logger

	sinkMu sync.Mutex
	ran    bool
}

// NewInstance allocates a fresh engine with its own scratch directory under
// workDir. It fails when no Ghostscript binary has been resolved.
func NewInstance(binPath, workDir string, sink LineSink, logger *slog.Logger) (*Instance, error) {
	if binPath == "" {
		return nil, fmt.Errorf("ghostscript not found, install ghostscript or set ghostscript_path")
	}

	root := filepath.Join(workDir, common.GenerateUUID())
	if err := os.MkdirAll(root, common.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create engine scratch directory: %w", err)
	}

	return &Instance{
		binPath: binPath,
		root:    root,
		sink:    sink,
		logger:  logger,
	}, nil
}

// Path resolves a scratch-filesystem name to an absolute path
func (e *Instance) Path(name string) string {
	return filepath.Join(e.root, name)
}

// WriteFile places data into the engine's scratch filesystem
func (e *Instance) WriteFile(name string, data []byte) error {
	return os.WriteFile(e.Path(name), data, common.DefaultFilePermissions)
}

// ReadFile reads a file back from the scratch filesystem
func (e *Instance) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(e.Path(name))
}

// RemoveFile deletes a scratch file; a missing file is not an error
func (e *Instance) RemoveFile(name string) error {
	err := os.Remove(e.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Run invokes the engine synchronously with the given argument vector.
// Every line written to stdout or stderr is forwarded to the sink before
// Run returns. A non-zero exit is reported as an error.
func (e *Instance) Run(ctx context.Context, args []string) error {
	if e.ran {
		return fmt.Errorf("engine instance already used")
	}
	e.ran = true

	cmd := exec.CommandContext(ctx, e.binPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go e.scan(stdout, &wg)
	go e.scan(stderr, &wg)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("engine exited abnormally: %w", err)
	}

	return nil
}

// Close tears down the scratch directory. Safe to call exactly once per
// instance via defer; the instance is unusable afterwards.
func (e *Instance) Close() error {
	return os.RemoveAll(e.root)
}

func (e *Instance) scan(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		e.logger.Debug("Engine output", "line", line)

		// Both streams share one sink; serialize delivery
		e.sinkMu.Lock()
		if e.sink != nil {
			e.sink(line)
		}
		e.sinkMu.Unlock()
	}
}
