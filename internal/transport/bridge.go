package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"pdfshrink/internal/common"
	"pdfshrink/internal/database"
	"pdfshrink/internal/shrink"
)

// Bridge exposes the job queue over a WebSocket connection: one compress
// request per job in, a typed event stream correlated by job id out. Jobs
// from every connection share the one global queue, so engine invocations
// stay strictly serialized across callers.
type Bridge struct {
	queue    *shrink.Queue
	db       *database.Database
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewBridge creates a bridge in front of queue. db may be nil; job history
// recording and preference defaults are skipped without it.
func NewBridge(queue *shrink.Queue, db *database.Database, logger *slog.Logger) *Bridge {
	return &Bridge{
		queue:  queue,
		db:     db,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and serves the message loop until the caller
// disconnects.
func (b *Bridge) Handle(c echo.Context) error {
	conn, err := b.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := &session{conn: conn, logger: b.logger}
	b.logger.Info("Bridge connection opened", "remote", conn.RemoteAddr())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.logger.Info("Bridge connection closed", "remote", conn.RemoteAddr())
			return nil
		}

		var request CompressRequest
		if err := json.Unmarshal(data, &request); err != nil {
			sess.Error("", fmt.Errorf("malformed request: %v", err))
			continue
		}
		if request.Type != MessageCompress {
			sess.Error(request.JobID, fmt.Errorf("unsupported message type %q", request.Type))
			continue
		}

		b.submit(sess, &request)
	}
}

func (b *Bridge) submit(sess *session, request *CompressRequest) {
	jobID := request.JobID
	if jobID == "" {
		jobID = common.GenerateUUID()
	}

	if len(request.PDFData) == 0 {
		sess.Error(jobID, fmt.Errorf("no document provided"))
		return
	}

	job := &shrink.Job{
		ID:      jobID,
		Input:   request.PDFData,
		Options: b.resolveOptions(request.Options),
	}

	var emitter shrink.Emitter = sess
	if b.db != nil {
		emitter = newRecordingEmitter(sess, b.db, job, b.logger)
	}

	if err := b.queue.Enqueue(job, emitter); err != nil {
		sess.Error(jobID, err)
	}
}

// resolveOptions falls back to the stored preferences, then to the built-in
// defaults, when the request carries no options.
func (b *Bridge) resolveOptions(options *shrink.ShrinkOptions) shrink.ShrinkOptions {
	if options != nil {
		return *options
	}

	if b.db != nil {
		if prefs, err := b.db.GetPreferences(); err == nil {
			return prefs.ShrinkOptions()
		}
	}

	return shrink.DefaultShrinkOptions()
}

// session adapts one WebSocket connection to the shrink.Emitter interface.
// gorilla connections allow a single concurrent writer, so every send is
// serialized by the mutex.
type session struct {
	conn   *websocket.Conn
	logger *slog.Logger
	mu     sync.Mutex
}

func (s *session) Status(jobID, stage, message string) {
	s.send(StatusEvent{Type: MessageStatus, JobID: jobID, Stage: stage, Message: message})
}

func (s *session) Progress(jobID string, percent, current, total int) {
	s.send(ProgressEvent{Type: MessageProgress, JobID: jobID, Percent: percent, Current: current, Total: total})
}

func (s *session) Result(jobID string, result *shrink.Result) {
	s.send(ResultEvent{
		Type:         MessageResult,
		JobID:        jobID,
		OutputData:   result.Output,
		UsedOriginal: result.UsedOriginalFallback,
		PDFVersion:   result.PDFVersion,
	})
}

func (s *session) Error(jobID string, err error) {
	s.send(ErrorEvent{Type: MessageError, JobID: jobID, Error: err.Error()})
}

func (s *session) send(event interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.WriteJSON(event); err != nil {
		// The caller may have gone away mid-job; the job itself still
		// runs to completion
		s.logger.Warn("Failed to deliver event", "error", err)
	}
}

// recordingEmitter persists each job's terminal outcome to the history
// table while forwarding every event unchanged.
type recordingEmitter struct {
	next    shrink.Emitter
	db      *database.Database
	job     *shrink.Job
	logger  *slog.Logger
	started time.Time
}

func newRecordingEmitter(next shrink.Emitter, db *database.Database, job *shrink.Job, logger *slog.Logger) *recordingEmitter {
	return &recordingEmitter{
		next:    next,
		db:      db,
		job:     job,
		logger:  logger,
		started: time.Now(),
	}
}

func (r *recordingEmitter) Status(jobID, stage, message string) {
	r.next.Status(jobID, stage, message)
}

func (r *recordingEmitter) Progress(jobID string, percent, current, total int) {
	r.next.Progress(jobID, percent, current, total)
}

func (r *recordingEmitter) Result(jobID string, result *shrink.Result) {
	r.record(&database.JobRecord{
		ID:             jobID,
		Status:         "completed",
		QualityPreset:  r.job.Options.Normalize().QualityPreset,
		PDFVersion:     result.PDFVersion,
		OriginalSize:   int64(len(r.job.Input)),
		CompressedSize: int64(len(result.Output)),
		UsedOriginal:   result.UsedOriginalFallback,
	})
	r.next.Result(jobID, result)
}

func (r *recordingEmitter) Error(jobID string, err error) {
	r.record(&database.JobRecord{
		ID:            jobID,
		Status:        "failed",
		QualityPreset: r.job.Options.Normalize().QualityPreset,
		OriginalSize:  int64(len(r.job.Input)),
		Error:         err.Error(),
	})
	r.next.Error(jobID, err)
}

func (r *recordingEmitter) record(record *database.JobRecord) {
	record.DurationMs = time.Since(r.started).Milliseconds()
	if err := r.db.SaveJobRecord(record); err != nil {
		r.logger.Warn("Failed to record job outcome", "job_id", record.ID, "error", err)
	}
}
