package transport

import "pdfshrink/internal/shrink"

// Message types exchanged over the bridge
const (
	MessageCompress = "compress"
	MessageStatus   = "status"
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// CompressRequest is the single request kind a caller sends per job. The
// document travels base64-encoded inside the JSON envelope; once received,
// the bridge owns the buffer until the terminal event has been sent back.
// Absent options fall back to the stored user preferences.
type CompressRequest struct {
	Type    string                `json:"type"`
	JobID   string                `json:"job_id"`
	PDFData []byte                `json:"pdf_data"`
	Options *shrink.ShrinkOptions `json:"options,omitempty"`
}

// StatusEvent reports a job lifecycle stage transition
type StatusEvent struct {
	Type    string `json:"type"`
	JobID   string `json:"job_id"`
	Stage   string `json:"stage"`
	Message string `json:"message,omitempty"`
}

// ProgressEvent reports inferred page progress. Total 0 means the page
// count is still unknown. Percent is not monotonic at this layer: a revised
// page total may legitimately lower it, and smoothing is the caller's job.
type ProgressEvent struct {
	Type    string `json:"type"`
	JobID   string `json:"job_id"`
	Percent int    `json:"percent"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// ResultEvent is one of the two terminal events for a job
type ResultEvent struct {
	Type         string `json:"type"`
	JobID        string `json:"job_id"`
	OutputData   []byte `json:"out_data"`
	UsedOriginal bool   `json:"used_original"`
	PDFVersion   string `json:"pdf_version"`
}

// ErrorEvent is the other terminal event; no partial output accompanies it
type ErrorEvent struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
	Error string `json:"error"`
}
