// Package progress tracks the state of asynchronous ingestion operations and
// maps per-stage progress onto a single monotonic 0-100 value.
package progress

import "time"

// Kind selects which stage table and result shape apply to an operation.
type Kind string

const (
	KindCrawl  Kind = "crawl"
	KindUpload Kind = "upload"
)

// Status is an operation's lifecycle label. Intermediate statuses are
// kind-specific stage names; Initializing, Completed, Error and Cancelled are
// universal.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
	StatusCancelled    Status = "cancelled"

	// Crawl stages.
	StatusAnalyzing  Status = "analyzing"
	StatusCrawling   Status = "crawling"
	StatusProcessing Status = "processing"
	StatusStoring    Status = "storing"
	StatusFinalizing Status = "finalizing"

	// Upload stages.
	StatusReading        Status = "reading"
	StatusTextExtraction Status = "text_extraction"
	StatusChunking       Status = "chunking"

	// Shared by both kinds.
	StatusCodeExtraction Status = "code_extraction"
)

// IsTerminal reports whether s permits no further progress mutation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// LogEntry is one line of an operation's bounded activity log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
}

// OperationError describes a failed operation. Detail is diagnostic context
// that is safe to expose (system-error stack detail stays in server logs).
type OperationError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Operation is the pollable state record for one ingestion run.
type Operation struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`

	Log []LogEntry `json:"log,omitempty"`

	// Result is populated only once Status is completed.
	Result map[string]any `json:"result,omitempty"`

	// Error is populated only when Status is error.
	Error *OperationError `json:"error,omitempty"`

	// Extra holds caller-supplied fields merged by Update (minus the
	// protected keys).
	Extra map[string]any `json:"extra,omitempty"`

	StartedAt    time.Time  `json:"start_time"`
	EndedAt      *time.Time `json:"end_time,omitempty"`
	DurationSecs float64    `json:"duration_secs,omitempty"`
}
