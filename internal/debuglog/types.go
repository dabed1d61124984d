// Package debuglog reads the JSONL completion traces written by
// llm.TraceLogger.
package debuglog

import "time"

// RequestEntry is an outgoing completion request.
type RequestEntry struct {
	Timestamp   time.Time
	Provider    string
	Model       string
	ContextHash string
	ContextLen  int
	ContextTail string
}

// ResponseEntry is a provider reply or failure.
type ResponseEntry struct {
	Timestamp time.Time
	Provider  string
	Duration  time.Duration
	Raw       string
	Error     string
	ErrorKind string
}

// Failed reports whether the call returned an error.
func (r ResponseEntry) Failed() bool {
	return r.Error != ""
}

// SanitizeEntry records what the sanitizer did to a response.
type SanitizeEntry struct {
	Timestamp time.Time
	Passes    []string
	Output    string
}

// Session is one editor run.
type Session struct {
	ID        string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time
	Provider  string
	Model     string
	Requests  int
	Failures  int
	Empty     int   // sanitized to nothing
	Entries   []any // RequestEntry, ResponseEntry or SanitizeEntry
}

// SessionSummary is a lightweight session info for listing
type SessionSummary struct {
	ID         string
	FilePath   string
	StartTime  time.Time
	Provider   string
	Model      string
	Requests   int
	Failures   int
	AvgLatency time.Duration
	FileSize   int64
}
