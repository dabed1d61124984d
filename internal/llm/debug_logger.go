package llm

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceLogger logs completion requests and responses to JSONL files.
// Each editor session gets its own file based on the session ID.
type TraceLogger struct {
	baseDir   string
	sessionID string
	mu        sync.Mutex
	file      *os.File
	writer    *bufio.Writer
	closeOnce sync.Once
	closed    bool
}

// traceEntry is the common structure for all log entries
type traceEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"` // "request", "response" or "sanitize"
}

type traceRequestEntry struct {
	traceEntry
	Provider    string `json:"provider"`
	Model       string `json:"model,omitempty"`
	ContextHash string `json:"context_hash"`
	ContextLen  int    `json:"context_len"`
	ContextTail string `json:"context_tail"`
}

type traceResponseEntry struct {
	traceEntry
	Provider   string `json:"provider"`
	DurationMS int64  `json:"duration_ms"`
	Raw        string `json:"raw,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
}

type traceSanitizeEntry struct {
	traceEntry
	Passes []string `json:"passes"`
	Output string   `json:"output"`
}

// NewTraceLogger creates a TraceLogger writing to baseDir/sessionID.jsonl.
// Old log files (>7 days) are automatically cleaned up.
func NewTraceLogger(baseDir, sessionID string) (*TraceLogger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	_ = CleanupOldLogs(baseDir, 7*24*time.Hour)

	filename := filepath.Join(baseDir, sessionID+".jsonl")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &TraceLogger{
		baseDir:   baseDir,
		sessionID: sessionID,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

func (l *TraceLogger) header(kind string) traceEntry {
	return traceEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: l.sessionID,
		Type:      kind,
	}
}

// LogRequest records an outgoing completion request. Only the tail of the
// context is stored; the hash identifies it.
func (l *TraceLogger) LogRequest(provider, model, contextText string) {
	if l == nil {
		return
	}
	l.writeEntry(traceRequestEntry{
		traceEntry:  l.header("request"),
		Provider:    provider,
		Model:       model,
		ContextHash: shortContentHash(contextText),
		ContextLen:  len(contextText),
		ContextTail: tail(contextText, 200),
	})
	l.Flush()
}

// LogResponse records the raw provider output or its failure.
func (l *TraceLogger) LogResponse(provider string, elapsed time.Duration, raw string, err error) {
	if l == nil {
		return
	}
	entry := traceResponseEntry{
		traceEntry: l.header("response"),
		Provider:   provider,
		DurationMS: elapsed.Milliseconds(),
		Raw:        raw,
	}
	if err != nil {
		entry.Error = err.Error()
		entry.ErrorKind = Classify(err).String()
	}
	l.writeEntry(entry)
	l.Flush()
}

// LogSanitize records which sanitizer passes changed the text.
func (l *TraceLogger) LogSanitize(passes []string, output string) {
	if l == nil {
		return
	}
	l.writeEntry(traceSanitizeEntry{
		traceEntry: l.header("sanitize"),
		Passes:     passes,
		Output:     output,
	})
	l.Flush()
}

// writeEntry writes a single log entry as a JSON line.
// Does not flush the buffer - caller is responsible for flushing when appropriate.
func (l *TraceLogger) writeEntry(entry any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.writer.Write(data)
	l.writer.WriteString("\n")
}

// Flush flushes the buffered writer to disk.
func (l *TraceLogger) Flush() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.writer == nil {
		return
	}
	l.writer.Flush()
}

// Close flushes and closes the log file.
func (l *TraceLogger) Close() error {
	if l == nil {
		return nil
	}
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.writer.Flush()
		err = l.file.Close()
		l.closed = true
	})
	return err
}

// Path returns the file the logger writes to.
func (l *TraceLogger) Path() string {
	return filepath.Join(l.baseDir, l.sessionID+".jsonl")
}

func shortContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// CleanupOldLogs removes JSONL log files older than maxAge from the specified directory.
func CleanupOldLogs(baseDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(baseDir, entry.Name()))
		}
	}

	return nil
}

// TraceProvider wraps a provider and records every call to a TraceLogger.
type TraceProvider struct {
	inner  CompletionProvider
	logger *TraceLogger
}

// WrapWithTrace returns p unchanged when logger is nil.
func WrapWithTrace(p CompletionProvider, logger *TraceLogger) CompletionProvider {
	if logger == nil {
		return p
	}
	return &TraceProvider{inner: p, logger: logger}
}

func (t *TraceProvider) Name() string {
	return t.inner.Name()
}

func (t *TraceProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	t.logger.LogRequest(t.inner.Name(), modelID, contextText)
	start := time.Now()
	raw, err := t.inner.Complete(ctx, contextText, modelID)
	t.logger.LogResponse(t.inner.Name(), time.Since(start), raw, err)
	return raw, err
}
