package debuglog

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// rawEntry is the raw JSON structure for parsing
type rawEntry struct {
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Provider  string `json:"provider,omitempty"`
	// request fields
	Model       string `json:"model,omitempty"`
	ContextHash string `json:"context_hash,omitempty"`
	ContextLen  int    `json:"context_len,omitempty"`
	ContextTail string `json:"context_tail,omitempty"`
	// response fields
	DurationMS int64  `json:"duration_ms,omitempty"`
	Raw        string `json:"raw,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	// sanitize fields
	Passes []string `json:"passes,omitempty"`
	Output string   `json:"output"`
}

// ListSessions returns summaries of all sessions in the trace directory,
// sorted by start time (most recent first).
func ListSessions(dir string) ([]SessionSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionSummary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())
		session, err := ParseSession(filePath)
		if err != nil || session.StartTime.IsZero() {
			continue // Skip malformed files
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, summarize(session, info.Size()))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

func summarize(s *Session, size int64) SessionSummary {
	summary := SessionSummary{
		ID:        s.ID,
		FilePath:  s.FilePath,
		StartTime: s.StartTime,
		Provider:  s.Provider,
		Model:     s.Model,
		Requests:  s.Requests,
		Failures:  s.Failures,
		FileSize:  size,
	}
	var total time.Duration
	n := 0
	for _, e := range s.Entries {
		if r, ok := e.(ResponseEntry); ok && !r.Failed() {
			total += r.Duration
			n++
		}
	}
	if n > 0 {
		summary.AvgLatency = total / time.Duration(n)
	}
	return summary
}

// ParseSession parses a full session file into a Session struct
func ParseSession(filePath string) (*Session, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	session, err := parse(file)
	if err != nil {
		return nil, err
	}
	session.ID = strings.TrimSuffix(filepath.Base(filePath), ".jsonl")
	session.FilePath = filePath
	return session, nil
}

func parse(r io.Reader) (*Session, error) {
	session := &Session{}

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		var entry rawEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
		if err != nil {
			continue
		}

		if session.StartTime.IsZero() || ts.Before(session.StartTime) {
			session.StartTime = ts
		}
		if ts.After(session.EndTime) {
			session.EndTime = ts
		}

		switch entry.Type {
		case "request":
			session.Entries = append(session.Entries, RequestEntry{
				Timestamp:   ts,
				Provider:    entry.Provider,
				Model:       entry.Model,
				ContextHash: entry.ContextHash,
				ContextLen:  entry.ContextLen,
				ContextTail: entry.ContextTail,
			})
			session.Requests++
			if session.Provider == "" {
				session.Provider = entry.Provider
				session.Model = entry.Model
			}

		case "response":
			resp := ResponseEntry{
				Timestamp: ts,
				Provider:  entry.Provider,
				Duration:  time.Duration(entry.DurationMS) * time.Millisecond,
				Raw:       entry.Raw,
				Error:     entry.Error,
				ErrorKind: entry.ErrorKind,
			}
			session.Entries = append(session.Entries, resp)
			if resp.Failed() {
				session.Failures++
			}

		case "sanitize":
			session.Entries = append(session.Entries, SanitizeEntry{
				Timestamp: ts,
				Passes:    entry.Passes,
				Output:    entry.Output,
			})
			if entry.Output == "" {
				session.Empty++
			}
		}
	}

	return session, scanner.Err()
}

// GetSessionByNumber returns the session at the given 1-based index
// (1 = most recent)
func GetSessionByNumber(dir string, num int) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}

	if num < 1 || num > len(sessions) {
		return nil, nil
	}

	return &sessions[num-1], nil
}

// GetSessionByID returns the session with the given ID
func GetSessionByID(dir, id string) (*SessionSummary, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.ID == id {
			return &s, nil
		}
	}

	return nil, nil
}

// ResolveSession resolves a session identifier (number or ID) to a session summary
func ResolveSession(dir, identifier string) (*SessionSummary, error) {
	if num, err := strconv.Atoi(identifier); err == nil && num > 0 {
		return GetSessionByNumber(dir, num)
	}
	return GetSessionByID(dir, identifier)
}
