package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samsaffron/ghostwrite/internal/complete"
)

// recordQueueSize bounds the outcomes waiting for the writer goroutine.
// Record drops outcomes once it is full.
const recordQueueSize = 256

// pendingRecord is one queued outcome, or a flush marker when done is set.
type pendingRecord struct {
	at    time.Time
	event complete.Event
	done  chan struct{}
}

// SQLiteStore implements Store using SQLite. Writes happen on a background
// goroutine so Record never waits on the disk.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex // guards closed and sends on queue
	closed bool
	queue  chan pendingRecord
	wg     sync.WaitGroup
}

const schemaVersion = 1

// Schema for the stats database.
const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    outcome TEXT NOT NULL CHECK (outcome IN ('shown', 'accepted', 'dismissed', 'failed')),
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    latency_ms INTEGER DEFAULT 0,
    cached BOOLEAN DEFAULT FALSE,
    chars INTEGER DEFAULT 0,
    error_kind TEXT
);

CREATE INDEX IF NOT EXISTS idx_outcomes_created_at ON outcomes(created_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_model ON outcomes(provider, model);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
`

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
		queue:  make(chan pendingRecord, recordQueueSize),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

// initSchema creates the tables on first use.
// Schema already current = single SELECT query.
func initSchema(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&currentVersion)
	if err == nil && currentVersion >= schemaVersion {
		return nil
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create base schema: %w", err)
	}
	if _, err := db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	return nil
}

// Record queues one outcome and returns at once. Outcomes are dropped when
// the queue is full or the store is closed; statistics never get in the way
// of editing.
func (s *SQLiteStore) Record(e complete.Event) {
	rec := pendingRecord{at: s.now().UTC(), event: e}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- rec:
	default:
		s.logger.Warn("stats queue full, dropping outcome", "outcome", e.Outcome)
	}
}

func (s *SQLiteStore) writeLoop() {
	defer s.wg.Done()
	for rec := range s.queue {
		if rec.done != nil {
			close(rec.done)
			continue
		}
		s.insert(rec)
	}
}

func (s *SQLiteStore) insert(rec pendingRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e := rec.event
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (created_at, outcome, provider, model, latency_ms, cached, chars, error_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.at, string(e.Outcome), e.Provider, e.Model, e.Latency.Milliseconds(), e.Cached, e.Chars, nullIfEmpty(e.ErrorKind),
	)
	if err != nil {
		s.logger.Warn("record suggestion outcome", "error", err)
	}
}

// flush waits until every outcome queued before the call is written.
func (s *SQLiteStore) flush(ctx context.Context) error {
	done := make(chan struct{})

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.queue <- pendingRecord{done: done}:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Summary aggregates outcomes recorded at or after since, busiest model
// first.
func (s *SQLiteStore) Summary(ctx context.Context, since time.Time) ([]ModelStats, error) {
	if err := s.flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, model,
			SUM(CASE WHEN outcome = 'shown' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'accepted' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'dismissed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'shown' AND cached THEN 1 ELSE 0 END),
			COALESCE(AVG(CASE WHEN outcome = 'shown' AND NOT cached THEN latency_ms END), 0)
		FROM outcomes
		WHERE created_at >= ?
		GROUP BY provider, model
		ORDER BY COUNT(*) DESC, provider, model`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []ModelStats
	for rows.Next() {
		var m ModelStats
		var avgMS float64
		if err := rows.Scan(&m.Provider, &m.Model, &m.Shown, &m.Accepted, &m.Dismissed, &m.Failed, &m.Cached, &avgMS); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		m.AvgLatency = time.Duration(avgMS * float64(time.Millisecond))
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return out, nil
}

// Close writes any queued outcomes and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
