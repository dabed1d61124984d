// Package stats records what happened to each suggestion so acceptance can
// be compared across providers and models.
package stats

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samsaffron/ghostwrite/internal/complete"
	"github.com/samsaffron/ghostwrite/internal/config"
)

// Store persists suggestion outcomes.
type Store interface {
	complete.Recorder
	Summary(ctx context.Context, since time.Time) ([]ModelStats, error)
	Close() error
}

// ModelStats aggregates outcomes for one provider and model.
type ModelStats struct {
	Provider   string
	Model      string
	Shown      int
	Accepted   int
	Dismissed  int
	Failed     int
	Cached     int
	AvgLatency time.Duration
}

// AcceptanceRate is the share of shown suggestions that were accepted.
func (m ModelStats) AcceptanceRate() float64 {
	if m.Shown == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Shown)
}

// GetDBPath returns the default database location.
func GetDBPath() (string, error) {
	dataDir, err := config.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "stats.db"), nil
}

// NewStore creates a Store based on the configuration.
// If stats are disabled, returns a no-op store.
func NewStore(cfg config.StatsConfig) (Store, error) {
	if !cfg.Enabled {
		return &NoopStore{}, nil
	}
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = GetDBPath(); err != nil {
			return nil, err
		}
	}
	return NewSQLiteStore(path)
}

// NoopStore discards every outcome.
type NoopStore struct{}

func (s *NoopStore) Record(complete.Event) {}

func (s *NoopStore) Summary(ctx context.Context, since time.Time) ([]ModelStats, error) {
	return nil, nil
}

func (s *NoopStore) Close() error {
	return nil
}
