// Package cache keeps short-lived lists of model ids fetched from local
// servers, so shell completion does not hit the server on every tab.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	ModelTTL = 30 * time.Minute
	appDir   = "ghostwrite"
)

// Models is one provider's cached model list.
type Models struct {
	BaseURL   string    `json:"base_url"`
	IDs       []string  `json:"ids"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh reports whether m was fetched from baseURL within ModelTTL of now.
func (m *Models) Fresh(baseURL string, now time.Time) bool {
	if m == nil || m.BaseURL != baseURL {
		return false
	}
	return now.Sub(m.FetchedAt) < ModelTTL
}

// Dir returns the cache directory, honouring XDG_CACHE_HOME.
func Dir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, appDir), nil
}

func modelsPath(dir, provider string) string {
	return filepath.Join(dir, provider+"-models.json")
}

// ReadModels loads the cached list for provider from dir.
func ReadModels(dir, provider string) (*Models, error) {
	data, err := os.ReadFile(modelsPath(dir, provider))
	if err != nil {
		return nil, err
	}
	var m Models
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteModels replaces the cached list for provider. The file is written to
// a temp file and renamed so a concurrent reader never sees half a list.
func WriteModels(dir, provider string, m Models) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, provider+"-models-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, modelsPath(dir, provider)); err != nil {
		return err
	}
	renamed = true
	return nil
}
