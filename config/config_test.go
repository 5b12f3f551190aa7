package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()

	assert.Equal(t, "openai", s.Provider)
	assert.Equal(t, 5, s.BatchSize)
	assert.Equal(t, 4, s.MaxSearchCalls)
	assert.Equal(t, 3, s.MaxScrapeCalls)
	assert.InDelta(t, 0.85, s.DedupThreshold, 1e-9)
	assert.Equal(t, 60*time.Second, s.HTTPTimeout)
	assert.NoError(t, s.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veracity.yaml")
	content := `
provider: anthropic
model: claude-sonnet-4-20250514
batch_size: 3
max_search_calls: 2
dedup_threshold: 0.9
scrape_geo_code: de
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", s.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", s.Model)
	assert.Equal(t, 3, s.BatchSize)
	assert.Equal(t, 2, s.MaxSearchCalls)
	assert.InDelta(t, 0.9, s.DedupThreshold, 1e-9)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, s.MaxScrapeCalls)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veracity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: 3\n"), 0o600))

	t.Setenv("VERACITY_BATCH_SIZE", "7")
	t.Setenv("VERACITY_HTTP_TIMEOUT", "15s")
	t.Setenv("VERACITY_SCRAPE_TOKEN", "tok-123")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, s.BatchSize)
	assert.Equal(t, 15*time.Second, s.HTTPTimeout)
	assert.Equal(t, "tok-123", s.ScrapeToken)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown provider", func(s *Settings) { s.Provider = "grok" }},
		{"zero batch size", func(s *Settings) { s.BatchSize = 0 }},
		{"negative budget", func(s *Settings) { s.MaxSearchCalls = -1 }},
		{"threshold above one", func(s *Settings) { s.DedupThreshold = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
