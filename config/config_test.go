package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ewintr.nl/ytsum/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "data/ytsum.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "data/summaries", cfg.Storage.SummaryDir)
	assert.Equal(t, []string{"en"}, cfg.Transcript.PreferredLanguages)
	assert.Equal(t, "en", cfg.Summary.OutputLanguage)
	assert.Equal(t, 48000, cfg.Summary.InputBudget)
	assert.Equal(t, 2, cfg.Summary.MaxRetries)
	assert.Equal(t, 120*time.Second, cfg.Summary.Timeout())
	assert.Equal(t, time.Minute, cfg.Miniflux.Interval())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090

storage:
  driver: postgres
  postgres:
    user: ytsum
    database: ytsum

transcript:
  preferred_languages: [ja, en]

summary:
  model: gpt-4o-mini
  output_language: ja
  input_budget: 12000

miniflux:
  endpoint: http://localhost/v1
  poll_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "localhost", cfg.Storage.Postgres.Host)
	assert.Equal(t, "5432", cfg.Storage.Postgres.Port)
	assert.Equal(t, []string{"ja", "en"}, cfg.Transcript.PreferredLanguages)
	assert.Equal(t, "gpt-4o-mini", cfg.Summary.Model)
	assert.Equal(t, "ja", cfg.Summary.OutputLanguage)
	assert.Equal(t, 12000, cfg.Summary.InputBudget)
	assert.Equal(t, 30*time.Second, cfg.Miniflux.Interval())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("YOUTUBE_API_KEY", "yt-from-env")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Summary.OpenAIAPIKey)
	assert.Equal(t, "yt-from-env", cfg.Youtube.APIKey)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		config config.Config
		valid  bool
	}{
		{
			name:  "empty config gets defaults",
			valid: true,
		},
		{
			name: "unknown driver",
			config: config.Config{
				Storage: config.StorageConfig{Driver: "oracle"},
			},
			valid: false,
		},
		{
			name: "postgres without database",
			config: config.Config{
				Storage: config.StorageConfig{Driver: "postgres"},
			},
			valid: false,
		},
		{
			name: "bad poll interval",
			config: config.Config{
				Miniflux: config.MinifluxConfig{PollInterval: "whenever"},
			},
			valid: false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
