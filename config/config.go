package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Summary    SummaryConfig    `yaml:"summary"`
	Youtube    YoutubeConfig    `yaml:"youtube"`
	Miniflux   MinifluxConfig   `yaml:"miniflux"`
	Weaviate   WeaviateConfig   `yaml:"weaviate"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	SummaryDir string         `yaml:"summary_dir"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type TranscriptConfig struct {
	PreferredLanguages []string `yaml:"preferred_languages"`
}

type SummaryConfig struct {
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	Model          string `yaml:"model"`
	OutputLanguage string `yaml:"output_language"`
	InputBudget    int    `yaml:"input_budget"`
	MaxRetries     int    `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type YoutubeConfig struct {
	APIKey string `yaml:"api_key"`
}

type MinifluxConfig struct {
	Endpoint     string `yaml:"endpoint"`
	APIKey       string `yaml:"api_key"`
	PollInterval string `yaml:"poll_interval"`
}

type WeaviateConfig struct {
	Host        string `yaml:"host"`
	APIKey      string `yaml:"api_key"`
	ResetSchema bool   `yaml:"reset_schema"`
}

// Load reads the configuration file, applies environment overrides for
// credentials and fills in defaults. A missing file is not an error,
// the defaults describe a working local setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("could not read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	// secrets are usually provided through the environment
	cfg.Summary.OpenAIAPIKey = getParam("OPENAI_API_KEY", cfg.Summary.OpenAIAPIKey)
	cfg.Youtube.APIKey = getParam("YOUTUBE_API_KEY", cfg.Youtube.APIKey)
	cfg.Miniflux.APIKey = getParam("MINIFLUX_APIKEY", cfg.Miniflux.APIKey)
	cfg.Weaviate.APIKey = getParam("WEAVIATE_APIKEY", cfg.Weaviate.APIKey)
	cfg.Storage.Postgres.Password = getParam("POSTGRES_PASSWORD", cfg.Storage.Postgres.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver must be sqlite, postgres or memory, got %q", c.Storage.Driver)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/ytsum.db"
	}
	if c.Storage.SummaryDir == "" {
		c.Storage.SummaryDir = "data/summaries"
	}
	if c.Storage.Driver == "postgres" {
		if c.Storage.Postgres.Host == "" {
			c.Storage.Postgres.Host = "localhost"
		}
		if c.Storage.Postgres.Port == "" {
			c.Storage.Postgres.Port = "5432"
		}
		if c.Storage.Postgres.User == "" || c.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres needs a user and a database")
		}
	}
	if len(c.Transcript.PreferredLanguages) == 0 {
		c.Transcript.PreferredLanguages = []string{"en"}
	}
	if c.Summary.OutputLanguage == "" {
		c.Summary.OutputLanguage = "en"
	}
	if c.Summary.InputBudget == 0 {
		c.Summary.InputBudget = 48000
	}
	if c.Summary.MaxRetries == 0 {
		c.Summary.MaxRetries = 2
	}
	if c.Summary.TimeoutSeconds == 0 {
		c.Summary.TimeoutSeconds = 120
	}
	if c.Miniflux.PollInterval == "" {
		c.Miniflux.PollInterval = "1m"
	}
	if _, err := time.ParseDuration(c.Miniflux.PollInterval); err != nil {
		return fmt.Errorf("miniflux.poll_interval is not a duration: %w", err)
	}

	return nil
}

// Interval is only valid after Validate has accepted the configuration.
func (m MinifluxConfig) Interval() time.Duration {
	d, err := time.ParseDuration(m.PollInterval)
	if err != nil {
		return time.Minute
	}

	return d
}

func (s SummaryConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}

	return def
}
