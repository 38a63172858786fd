package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed matching.yaml
var defaultsYAML []byte

type Config struct {
	Catalog   CatalogConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Runs      RunsConfig
	Log       LogConfig
	Web       WebConfig
}

type CatalogConfig struct {
	URL      string // base URL of the session/photo service (e.g., http://localhost:8000)
	PageSize int    // photos per listing page
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type MatchingConfig struct {
	MatchThreshold   float64
	GalleryThreshold float64
	Workers          int
	DetectTimeout    time.Duration
}

type RunsConfig struct {
	TTL time.Duration // how long finished runs stay queryable
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional rotating log file
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
	ViewerSecret   string   // signs the anonymous viewer cookie
}

// defaultsFile mirrors matching.yaml.
type defaultsFile struct {
	Matching struct {
		MatchThreshold   float64       `yaml:"match_threshold"`
		GalleryThreshold float64       `yaml:"gallery_threshold"`
		Workers          int           `yaml:"workers"`
		DetectTimeout    time.Duration `yaml:"detect_timeout"`
	} `yaml:"matching"`
	Catalog struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"catalog"`
	Runs struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"runs"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float from the environment, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads a positive duration (e.g. "45s") from the environment.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadDefaults() defaultsFile {
	var d defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded matching.yaml: " + err.Error())
	}
	return d
}

func Load() *Config {
	d := loadDefaults()

	return &Config{
		Catalog: CatalogConfig{
			URL:      os.Getenv("CATALOG_URL"),
			PageSize: envInt("CATALOG_PAGE_SIZE", d.Catalog.PageSize),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Matching: MatchingConfig{
			MatchThreshold:   envFloat("MATCH_THRESHOLD", d.Matching.MatchThreshold),
			GalleryThreshold: envFloat("GALLERY_THRESHOLD", d.Matching.GalleryThreshold),
			Workers:          envInt("MATCH_WORKERS", d.Matching.Workers),
			DetectTimeout:    envDuration("DETECT_TIMEOUT", d.Matching.DetectTimeout),
		},
		Runs: RunsConfig{
			TTL: envDuration("RUN_TTL", d.Runs.TTL),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			ViewerSecret:   os.Getenv("VIEWER_SECRET"),
		},
	}
}

// Validate checks the settings the matching pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Catalog.URL == "" {
		return fmt.Errorf("CATALOG_URL environment variable is required")
	}
	if c.Matching.GalleryThreshold > c.Matching.MatchThreshold {
		return fmt.Errorf("gallery threshold %.2f must not exceed match threshold %.2f",
			c.Matching.GalleryThreshold, c.Matching.MatchThreshold)
	}
	return nil
}
