package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"CATALOG_URL", "CATALOG_PAGE_SIZE", "EMBEDDING_URL", "MATCH_THRESHOLD",
		"GALLERY_THRESHOLD", "MATCH_WORKERS", "DETECT_TIMEOUT", "RUN_TTL",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "WEB_HOST", "WEB_PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Matching.MatchThreshold != 0.7 {
		t.Errorf("expected match threshold 0.7, got %v", cfg.Matching.MatchThreshold)
	}
	if cfg.Matching.GalleryThreshold != 0.4 {
		t.Errorf("expected gallery threshold 0.4, got %v", cfg.Matching.GalleryThreshold)
	}
	if cfg.Matching.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", cfg.Matching.Workers)
	}
	if cfg.Matching.DetectTimeout != 30*time.Second {
		t.Errorf("expected 30s detect timeout, got %v", cfg.Matching.DetectTimeout)
	}
	if cfg.Catalog.PageSize != 10 {
		t.Errorf("expected page size 10, got %d", cfg.Catalog.PageSize)
	}
	if cfg.Runs.TTL != time.Hour {
		t.Errorf("expected run TTL 1h, got %v", cfg.Runs.TTL)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_URL", "http://catalog:8000")
	t.Setenv("MATCH_THRESHOLD", "0.6")
	t.Setenv("GALLERY_THRESHOLD", "0.35")
	t.Setenv("MATCH_WORKERS", "12")
	t.Setenv("DETECT_TIMEOUT", "5s")
	t.Setenv("WEB_PORT", "9090")

	cfg := Load()

	if cfg.Catalog.URL != "http://catalog:8000" {
		t.Errorf("unexpected catalog URL %q", cfg.Catalog.URL)
	}
	if cfg.Matching.MatchThreshold != 0.6 {
		t.Errorf("expected 0.6, got %v", cfg.Matching.MatchThreshold)
	}
	if cfg.Matching.GalleryThreshold != 0.35 {
		t.Errorf("expected 0.35, got %v", cfg.Matching.GalleryThreshold)
	}
	if cfg.Matching.Workers != 12 {
		t.Errorf("expected 12 workers, got %d", cfg.Matching.Workers)
	}
	if cfg.Matching.DetectTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Matching.DetectTimeout)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Web.Port)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MATCH_WORKERS", "-3")
	t.Setenv("MATCH_THRESHOLD", "abc")
	t.Setenv("DETECT_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Matching.Workers != 6 {
		t.Errorf("expected fallback to 6 workers, got %d", cfg.Matching.Workers)
	}
	if cfg.Matching.MatchThreshold != 0.7 {
		t.Errorf("expected fallback to 0.7, got %v", cfg.Matching.MatchThreshold)
	}
	if cfg.Matching.DetectTimeout != 30*time.Second {
		t.Errorf("expected fallback to 30s, got %v", cfg.Matching.DetectTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Catalog:  CatalogConfig{URL: "http://x"},
				Matching: MatchingConfig{MatchThreshold: 0.7, GalleryThreshold: 0.4},
			},
		},
		{
			name:    "missing catalog URL",
			cfg:     Config{Matching: MatchingConfig{MatchThreshold: 0.7, GalleryThreshold: 0.4}},
			wantErr: true,
		},
		{
			name: "gallery above match",
			cfg: Config{
				Catalog:  CatalogConfig{URL: "http://x"},
				Matching: MatchingConfig{MatchThreshold: 0.4, GalleryThreshold: 0.7},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := Load()
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Web.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.Web.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.Web.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.Web.AllowedOrigins[i], want[i])
		}
	}
}
