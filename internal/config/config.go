package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	FormAPIURL      string        // FORM_API_URL (required)
	HTTPAddr        string        // FORMBUILDER_HTTP_ADDR (default ":3000")
	NATSURL         string        // FORMBUILDER_NATS_URL (optional, empty = no events)
	UpstreamTimeout time.Duration // FORMBUILDER_UPSTREAM_TIMEOUT (default 10s)
	LogLevel        slog.Level    // FORMBUILDER_LOG_LEVEL (default "info")
	DateLayout      string        // FORMBUILDER_DATE_LAYOUT (default "1/2/2006")
	DatabaseURL     string        // FORMBUILDER_DATABASE_URL (optional, empty = sessions in memory only)
	SessionTTL      time.Duration // FORMBUILDER_SESSION_TTL (default 2h, 0 = never evict)
	HooksFile       string        // FORMBUILDER_HOOKS_FILE (optional, needs NATS)

	// Submission export settings
	ExportS3Bucket   string        // FORMBUILDER_EXPORT_S3_BUCKET (enables S3 export when set)
	ExportS3Region   string        // FORMBUILDER_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Endpoint string        // FORMBUILDER_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Key      string        // FORMBUILDER_EXPORT_S3_KEY (default "formbuilder/export.jsonl")
	ExportInterval   time.Duration // FORMBUILDER_EXPORT_INTERVAL (default 0 = no periodic export)
}

// Load reads the configuration from the environment. A missing or malformed
// FORM_API_URL is an error: the proxy cannot serve anything without it.
func Load() (*Config, error) {
	c := &Config{
		FormAPIURL:       strings.TrimSpace(os.Getenv("FORM_API_URL")),
		HTTPAddr:         envOrDefault("FORMBUILDER_HTTP_ADDR", ":3000"),
		NATSURL:          os.Getenv("FORMBUILDER_NATS_URL"),
		DateLayout:       envOrDefault("FORMBUILDER_DATE_LAYOUT", "1/2/2006"),
		DatabaseURL:      os.Getenv("FORMBUILDER_DATABASE_URL"),
		HooksFile:        os.Getenv("FORMBUILDER_HOOKS_FILE"),
		ExportS3Bucket:   os.Getenv("FORMBUILDER_EXPORT_S3_BUCKET"),
		ExportS3Region:   envOrDefault("FORMBUILDER_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Endpoint: os.Getenv("FORMBUILDER_EXPORT_S3_ENDPOINT"),
		ExportS3Key:      envOrDefault("FORMBUILDER_EXPORT_S3_KEY", "formbuilder/export.jsonl"),
	}
	if c.FormAPIURL == "" {
		return nil, fmt.Errorf("FORM_API_URL is required")
	}
	u, err := url.Parse(c.FormAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("FORM_API_URL must be an absolute http(s) URL, got %q", c.FormAPIURL)
	}

	d, err := time.ParseDuration(envOrDefault("FORMBUILDER_UPSTREAM_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("FORMBUILDER_UPSTREAM_TIMEOUT: %w", err)
	}
	c.UpstreamTimeout = d

	ttl, err := time.ParseDuration(envOrDefault("FORMBUILDER_SESSION_TTL", "2h"))
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("FORMBUILDER_SESSION_TTL: invalid duration")
	}
	c.SessionTTL = ttl

	if v := os.Getenv("FORMBUILDER_EXPORT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("FORMBUILDER_EXPORT_INTERVAL: invalid duration %q", v)
		}
		c.ExportInterval = d
	}

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("FORMBUILDER_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("FORMBUILDER_LOG_LEVEL: %w", err)
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
