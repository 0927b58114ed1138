package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("MAP_CONCURRENCY", "not-a-number")
	t.Setenv("DOCUMENT_TIMEOUT", "90s")
	t.Setenv("CORS_ORIGINS", " https://a.test , ,https://b.test")

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Fatalf("blank PORT should fall back, got %q", cfg.Port)
	}
	if cfg.ChunkSize != 2000 || cfg.ChunkOverlap != 200 {
		t.Fatalf("chunk defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.MapConcurrency != 4 {
		t.Fatalf("invalid int should fall back, got %d", cfg.MapConcurrency)
	}
	if cfg.DocumentTimeout != 90*time.Second {
		t.Fatalf("timeout = %v", cfg.DocumentTimeout)
	}
	if strings.Join(cfg.CORSOrigins, "|") != "https://a.test|https://b.test" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
}

func validS3() *Config {
	return &Config{
		LLMProvider:  "openai",
		OpenAIAPIKey: "sk",
		FileStore:    "s3",
		AwsAccessKey: "a",
		AwsSecretKey: "b",
		BucketName:   "docs",
		ChunkSize:    2000,
		ChunkOverlap: 200,
	}
}

func TestValidate(t *testing.T) {
	if err := validS3().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing provider key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.LLMProvider = "llama" }, "LLM_PROVIDER"},
		{"missing bucket", func(c *Config) { c.BucketName = "" }, "BUCKET_NAME"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 2000 }, "CHUNK_OVERLAP"},
		{"drive without oauth", func(c *Config) { c.FileStore = "drive" }, "GOOGLE_CLIENT_ID"},
		{"drive short secret", func(c *Config) {
			c.FileStore = "drive"
			c.GoogleClientID, c.GoogleClientSecret, c.DriveFolderID = "id", "secret", "folder"
			c.SessionSecret = "short"
		}, "SESSION_SECRET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validS3()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateReportsUnparsableValues(t *testing.T) {
	for k, v := range map[string]string{
		"LLM_PROVIDER":   "openai",
		"OPENAI_API_KEY": "sk",
		"FILE_STORE":     "s3",
		"AWS_ACCESS_KEY": "a",
		"AWS_SECRET_KEY": "b",
		"BUCKET_NAME":    "docs",
		"CHUNK_OVERLAP":  "",
		"CHUNK_SIZE":     "2k",
		"SESSION_TTL":    "1day",
	} {
		t.Setenv(k, v)
	}

	cfg := LoadConfig()
	if cfg.ChunkSize != 2000 || cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("unparsable values should still fall back, got %d/%v", cfg.ChunkSize, cfg.SessionTTL)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected unparsable values to be reported")
	}
	for _, want := range []string{`CHUNK_SIZE="2k"`, `SESSION_TTL="1day"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}

	t.Setenv("CHUNK_SIZE", "3000")
	t.Setenv("SESSION_TTL", "12h")
	if err := LoadConfig().Validate(); err != nil {
		t.Fatalf("clean config rejected: %v", err)
	}
}
