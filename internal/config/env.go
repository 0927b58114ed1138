package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	LogMode string
	BaseURL string

	// text generation
	LLMProvider     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GenModel        string
	LLMBaseURL      string
	LLMRPM          int
	LLMMaxInFlight  int
	LLMRetries      int

	// summarization
	ChunkSize        int
	ChunkOverlap     int
	SingleMaxTokens  int
	MapMaxTokens     int
	ReduceMaxTokens  int
	MapConcurrency   int
	BatchConcurrency int
	DocumentTimeout  time.Duration
	RequestTimeout   time.Duration
	MaxUploadMB      int

	// file store
	FileStore     string
	DriveFolderID string
	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
	BucketName    string
	S3Prefix      string

	// auth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	SessionSecret      string
	SessionTTL         time.Duration
	DatabaseURL        string

	CORSOrigins []string
	OtelTraces  string

	// parseErrs holds values that were set but did not parse.
	parseErrs []error
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()
	env := &envReader{}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		LogMode: getEnv("LOG_MODE", "dev"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GenModel:        getEnv("GEN_MODEL", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMRPM:          env.getInt("LLM_RPM", 60),
		LLMMaxInFlight:  env.getInt("LLM_MAX_INFLIGHT", 4),
		LLMRetries:      env.getInt("LLM_RETRY_ATTEMPTS", 4),

		ChunkSize:        env.getInt("CHUNK_SIZE", 2000),
		ChunkOverlap:     env.getInt("CHUNK_OVERLAP", 200),
		SingleMaxTokens:  env.getInt("SINGLE_MAX_TOKENS", 300),
		MapMaxTokens:     env.getInt("MAP_MAX_TOKENS", 250),
		ReduceMaxTokens:  env.getInt("REDUCE_MAX_TOKENS", 350),
		MapConcurrency:   env.getInt("MAP_CONCURRENCY", 4),
		BatchConcurrency: env.getInt("BATCH_CONCURRENCY", 2),
		DocumentTimeout:  env.getDuration("DOCUMENT_TIMEOUT", 5*time.Minute),
		RequestTimeout:   env.getDuration("REQUEST_TIMEOUT", 15*time.Minute),
		MaxUploadMB:      env.getInt("MAX_UPLOAD_MB", 25),

		FileStore:     strings.ToLower(getEnv("FILE_STORE", "drive")),
		DriveFolderID: getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
		BucketName:    getEnv("BUCKET_NAME", ""),
		S3Prefix:      getEnv("S3_PREFIX", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/oauth2callback"),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         env.getDuration("SESSION_TTL", 24*time.Hour),
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8888"}),
		OtelTraces:  strings.ToLower(getEnv("OTEL_TRACES", "none")),
	}
	cfg.parseErrs = env.errs
	return cfg
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY not set"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY not set"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of gemini, openai, anthropic", c.LLMProvider))
	}

	switch c.FileStore {
	case "drive":
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set for FILE_STORE=drive"))
		}
		if c.DriveFolderID == "" {
			errs = append(errs, errors.New("GOOGLE_DRIVE_FOLDER_ID not set"))
		}
		if len(c.SessionSecret) < 16 {
			errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
		}
	case "s3":
		if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
			errs = append(errs, errors.New("AWS credentials not set"))
		}
		if c.BucketName == "" {
			errs = append(errs, errors.New("BUCKET_NAME not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORE %q is not one of drive, s3", c.FileStore))
	}

	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP (%d) must be in [0, CHUNK_SIZE=%d)", c.ChunkOverlap, c.ChunkSize))
	}
	return errors.Join(errs...)
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// envReader falls back to the default for unparsable values and remembers
// them so Validate can report them.
type envReader struct {
	errs []error
}

func (e *envReader) getInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q is not an integer", key, v))
		return def
	}
	return n
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q is not a duration (e.g. 90s, 5m)", key, v))
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
