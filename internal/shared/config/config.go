package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	PublicBaseURL   string
	JWTSecret       string

	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	ImageURLTTL     time.Duration

	ReportStore   string
	UsageStore    string
	RedisURL      string
	UsageTimezone string

	OCR OCRConfig
	LLM LLMConfig
}

// OCRConfig selects and tunes the text-recognition backend.
type OCRConfig struct {
	Backend       string
	Endpoint      string
	Key           string
	Model         string
	APIVersion    string
	PollInterval  time.Duration
	MaxPolls      int
	DailyLimit    int
	MaxAttempts   int
	RetryDelay    time.Duration
	Backoff       string
	TesseractBin  string
	TesseractLang string
}

// LLMConfig configures the chat-completions client used for product checks.
type LLMConfig struct {
	APIURL      string
	APIKey      string
	Model       string
	DailyLimit  int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	port := getEnv("PORT", "8080")
	reportStore := normalizeReportStore(getEnv("REPORT_STORE", ""), dbURL)

	return Config{
		Port:            port,
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:19006,http://localhost:8081")),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+strings.TrimPrefix(port, ":")), "/"),
		JWTSecret:       getEnv("JWT_SECRET", ""),

		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		ImageURLTTL:     getEnvDuration("IMAGE_URL_TTL", time.Hour),

		ReportStore:   reportStore,
		UsageStore:    normalizeUsageStore(getEnv("USAGE_STORE", ""), dbURL),
		RedisURL:      getEnv("REDIS_URL", ""),
		UsageTimezone: getEnv("USAGE_TIMEZONE", "UTC"),

		OCR: OCRConfig{
			Backend:       normalizeOCRBackend(getEnv("OCR_BACKEND", "azure")),
			Endpoint:      strings.TrimRight(getEnv("DOC_ENDPOINT", ""), "/"),
			Key:           getEnv("DOC_KEY", ""),
			Model:         getEnv("DOC_MODEL", "prebuilt-read"),
			APIVersion:    getEnv("DOC_API_VERSION", "2023-07-31"),
			PollInterval:  getEnvDuration("OCR_POLL_INTERVAL", time.Second),
			MaxPolls:      getEnvInt("OCR_MAX_POLLS", 30),
			DailyLimit:    getEnvInt("OCR_DAILY_LIMIT", 500),
			MaxAttempts:   getEnvInt("OCR_MAX_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("OCR_RETRY_DELAY", 2*time.Second),
			Backoff:       getEnv("OCR_BACKOFF", "exponential"),
			TesseractBin:  getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		},
		LLM: LLMConfig{
			APIURL:      getEnv("LLM_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
			APIKey:      firstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("OPENROUTER_API_KEY")),
			Model:       getEnv("LLM_MODEL", "gpt-3.5-turbo:free"),
			DailyLimit:  getEnvInt("LLM_DAILY_LIMIT", getEnvInt("DAILY_LIMIT", 50)),
			MaxAttempts: getEnvInt("LLM_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvDuration("LLM_RETRY_DELAY", 4*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeOCRBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tesseract", "local":
		return "tesseract"
	default:
		return "azure"
	}
}

// normalizeReportStore defaults to postgres when a database is configured.
func normalizeReportStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "object", "file":
		return "object"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "object"
}

func normalizeUsageStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}
