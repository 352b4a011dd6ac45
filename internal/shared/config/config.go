package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	OutputDir          string
	AuditLogPath       string
	MaxUploadBytes     int64
	ExposeErrorDetails bool
	GenerationsAPI     bool

	TranscribeProvider string
	TranscribeLanguage string
	TranscribeModel    string
	WhisperServerURL   string
	TranscribeTimeout  time.Duration

	LLMProvider string
	LLMModel    string
	LLMTimeout  time.Duration

	OpenAIAPIKey string
	GeminiAPIKey string

	ArchiveStore  string
	LocalStoreDir string
	AWSRegion     string
	S3Bucket      string
	S3Prefix      string
	SSEKMSKeyID   string

	DatabaseURL   string
	EventQueueURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	if files := existing(".env", "cmd/.env"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is empty in production; generations are kept in memory")
	}

	return Config{
		Port:               getEnv("PORT", "8000"),
		Env:                env,
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		OutputDir:          getEnv("OUTPUT_DIR", "data/output"),
		AuditLogPath:       getEnv("AUDIT_LOG_PATH", "data/test_logs.csv"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 25)) << 20,
		ExposeErrorDetails: getEnvBool("EXPOSE_ERROR_DETAILS", true),
		GenerationsAPI:     getEnvBool("GENERATIONS_API_ENABLED", false),
		TranscribeProvider: normalizeProvider(getEnv("TRANSCRIBE_PROVIDER", "whispercpp")),
		TranscribeLanguage: getEnv("TRANSCRIBE_LANGUAGE", "fr"),
		TranscribeModel:    getEnv("TRANSCRIBE_MODEL", ""),
		WhisperServerURL:   getEnv("WHISPER_SERVER_URL", "http://127.0.0.1:8080"),
		TranscribeTimeout:  getEnvDuration("TRANSCRIBE_TIMEOUT", 120*time.Second),
		LLMProvider:        normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:           getEnv("LLM_MODEL", ""),
		LLMTimeout:         getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		ArchiveStore:       normalizeStoreType(getEnv("ARCHIVE_STORE", "none")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data/archive"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:        dbURL,
		EventQueueURL:      getEnv("CV_EVENTS_SQS_QUEUE_URL", ""),
	}
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
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
	if err != nil || val <= 0 {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config %s invalid bool %q, using %t", key, raw, def)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
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

func normalizeProvider(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return "none"
	}
}
