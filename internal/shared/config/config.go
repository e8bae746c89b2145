package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	DB              DBPool
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider  string
	LLMModel     string
	GeminiAPIKey string
	OpenAIAPIKey string
	LLMTimeout   time.Duration

	DecisionTimeout    time.Duration
	ScreeningWorkers   int
	ScreeningQueueSize int
	ScreeningQueueURL  string

	// QueueVisibility is how long a received message stays hidden from
	// other workers.
	QueueVisibility time.Duration
	ShutdownTimeout time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration

	NotifyProvider string
	NotifyTimeout  time.Duration
	SMTP           SMTPConfig
	Gmail          GmailConfig

	LogFormat string
	LogLevel  string
}

// DBPool holds optional connection pool overrides. Zero fields keep the
// defaults of the process profile.
type DBPool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// SMTPConfig describes the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// Configured reports whether enough settings exist to attempt delivery.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// GmailConfig points at the OAuth client secret and cached user token.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Sender          string
}

// Load reads configuration from .env files and environment variables with defaults.
func Load() Config {
	for _, path := range loadEnvFiles(envFiles()...) {
		log.Printf("loaded env file %s", path)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	secret := strings.TrimSpace(v.GetString("JWT_SECRET"))
	if env == "production" && secret == "" {
		log.Printf("JWT_SECRET is required in production")
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		DatabaseURL:     dbURL,
		DB: DBPool{
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			PingTimeout:     v.GetDuration("DB_PING_TIMEOUT"),
		},
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),

		LLMProvider:  normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:     strings.TrimSpace(v.GetString("LLM_MODEL")),
		GeminiAPIKey: firstNonEmpty(v.GetString("GOOGLE_API_KEY"), v.GetString("GEMINI_API_KEY")),
		OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
		LLMTimeout:   v.GetDuration("LLM_TIMEOUT"),

		DecisionTimeout:    v.GetDuration("SCREENING_DECISION_TIMEOUT"),
		ScreeningWorkers:   positiveInt(v.GetInt("SCREENING_WORKERS"), 4),
		ScreeningQueueSize: positiveInt(v.GetInt("SCREENING_QUEUE_SIZE"), 100),
		ScreeningQueueURL:  strings.TrimSpace(v.GetString("SCREENING_QUEUE_URL")),
		QueueVisibility:    time.Duration(positiveInt(v.GetInt("SQS_VISIBILITY_TIMEOUT_SECONDS"), 300)) * time.Second,
		ShutdownTimeout:    time.Duration(positiveInt(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"), 30)) * time.Second,

		JWTSecret:      secret,
		AccessTokenTTL: time.Duration(positiveInt(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES"), 30)) * time.Minute,

		NotifyProvider: normalizeNotifyProvider(v.GetString("NOTIFY_PROVIDER")),
		NotifyTimeout:  v.GetDuration("NOTIFY_TIMEOUT"),
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(v.GetString("SMTP_HOST")),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     firstNonEmpty(v.GetString("SMTP_FROM"), v.GetString("SMTP_USERNAME")),
			UseTLS:   v.GetBool("SMTP_USE_TLS"),
		},
		Gmail: GmailConfig{
			CredentialsFile: v.GetString("GMAIL_CREDENTIALS_FILE"),
			TokenFile:       v.GetString("GMAIL_TOKEN_FILE"),
			Sender:          v.GetString("GMAIL_SENDER"),
		},

		LogFormat: v.GetString("LOG_FORMAT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("LLM_TIMEOUT", "45s")
	v.SetDefault("SCREENING_DECISION_TIMEOUT", "60s")
	v.SetDefault("SCREENING_WORKERS", 4)
	v.SetDefault("SCREENING_QUEUE_SIZE", 100)
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("NOTIFY_PROVIDER", "log")
	v.SetDefault("NOTIFY_TIMEOUT", "30s")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USE_TLS", true)
	v.SetDefault("GMAIL_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("GMAIL_TOKEN_FILE", "token.json")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func positiveInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
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

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "off", "disabled":
		return "none"
	default:
		return "gemini"
	}
}

func normalizeNotifyProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "smtp":
		return "smtp"
	case "gmail":
		return "gmail"
	default:
		return "log"
	}
}

// IsDevLike reports whether env permits in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
