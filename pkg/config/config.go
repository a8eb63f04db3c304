package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string
	// IsGroqEnabled is a flag to enable/disable Groq API usage (enum: "1" or "0")
	IsGroqEnabled bool

	TelegramBotToken    string
	TelegramGroupID     string
	TelegramBotUsername string
	TelegramAPIBase     string

	PaymentSecretKey string
	PaymentAPIBase   string

	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret string
	Port      string

	DatabasePath string

	// runtime tunables
	RateLimitWindowSeconds  int
	RateLimitCapacity       int
	DuplicateWindowSeconds  int
	AnalysisCacheTTLSeconds int
	AnalysisCacheMaxItems   int
)

// loadAppEnv loads .env only outside production; production reads host env.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	GroqAPIKey = os.Getenv("GROQ_API_KEY")
	GroqModel = os.Getenv("GROQ_MODEL")
	GroqBaseURL = os.Getenv("GROQ_BASE_URL")
	IsGroqEnabled = os.Getenv("IS_GROQ_ENABLED") == "1"

	TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	TelegramGroupID = os.Getenv("TELEGRAM_GROUP_ID")
	TelegramBotUsername = os.Getenv("TELEGRAM_BOT_USERNAME")
	TelegramAPIBase = os.Getenv("TELEGRAM_API_BASE")

	PaymentSecretKey = os.Getenv("PAYMENT_SECRET_KEY")
	PaymentAPIBase = os.Getenv("PAYMENT_API_BASE")

	AppEnv = os.Getenv("APP_ENV")
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Printf("[config] APP_ENV is %q, defaulting to staging", AppEnv)
		AppEnv = "staging"
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	if GroqModel == "" {
		GroqModel = "llama-3.1-70b-versatile"
	}
	if GroqBaseURL == "" {
		GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if TelegramAPIBase == "" {
		TelegramAPIBase = "https://api.telegram.org"
	}
	if PaymentAPIBase == "" {
		PaymentAPIBase = "https://api.paystack.co"
	}

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}
	DatabasePath = os.Getenv("DATABASE_PATH")
	if DatabasePath == "" {
		DatabasePath = "app.db"
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	AnalysisCacheTTLSeconds = atoiOr(os.Getenv("ANALYSIS_CACHE_TTL_SECONDS"), 600)
	AnalysisCacheMaxItems = atoiOr(os.Getenv("ANALYSIS_CACHE_MAX_ITEMS"), 500)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] IsGroqEnabled=%v GroqAPIKeyPresent=%v GroqModel=%s", IsGroqEnabled, GroqAPIKey != "", GroqModel)
	log.Printf("[config] TelegramConfigured=%v", TelegramBotToken != "" && TelegramGroupID != "")
	log.Printf("[config] RateLimit window=%ds capacity=%d dupWindow=%ds cacheTTL=%ds cacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, DuplicateWindowSeconds, AnalysisCacheTTLSeconds, AnalysisCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
