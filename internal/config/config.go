package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// Query executor credentials. Injected at startup so nothing reads the
	// environment inside request handling.
	LangfuseBaseURL   string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseProjectID string

	// Optional SQL executor. When SQLDriver is set the service queries the
	// configured SQL source instead of the Langfuse API.
	SQLDriver string // "postgres" or "mysql"
	SQLDSN    string

	// Trace preview pagination bound. Sources with more matching rows than
	// PreviewMaxPages*PreviewPageSize undercount; this is a documented
	// contract, not a bug.
	PreviewMaxPages int
	PreviewPageSize int

	// Delay between widget fetches inside one dashboard refresh cycle.
	RefreshPacing time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8000"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-insight"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-insight"),

		LangfuseBaseURL:   getEnv("LANGFUSE_BASE_URL", "http://localhost:3000/api/public"),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseProjectID: getEnv("LANGFUSE_PROJECT_ID", ""),

		SQLDriver: getEnv("SQL_DRIVER", ""),
		SQLDSN:    getEnv("SQL_DSN", ""),

		PreviewMaxPages: getEnvInt("PREVIEW_MAX_PAGES", 10),
		PreviewPageSize: getEnvInt("PREVIEW_PAGE_SIZE", 100),
		RefreshPacing:   time.Duration(getEnvInt("REFRESH_PACING_MS", 100)) * time.Millisecond,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d\n", key, fallback)
	}
	return fallback
}
