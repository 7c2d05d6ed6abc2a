package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all process configuration. It is built once at startup and
// passed by injection; nothing reads env vars after Load returns.
type Config struct {
	Port                 string
	AllowedOrigins       []string
	FrontendURL          string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	RedisAddr            string
	RedisPassword        string
	Auth                 AuthConfig
	OAuth                OAuthConfig
}

// AuthConfig is the immutable signing configuration consumed by the token
// issuer and the request authenticator.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
	TokenTTL  time.Duration
}

func Load() *Config {
	port := GetEnv("PORT", "8080")

	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")
	allowedOriginsStr := GetEnv("ALLOWED_ORIGINS", "")

	// Build allowed origins list (Frontend URL + localhost + CSV values)
	allowedOrigins := []string{
		frontendURL,
		"http://localhost:5173",
	}
	if allowedOriginsStr != "" {
		extras := strings.Split(allowedOriginsStr, ",")
		for _, origin := range extras {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	dbURL := GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", ""))
	dbMaxOpenConns := GetEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	dbMaxIdleConns := GetEnvAsInt("DB_MAX_IDLE_CONNS", 25)
	dbConnMaxLifetimeMin := GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	auth := AuthConfig{
		JWTSecret: GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		Issuer:    GetEnv("JWT_ISSUER", "medagenda"),
		Audience:  GetEnv("JWT_AUDIENCE", "medagenda-api"),
		TokenTTL:  time.Duration(GetEnvAsInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
	}

	return &Config{
		Port:                 port,
		AllowedOrigins:       allowedOrigins,
		FrontendURL:          frontendURL,
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       dbMaxOpenConns,
		DBMaxIdleConns:       dbMaxIdleConns,
		DBConnMaxLifetimeMin: dbConnMaxLifetimeMin,
		RedisAddr:            GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:        GetEnv("REDIS_PASSWORD", ""),
		Auth:                 auth,
		OAuth:                LoadOAuthConfig(),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
