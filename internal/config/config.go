package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Identity provider (Supabase)
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Completion API (OpenAI-compatible)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Redis (optional, backs the auth rate limiter)
	RedisURL string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "5000"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        mustGetEnv("DATABASE_URL"),
		SupabaseURL:        mustGetEnv("SUPABASE_URL"),
		SupabaseServiceKey: mustGetEnv("SUPABASE_SERVICE_KEY"),
		SupabaseJWTSecret:  getEnvOrDefault("SUPABASE_JWT_SECRET", ""),
		OpenAIAPIKey:       mustGetEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:      getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
