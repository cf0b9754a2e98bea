package config

import "os"

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string
	AppMode    string

	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	EmbeddingModel string

	ScorerBaseURL string

	ResetIntervalHours string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "hinteval_user"),
		DBPassword: getEnv("DB_PASS", "secure_university_password"),
		DBName:     getEnv("DB_NAME", "hinteval_db"),

		ServerPort: getEnv("SERVER_PORT", "8001"),
		AppMode:    getEnv("APP_MODE", "dev"),

		LLMAPIKey:      getEnv("TOGETHER_API_KEY", ""),
		LLMBaseURL:     getEnv("TOGETHER_BASE_URL", "https://api.together.xyz/v1"),
		LLMModel:       getEnv("HINTEVAL_MODEL", "meta-llama/Meta-Llama-3-8B-Instruct-Lite"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "BAAI/bge-large-en-v1.5"),

		ScorerBaseURL: getEnv("SCORER_BASE_URL", "http://localhost:8002"),

		ResetIntervalHours: getEnv("RESET_INTERVAL_HOURS", "0"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
