package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Store     StoreConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit string
}

type ServerConfig struct {
	Port    string
	BaseURL string
}

type MongoConfig struct {
	URI    string
	DBName string
}

type StoreConfig struct {
	// Driver selects the persistence backend: "mongo" or "memory".
	Driver         string
	TimeoutSeconds int
}

type CORSConfig struct {
	Origins []string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "3000"),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:3000"),
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGODB_DB_NAME", "tracechain"),
		},
		Store: StoreConfig{
			Driver:         getEnv("STORE_DRIVER", "mongo"),
			TimeoutSeconds: getEnvInt("STORE_TIMEOUT_SECONDS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		CORS: CORSConfig{
			Origins: getEnvSlice("CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:8000",
				"http://localhost:5500",
				"http://127.0.0.1:8000",
			}),
		},
		RateLimit: getEnv("RATE_LIMIT", "100-M"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
