package config

import (
	"os"
	"strconv"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/utils"
)

// GetEnv reads an environment variable with a default fallback.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt falls back to the default when the value is not an integer.
func GetEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts anything time.ParseDuration does.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvList splits a comma separated variable, dropping empty items.
func GetEnvList(key string) []string {
	return utils.SplitList(os.Getenv(key))
}
