// internal/config/env.go
package config

import (
	"os"
	"strconv"
)

// Env reads an environment variable or returns a default value.
func Env(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// EnvInt parses an environment variable as an integer, else a default value.
func EnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
