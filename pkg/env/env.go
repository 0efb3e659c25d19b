package env

import "os"

// Get returns the environment variable value, or fallback when unset or empty.
// Empty values count as unset so a blank export never masks the default.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
