package env

import (
	"os"
	"strings"
)

// Get reads an environment variable, falling back when it is unset or
// whitespace only.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
