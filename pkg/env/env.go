// Package env reads individual environment variables for the few spots
// that need a value before the full config is loaded.
package env

import "os"

// Get looks up key and falls back to the provided default when the
// variable is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
