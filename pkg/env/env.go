// Package env holds small lookups for settings that live outside the
// envconfig-managed Config, such as log formatting.
package env

import "os"

// Get reads key from the process environment, falling back when the
// variable is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
