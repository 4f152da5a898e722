package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// OneOf returns the lower-cased value of key when it is one of allowed, fallback otherwise.
func OneOf(key, fallback string, allowed ...string) string {
	val := strings.ToLower(Get(key, fallback))
	for _, candidate := range allowed {
		if val == candidate {
			return val
		}
	}
	return fallback
}
