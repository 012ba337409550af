// Package env reads process settings that must be known before config.Load,
// such as the log format used for config errors.
package env

import (
	"os"
	"strings"
)

const prefix = "PACKFINDERZ_"

// Get returns PACKFINDERZ_<key>, then the bare key, then fallback. Blank
// values count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
