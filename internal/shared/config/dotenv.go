package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var defaultEnvFiles = []string{".env", "cmd/.env"}

// envFiles returns ENV_FILES (comma separated) when set, otherwise the
// default local files.
func envFiles() []string {
	if raw := strings.TrimSpace(os.Getenv("ENV_FILES")); raw != "" {
		return splitAndTrim(raw)
	}
	return defaultEnvFiles
}

// loadEnvFiles loads KEY=VALUE pairs from every existing file and returns
// the ones it read. Variables already present in the environment win, and a
// malformed file is skipped.
func loadEnvFiles(paths ...string) (loaded []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}
