package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	baseURLVar     = "TASKGRID_API_URL"
	timeoutVar     = "TASKGRID_HTTP_TIMEOUT"
	sessionFileVar = "TASKGRID_SESSION_FILE"
	logLevelVar    = "TASKGRID_LOG_LEVEL"
)

// Config supplies the client's runtime settings.
type Config interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetSessionFile() string
	GetLogLevel() string
}

// EnvVars reads settings from the environment with sensible defaults.
type EnvVars struct{}

var _ Config = EnvVars{}

// New returns the environment-backed configuration.
func New() Config {
	return EnvVars{}
}

func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8000/api")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	raw := GetEnv(timeoutVar, "30s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (EnvVars) GetSessionFile() string {
	if path := os.Getenv(sessionFileVar); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskgrid/session.json"
	}
	return filepath.Join(home, ".taskgrid", "session.json")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "warn")
}

// GetEnv returns the environment variable's value, or defaultValue when it
// is unset or empty.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
