package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Clone             time.Duration // Timeout for one clone task, template copy included
	Configure         time.Duration // Timeout for applying cloud-init parameters
	Start             time.Duration // Timeout for the VM start task
	TaskPollInterval  time.Duration // Base interval between task status polls
	RetryMaxAttempts  int           // Maximum number of retry attempts for transient API errors
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - PVE_TIMEOUT_CLONE (default: 15m, slow storage needs headroom)
//   - PVE_TIMEOUT_CONFIGURE (default: 2m)
//   - PVE_TIMEOUT_START (default: 2m)
//   - PVE_TASK_POLL_INTERVAL (default: 2s)
//   - PVE_RETRY_MAX_ATTEMPTS (default: 5)
//   - PVE_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Clone:             parseDuration("PVE_TIMEOUT_CLONE", 15*time.Minute),
		Configure:         parseDuration("PVE_TIMEOUT_CONFIGURE", 2*time.Minute),
		Start:             parseDuration("PVE_TIMEOUT_START", 2*time.Minute),
		TaskPollInterval:  parseDuration("PVE_TASK_POLL_INTERVAL", 2*time.Second),
		RetryMaxAttempts:  parseInt("PVE_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("PVE_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
