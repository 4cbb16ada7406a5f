package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	PollInterval      time.Duration // Interval between experiment status polls
	Provision         time.Duration // Cap on waiting for the experiment to become ready
	SSHDial           time.Duration // Timeout for a single SSH dial
	SSHRetries        int           // SSH connect attempts before giving up
	Command           time.Duration // Timeout for a single remote command
	SetupWaitInterval time.Duration // Interval between repository-path existence probes
	SetupWait         time.Duration // Cap on waiting for the repository path
	Setup             time.Duration // Cap on the node setup command chain
	Terminate         time.Duration // Cap on experiment termination
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - POWDER_POLL_INTERVAL (default: 20s)
//   - POWDER_TIMEOUT_PROVISION (default: 30m)
//   - POWDER_TIMEOUT_SSH_DIAL (default: 15s)
//   - POWDER_SSH_RETRIES (default: 4)
//   - POWDER_TIMEOUT_COMMAND (default: 60s)
//   - POWDER_SETUP_WAIT_INTERVAL (default: 10s)
//   - POWDER_TIMEOUT_SETUP_WAIT (default: 5m)
//   - POWDER_TIMEOUT_SETUP (default: 20m)
//   - POWDER_TIMEOUT_TERMINATE (default: 5m)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:      parseDuration("POWDER_POLL_INTERVAL", 20*time.Second),
		Provision:         parseDuration("POWDER_TIMEOUT_PROVISION", 30*time.Minute),
		SSHDial:           parseDuration("POWDER_TIMEOUT_SSH_DIAL", 15*time.Second),
		SSHRetries:        parseInt("POWDER_SSH_RETRIES", 4),
		Command:           parseDuration("POWDER_TIMEOUT_COMMAND", 60*time.Second),
		SetupWaitInterval: parseDuration("POWDER_SETUP_WAIT_INTERVAL", 10*time.Second),
		SetupWait:         parseDuration("POWDER_TIMEOUT_SETUP_WAIT", 5*time.Minute),
		Setup:             parseDuration("POWDER_TIMEOUT_SETUP", 20*time.Minute),
		Terminate:         parseDuration("POWDER_TIMEOUT_TERMINATE", 5*time.Minute),
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
