package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the bounds for every readiness wait in a run.
// These values can be customized via environment variables.
type Timeouts struct {
	ServerActive      time.Duration // Waiting for a server to reach ACTIVE
	ContainerStart    time.Duration // Waiting for a peer container to report running
	DaemonReady       time.Duration // Waiting for vtysh to answer after bgpd starts
	BGPSession        time.Duration // Waiting for the BGP neighbor to reach Established
	PollInterval      time.Duration // Interval between readiness checks
	SSHDial           time.Duration // TCP dial timeout for the probe
	RetryMaxAttempts  int           // SSH connection attempts for the probe
	RetryInitialDelay time.Duration // Initial delay between SSH connection attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - BGPLAB_TIMEOUT_SERVER_ACTIVE (default: 10m)
//   - BGPLAB_TIMEOUT_CONTAINER_START (default: 1m)
//   - BGPLAB_TIMEOUT_DAEMON_READY (default: 2m)
//   - BGPLAB_TIMEOUT_BGP_SESSION (default: 2m)
//   - BGPLAB_POLL_INTERVAL (default: 2s)
//   - BGPLAB_TIMEOUT_SSH_DIAL (default: 10s)
//   - BGPLAB_RETRY_MAX_ATTEMPTS (default: 5)
//   - BGPLAB_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerActive:      parseDuration("BGPLAB_TIMEOUT_SERVER_ACTIVE", 10*time.Minute),
		ContainerStart:    parseDuration("BGPLAB_TIMEOUT_CONTAINER_START", 1*time.Minute),
		DaemonReady:       parseDuration("BGPLAB_TIMEOUT_DAEMON_READY", 2*time.Minute),
		BGPSession:        parseDuration("BGPLAB_TIMEOUT_BGP_SESSION", 2*time.Minute),
		PollInterval:      parseDuration("BGPLAB_POLL_INTERVAL", 2*time.Second),
		SSHDial:           parseDuration("BGPLAB_TIMEOUT_SSH_DIAL", 10*time.Second),
		RetryMaxAttempts:  parseInt("BGPLAB_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("BGPLAB_RETRY_INITIAL_DELAY", 2*time.Second),
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
	if err != nil || d <= 0 {
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
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
