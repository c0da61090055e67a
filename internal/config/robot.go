// Package config provides configuration helpers for go-pepper commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default robot configuration.
const (
	DefaultPepperPort = "9559"
	DefaultSSHUser    = "nao"
	DefaultSSHPass    = "nao"
)

// PepperIP returns the robot IP from PEPPER_IP env var.
// Falls back to the provided default if not set.
func PepperIP(defaultIP string) string {
	if ip := os.Getenv("PEPPER_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// PepperIPRequired returns the robot IP from PEPPER_IP env var.
// Exits with a usage message if not set.
func PepperIPRequired() string {
	ip := os.Getenv("PEPPER_IP")
	if ip == "" {
		fmt.Fprintln(os.Stderr, "Error: PEPPER_IP environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: PEPPER_IP=10.51.200.219 go run ./cmd/pepper")
		os.Exit(1)
	}
	return ip
}

// PepperAPIURL returns the robot bridge HTTP API URL.
func PepperAPIURL(pepperIP string) string {
	return fmt.Sprintf("http://%s:%s", pepperIP, DefaultPepperPort)
}

// GroqAPIKey returns the Groq API key from GROQ_API_KEY env var.
// Exits with a usage message if not set.
func GroqAPIKey() string {
	key := os.Getenv("GROQ_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: GROQ_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Get one at https://console.groq.com and add it to .env")
		os.Exit(1)
	}
	return key
}

// ElevenLabsAPIKey returns the ElevenLabs API key, empty if unset.
// The synthesis chain skips the ElevenLabs tier when empty.
func ElevenLabsAPIKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

// SSHUser returns the SSH username from PEPPER_SSH_USER env var or default.
func SSHUser() string {
	if user := os.Getenv("PEPPER_SSH_USER"); user != "" {
		return user
	}
	return DefaultSSHUser
}

// SSHPass returns the SSH password from PEPPER_SSH_PASS env var or default.
func SSHPass() string {
	if pass := os.Getenv("PEPPER_SSH_PASS"); pass != "" {
		return pass
	}
	return DefaultSSHPass
}

// Duration returns a time.Duration from an env var holding seconds,
// or the default when unset or unparseable.
func Duration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

// Int returns an int from an env var, or the default when unset or
// unparseable.
func Int(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
