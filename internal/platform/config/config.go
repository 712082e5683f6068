package config

import (
	"os"
	"path/filepath"
	"time"
)

// Client captures process-level configuration for the companion client.
type Client struct {
	// InjectedAPI is a backend base URL injected by a trusted host
	// environment, the highest-priority endpoint source.
	InjectedAPI string
	// Host is the name the client believes it is running on; loopback
	// hosts resolve to the local development backend.
	Host string
	// StorePath is the durable local cache location.
	StorePath string
	// SealSecret derives the key that seals the credential token at rest.
	SealSecret string
	// DiagAddr is the local diagnostics listener address; empty disables it.
	DiagAddr string

	RequestTimeout time.Duration
	ChatTimeout    time.Duration
	ProbeTimeout   time.Duration
}

var (
	defaultRequestTimeout = 10 * time.Second
	defaultChatTimeout    = 30 * time.Second
	defaultProbeTimeout   = 5 * time.Second
)

// FromEnv builds a Client config from environment variables so main stays lean.
func FromEnv() Client {
	host := os.Getenv("SOLACE_HOST")
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host = h
		} else {
			host = "localhost"
		}
	}

	storePath := os.Getenv("SOLACE_STORE")
	if storePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		storePath = filepath.Join(home, ".solace", "solace.db")
	}

	sealSecret := os.Getenv("SOLACE_SEAL_SECRET")
	if sealSecret == "" {
		// Development default - should be overridden in real installs.
		sealSecret = "dev-seal-secret-change-me"
	}

	return Client{
		InjectedAPI:    os.Getenv("SOLACE_INJECTED_API"),
		Host:           host,
		StorePath:      storePath,
		SealSecret:     sealSecret,
		DiagAddr:       os.Getenv("SOLACE_DIAG_ADDR"),
		RequestTimeout: durationFromEnv("SOLACE_REQUEST_TIMEOUT", defaultRequestTimeout),
		ChatTimeout:    durationFromEnv("SOLACE_CHAT_TIMEOUT", defaultChatTimeout),
		ProbeTimeout:   durationFromEnv("SOLACE_PROBE_TIMEOUT", defaultProbeTimeout),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
