package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"SOLACE_INJECTED_API", "SOLACE_HOST", "SOLACE_STORE", "SOLACE_SEAL_SECRET",
		"SOLACE_DIAG_ADDR", "SOLACE_REQUEST_TIMEOUT", "SOLACE_CHAT_TIMEOUT", "SOLACE_PROBE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Empty(t, cfg.InjectedAPI)
	assert.NotEmpty(t, cfg.Host)
	assert.Contains(t, cfg.StorePath, "solace.db")
	assert.NotEmpty(t, cfg.SealSecret)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SOLACE_INJECTED_API", "https://injected.example")
	t.Setenv("SOLACE_HOST", "workstation-42")
	t.Setenv("SOLACE_STORE", "/tmp/cache.db")
	t.Setenv("SOLACE_REQUEST_TIMEOUT", "2s")

	cfg := FromEnv()

	assert.Equal(t, "https://injected.example", cfg.InjectedAPI)
	assert.Equal(t, "workstation-42", cfg.Host)
	assert.Equal(t, "/tmp/cache.db", cfg.StorePath)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestDurationFromEnv_RejectsInvalidValues(t *testing.T) {
	t.Setenv("SOLACE_REQUEST_TIMEOUT", "not-a-duration")
	assert.Equal(t, 10*time.Second, FromEnv().RequestTimeout)

	t.Setenv("SOLACE_REQUEST_TIMEOUT", "-5s")
	assert.Equal(t, 10*time.Second, FromEnv().RequestTimeout)
}
