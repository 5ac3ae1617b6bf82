package cloud

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(fmt.Errorf("connection refused")))
	assert.True(t, IsRateLimitError(fmt.Errorf("Error 429, Message: too many requests")))
	assert.True(t, IsRateLimitError(fmt.Errorf("Status: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(fmt.Errorf("quota exceeded for model")))
}

func TestExtractRetryDelay(t *testing.T) {
	err := fmt.Errorf("Error 429, Message: rate limited. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	delay := ExtractRetryDelay(err)
	assert.InDelta(t, 45.387, delay.Seconds(), 0.001)

	err = fmt.Errorf("retryDelay: 30s")
	assert.Equal(t, 30*time.Second, ExtractRetryDelay(err))

	assert.Equal(t, time.Duration(0), ExtractRetryDelay(fmt.Errorf("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// No API delay: starts at InitialBackoff, grows by the multiplier.
	first := cfg.CalculateBackoff(0, 0)
	second := cfg.CalculateBackoff(1, 0)
	assert.Equal(t, cfg.InitialBackoff, first)
	assert.Greater(t, second, first)

	// API-provided delay becomes the base plus a small buffer.
	withAPI := cfg.CalculateBackoff(0, 20*time.Second)
	assert.Equal(t, 25*time.Second, withAPI)

	// Capped at MaxBackoff.
	capped := cfg.CalculateBackoff(10, 0)
	assert.Equal(t, cfg.MaxBackoff, capped)
}
