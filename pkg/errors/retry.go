package errors

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
	}
}

// Delay returns the backoff delay for the given zero-based attempt, capped
// at MaxDelay.
func (config *RetryConfig) Delay(attempt int) time.Duration {
	delay := config.InitialDelay

	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay >= config.MaxDelay {
			return config.MaxDelay
		}
	}

	return delay
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
// Permanent errors short-circuit the loop.
func RetryWithBackoff(config *RetryConfig, fn func() error) error {
	var err error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		time.Sleep(config.Delay(attempt))
	}

	return fmt.Errorf("after %d attempts, last error: %w", config.MaxAttempts, err)
}

/*
IsRetryable classifies an error as transient. Network errors, timeouts and
rate limiting are worth another attempt; validation, auth and protocol
violations are not.
*/
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if os.IsTimeout(err) {
		return true
	}

	if rpcErr, ok := err.(*RpcError); ok {
		// Server-side generic and internal failures may clear up; the
		// protocol-level codes never will.
		switch rpcErr.Code {
		case ErrServer.Code, ErrInternal.Code:
			return true
		}
		return false
	}

	return false
}
