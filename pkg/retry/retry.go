package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/trustsla/cloudsla-bench/pkg/logging"
)

// Config holds the configuration for retry operations
type Config struct {
	MaxRetries      int                   // Maximum number of attempts
	InitialDelay    time.Duration         // Initial delay between retries
	MaxDelay        time.Duration         // Maximum delay between retries
	BackoffFactor   float64               // Multiplier for exponential backoff
	JitterFactor    float64               // Fraction of the delay added as jitter
	LogRetryAttempt bool                  // Whether to log retry attempts
	ShouldRetry     func(error, int) bool // Custom predicate (error, attempt number)
}

// DefaultConfig returns a default configuration for retry operations
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialDelay:    time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		JitterFactor:    0.2,
		LogRetryAttempt: true,
	}
}

func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return errors.New("MaxRetries must be >= 1")
	}
	if c.InitialDelay <= 0 {
		return errors.New("InitialDelay must be positive")
	}
	if c.MaxDelay <= 0 {
		return errors.New("MaxDelay must be positive")
	}
	if c.BackoffFactor < 1.0 {
		return errors.New("BackoffFactor must be >= 1.0")
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1.0 {
		return errors.New("JitterFactor must be between 0.0 and 1.0")
	}
	return nil
}

func delayWithJitter(baseDelay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return baseDelay
	}
	jitter := time.Duration(jitterFactor * float64(baseDelay) * rand.Float64())
	return baseDelay + jitter
}

func nextDelay(currentDelay time.Duration, backoffFactor float64, maxDelay time.Duration) time.Duration {
	next := time.Duration(float64(currentDelay) * backoffFactor)
	if next > maxDelay {
		next = maxDelay
	}
	return next
}

// Retry executes the given operation with exponential backoff.
// Returns the result of the operation if successful, or the last
// error once all attempts are exhausted.
func Retry[T any](ctx context.Context, operation func() (T, error), config *Config, logger logging.Logger) (T, error) {
	var zero T

	if config == nil {
		config = DefaultConfig()
	} else if err := config.Validate(); err != nil {
		return zero, fmt.Errorf("invalid retry config: %w", err)
	}

	delay := config.InitialDelay
	var err error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, opErr := operation()
		if opErr == nil {
			return result, nil
		}
		err = opErr

		if config.ShouldRetry != nil && !config.ShouldRetry(err, attempt) {
			return zero, err
		}
		if attempt == config.MaxRetries {
			break
		}

		sleep := delayWithJitter(delay, config.JitterFactor)
		if config.LogRetryAttempt && logger != nil {
			logger.Warnf("Attempt %d/%d failed, retrying in %v: %v", attempt, config.MaxRetries, sleep, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(sleep):
		}
		delay = nextDelay(delay, config.BackoffFactor, config.MaxDelay)
	}

	return zero, fmt.Errorf("all %d attempts failed, last error: %w", config.MaxRetries, err)
}
