package scpi

import (
	"errors"
	"fmt"
	"time"

	"github.com/rbeignon/go-rsbench/logger"
)

const (
	// DefaultTimeout bounds a single transport round trip.
	DefaultTimeout = 10 * time.Second

	// DefaultPollInterval is the delay between completion-query polls.
	DefaultPollInterval = 200 * time.Millisecond
)

// DialFunc opens a Transport to an instrument address. Replacing it lets
// tests inject a fake transport and lets callers route sessions over
// gateways other than a raw TCP socket.
type DialFunc func(address string, timeout time.Duration) (Transport, error)

// SessionConfig holds all configuration for an instrument session.
type SessionConfig struct {
	// timeout bounds every transport round trip.
	timeout time.Duration

	// completionTimeout bounds the whole completion-polling loop of
	// CommandWait. Zero means "same as timeout".
	completionTimeout time.Duration

	// pollInterval is the delay between *OPC? polls.
	pollInterval time.Duration

	clock  Clock
	dial   DialFunc
	logger logger.Logger
}

// NewSessionConfig creates a session configuration with defaults applied,
// then applies opts in order.
func NewSessionConfig(opts ...SessionOption) (*SessionConfig, error) {
	cfg := &SessionConfig{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		clock:        SystemClock(),
		logger:       logger.GetLogger(),
		dial: func(address string, timeout time.Duration) (Transport, error) {
			return Dial(address, timeout)
		},
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Timeout returns the per-round-trip timeout.
func (cfg *SessionConfig) Timeout() time.Duration { return cfg.timeout }

// CompletionTimeout returns the deadline budget for one CommandWait call.
func (cfg *SessionConfig) CompletionTimeout() time.Duration {
	if cfg.completionTimeout > 0 {
		return cfg.completionTimeout
	}
	return cfg.timeout
}

// PollInterval returns the delay between completion polls.
func (cfg *SessionConfig) PollInterval() time.Duration { return cfg.pollInterval }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- SessionOption ---

// SessionOption is a functional option for configuring a session.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithTimeout sets the timeout for a single transport round trip.
func WithTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d <= 0 {
			return errors.New("scpi: timeout must be positive")
		}
		cfg.timeout = d

		return nil
	})
}

// WithCompletionTimeout sets the overall deadline for one completion-poll
// loop. Defaults to the round-trip timeout when not set.
func WithCompletionTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d <= 0 {
			return errors.New("scpi: completion timeout must be positive")
		}
		cfg.completionTimeout = d

		return nil
	})
}

// WithPollInterval sets the delay between completion-query polls.
func WithPollInterval(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d <= 0 {
			return fmt.Errorf("scpi: poll interval %v must be positive", d)
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithClock sets the clock used by the completion-poll loop.
func WithClock(c Clock) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if c == nil {
			return errors.New("scpi: clock must not be nil")
		}
		cfg.clock = c

		return nil
	})
}

// WithDialFunc sets the function used to open the transport.
func WithDialFunc(dial DialFunc) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if dial == nil {
			return errors.New("scpi: dial func must not be nil")
		}
		cfg.dial = dial

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("scpi: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
