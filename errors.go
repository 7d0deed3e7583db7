package canonify

import (
	"errors"
	"fmt"

	"github.com/hupe1980/canonify/provider"
)

var (
	// ErrInvalidConfig matches every *ConfigError via errors.Is.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProvider matches provider failures that survived all retries.
	ErrProvider = provider.ErrProvider
)

// ProviderError reports a failed embedding or completion call.
type ProviderError = provider.Error

// ConfigError rejects a pass configuration before any computation.
type ConfigError struct {
	// Pass is the zero-based pass index, or -1 when the error is not tied to a pass.
	Pass   int
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	if e.Pass >= 0 {
		msg = fmt.Sprintf("invalid configuration: pass %d: %s: %s", e.Pass, e.Field, e.Reason)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func configErr(pass int, field, reason string, cause error) *ConfigError {
	return &ConfigError{Pass: pass, Field: field, Reason: reason, cause: cause}
}
