package types

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrArithmetic is matched by every ArithmeticError.
	ErrArithmetic = errors.New("arithmetic error")
)

// ConfigError reports a caller-supplied parameter that cannot be used. It is
// returned before any simulation step runs and is never silently defaulted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError returns a ConfigError for field.
func NewConfigError(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ArithmeticError reports a computed quantity that left the positive domain
// (for example a non-positive target). It is fatal to the current run.
type ArithmeticError struct {
	Height   int
	Quantity string
	Value    decimal.Decimal
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf(
		"arithmetic error at height %d: %s must be positive, got %s",
		e.Height,
		e.Quantity,
		e.Value.String(),
	)
}

// Is lets errors.Is(err, ErrArithmetic) match any ArithmeticError.
func (e *ArithmeticError) Is(target error) bool {
	return target == ErrArithmetic
}
