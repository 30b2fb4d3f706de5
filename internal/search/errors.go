package search

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every *ConfigError.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigError is returned by Run for parameters that prevent a run from
// starting. No company is fetched when it is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }
