package command

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches any ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrLookup matches any LookupError via errors.Is.
	ErrLookup = errors.New("lookup error")
)

// ConfigurationError is raised at setup time and is not recoverable at run
// time: bad default commands, overlapping group requirements, duplicate
// selector labels.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// LookupError reports a name that does not exist, e.g. an unknown selector
// label. The caller's state is left unchanged.
type LookupError struct {
	Op  string
	Key string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: unknown %q", e.Op, e.Key)
}

func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}
