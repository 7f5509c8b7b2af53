package pivot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotIncremental reports that a delta cannot be merged into a prior
// result and a full recompute is required.
var ErrNotIncremental = errors.New("prior result not eligible for incremental update")

// ConfigurationError is returned when a computation is attempted with a
// configuration that ValidateConfiguration would reject. The individual
// problems are the same human-readable strings the validator returns.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid pivot configuration: %s", strings.Join(e.Problems, "; "))
}

// ComputationError wraps a failure inside the pivot pipeline. The engine
// never returns a partial structure: either a complete result or an error.
type ComputationError struct {
	Stage string // "aggregate", "group", "build"
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("pivot computation failed in %s: %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// UnsupportedAggregationError identifies a misspelled or unknown
// aggregation. Unlike unknown filter operators, which are tolerated,
// this is a hard failure of the whole computation.
type UnsupportedAggregationError struct {
	Aggregation Aggregation
}

func (e *UnsupportedAggregationError) Error() string {
	return fmt.Sprintf("unsupported aggregation %q", string(e.Aggregation))
}
