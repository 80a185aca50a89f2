package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrRateLimited rejects a visit submitted under a name that already visited
// within the cooldown window. The caller can only wait.
var ErrRateLimited = errors.New("rate limit exceeded, please wait at least one hour between visits")

// ValidationError reports malformed or oversized input, naming the offending
// field(s). It is always recoverable by correcting the input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
