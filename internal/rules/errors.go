package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern means a urlPattern did not compile.
	ErrInvalidPattern = errors.New("invalid url pattern")
	// ErrInvalidRule means a required rule field is missing or malformed.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrReservedID means the rule tried to claim the catch-all id.
	ErrReservedID = errors.New("reserved rule id")
	// ErrDuplicateID means another rule already owns the id.
	ErrDuplicateID = errors.New("duplicate rule id")
	// ErrRuleNotFound means no custom rule has the id.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrNotCustom means a built-in rule was targeted by a custom-rule mutation.
	ErrNotCustom = errors.New("built-in rules cannot be modified")
)

// ValidationError reports a rejected rule field.
type ValidationError struct {
	Err   error // one of the sentinel errors above
	Cause error // underlying error, e.g. from regexp.Compile
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s %q", e.Err, e.Field, e.Value)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
