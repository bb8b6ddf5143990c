package environment

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing indicates the configuration source could not be located.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrConfigurationMalformed indicates a required field is empty or invalid.
	ErrConfigurationMalformed = errors.New("configuration malformed")
)

// FieldError reports a single invalid field. It unwraps to ErrConfigurationMalformed.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrConfigurationMalformed, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrConfigurationMalformed
}

// FieldErrors collects every FieldError in err's tree, in order.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
