package api

import (
	"fmt"
	"unicode/utf8"

	"github.com/vitalcall/consult/internal/shared"
)

type field struct {
	name  string
	value *string
	min   int
	max   int
}

// checkFields enforces presence and character-length bounds. A max of zero
// means unbounded.
func checkFields(fields ...field) error {
	for _, f := range fields {
		if f.value == nil {
			return shared.BadRequest(fmt.Sprintf("%s is required", f.name), nil)
		}
		n := utf8.RuneCountInString(*f.value)
		if n < f.min {
			return shared.BadRequest(fmt.Sprintf("%s must be at least %d characters", f.name, f.min), nil)
		}
		if f.max > 0 && n > f.max {
			return shared.BadRequest(fmt.Sprintf("%s must be at most %d characters", f.name, f.max), nil)
		}
	}
	return nil
}

func required(name string, value *string) field {
	return field{name: name, value: value}
}

func bounded(name string, value *string, min, max int) field {
	return field{name: name, value: value, min: min, max: max}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
