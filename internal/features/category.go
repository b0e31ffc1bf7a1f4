package features

import (
	"errors"
	"fmt"
)

var ErrEmptyClasses = errors.New("category encoder requires at least one class")

// CategoryEncoder maps the labels observed at training time to integer codes.
//
// Labels that were never observed map to the code of the first class. This is
// an arbitrary but deterministic fallback kept for compatibility with the
// trained model; it is not a nearest-match lookup.
type CategoryEncoder struct {
	classes []string
	codes   map[string]int
}

// NewCategoryEncoder builds an encoder from the ordered class list. The index
// of a class in the list is its code.
func NewCategoryEncoder(classes []string) (*CategoryEncoder, error) {
	if len(classes) == 0 {
		return nil, ErrEmptyClasses
	}

	codes := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, exists := codes[class]; exists {
			return nil, fmt.Errorf("duplicate class %q", class)
		}
		codes[class] = i
	}

	owned := make([]string, len(classes))
	copy(owned, classes)

	return &CategoryEncoder{classes: owned, codes: codes}, nil
}

// Encode returns the code of value, or the fallback code for unseen values
func (e *CategoryEncoder) Encode(value string) int {
	if code, ok := e.codes[value]; ok {
		return code
	}
	return e.FallbackCode()
}

// Known reports whether value was observed at training time
func (e *CategoryEncoder) Known(value string) bool {
	_, ok := e.codes[value]
	return ok
}

// FallbackCode is the code assigned to unseen values
func (e *CategoryEncoder) FallbackCode() int {
	return e.codes[e.classes[0]]
}

// Decode returns the class for code
func (e *CategoryEncoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

// Classes returns a copy of the fixed class set in code order
func (e *CategoryEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
