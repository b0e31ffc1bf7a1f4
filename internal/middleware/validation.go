package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps the size of accepted JSON request bodies
const MaxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("request body is empty")

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DecodeJSON decodes a JSON request body into v. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// DecodeErrors converts a DecodeJSON failure into field-level errors
func DecodeErrors(err error) []ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("Expected %s, got %s", typeErr.Type.String(), typeErr.Value),
		}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []ValidationError{{
			Field:   "body",
			Message: fmt.Sprintf("Malformed JSON at offset %d", syntaxErr.Offset),
		}}
	}

	if errors.Is(err, ErrEmptyBody) {
		return []ValidationError{{Field: "body", Message: "Request body is required"}}
	}

	return []ValidationError{{Field: "body", Message: "Invalid request body"}}
}
