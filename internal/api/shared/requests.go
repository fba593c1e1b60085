package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Global validator instance for reuse
var validate = validator.New()

// ErrUnknownField is returned by DecodeJSONStrict when the request body
// carries fields outside the declared shape.
var ErrUnknownField = errors.New("unknown field in request body")

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeJSONStrict decodes the request body into the given struct, rejecting
// any body that carries unknown fields or trailing content.
func DecodeJSONStrict(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		// encoding/json exposes unknown-field rejections only as a string.
		if strings.Contains(err.Error(), "unknown field") {
			return ErrUnknownField
		}
		return err
	}
	if dec.More() {
		return ErrUnknownField
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return validate.Struct(v)
}
