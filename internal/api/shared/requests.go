package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/phrazzld/folio-api/internal/validation"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON for a request without a body.
var ErrEmptyBody = errors.New("request body is empty")

// Global validator instance for reuse
var validate = validation.New()

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ValidateRequest runs the tag rules and any cross-field Validate method
// of v. A failure is a validation.Errors.
func ValidateRequest(v any) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes the body into v and validates it, writing a 400
// response on failure. It reports whether the handler should continue.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := DecodeJSON(r, v); err != nil {
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	return Validate(w, r, v)
}

// Validate validates v, writing a 400 response on failure.
func Validate(w http.ResponseWriter, r *http.Request, v any) bool {
	err := ValidateRequest(v)
	if err == nil {
		return true
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		RespondWithValidationError(w, r, verrs)
		return false
	}
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred", err)
	return false
}
