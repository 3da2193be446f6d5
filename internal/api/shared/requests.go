package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Validate is the shared validator instance.
var Validate = validator.New()

// DecodeJSON decodes the request body into v. Bodies over MaxBodyBytes fail.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest validates v, preferring its own Validate method if it has one.
func ValidateRequest(v any) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return Validate.Struct(v)
}
