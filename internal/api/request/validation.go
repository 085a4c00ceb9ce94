package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/labdeploy/internal/platform"
)

var validate = validator.New()

// maxBodyBytes bounds every decoded request body.
const maxBodyBytes = 64 << 10

// Decode reads a JSON body into v and runs struct validation. An empty body
// decodes as an empty object.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON: unexpected data after request body")
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// RequireID checks that s is a deployment ID and returns it in canonical form.
func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	id, ok := platform.ParseID(s)
	if !ok {
		return "", fmt.Errorf("malformed ID %q", s)
	}
	return id, nil
}
