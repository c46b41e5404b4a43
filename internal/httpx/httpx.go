package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"offerapp-backend/internal/apperr"
)

// DecodeJSON decodes a single strict JSON object into v.
func DecodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func ValidationDetails(errs validator.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}

// ValidationError turns a validator failure into an apperr validation error
// carrying per-field details.
func ValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperr.Fields("validation error", ValidationDetails(errs))
	}
	return apperr.Validation("%s", err.Error())
}

// QueryBool reads an optional boolean query parameter. Absent or blank yields nil.
func QueryBool(values url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Fields("invalid query", map[string]string{key: "boolean"})
	}
	return &parsed, nil
}
