package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"attendance.service/internal/core/model"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{f.Tag.Get("json"), f.Tag.Get("query")} {
			name := strings.SplitN(tag, ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "ip":
		return "must be a valid IP address"
	case "datetime":
		if fe.Param() == model.DateLayout {
			return "must be a date formatted YYYY-MM-DD"
		}
		return "must be an RFC3339 timestamp"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// validateStruct runs the struct tags of v and translates failures into model.ValidationErrors.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(model.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, model.ValidationError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.ValidationErrors{{Field: "body", Message: "must be a valid JSON object: " + err.Error()}}
	}
	return validateStruct(dst)
}

// parseTimestamp parses an optional RFC3339 timestamp, falling back to now.
func parseTimestamp(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Already rejected by the datetime tag.
		return now
	}
	return t
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.ValidationErrors{{Field: name, Message: fmt.Sprintf("must be an integer, got %q", raw)}}
	}
	return n, nil
}
