package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/auth"
	"github.com/sakif/vines-backend/internal/model"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a
// metrics batch of a year of days.
const maxBodyBytes = 1 << 20

// validate checks the `validate` tags on request structs. Field names in
// its errors are the JSON names, so they can go straight to the client.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// A pointer to "" is a request to clear the field, which omitempty does
	// not skip on pointers.
	v.RegisterAlias("clearable_email", "eq=|email")
	v.RegisterAlias("clearable_url", "eq=|url")
	return v
}

// decodeJSON reads a JSON body into dst and validates it. Unknown fields are
// ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return validateStruct(dst)
}

// validateStruct runs the validator and turns its first complaint into an
// apperror.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("body", err.Error())
	}

	fe := fieldErrs[0]
	return apperror.ValidationFailed(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email", "clearable_email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url", "clearable_url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// principal returns the authenticated caller. Every handler that needs one
// is mounted behind auth.RequireAuth, so a miss means the router is wired
// wrong; it is still answered with 401 rather than a panic.
func principal(r *http.Request) (model.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return model.Principal{}, apperror.Unauthorized("valid authentication required")
	}
	return p, nil
}
