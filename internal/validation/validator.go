// Package validation wraps validator/v10 for request checks and for sanitising
// decoded upstream payloads.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports JSON field names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error carrying
// one message per failing field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Sanitize validates the struct behind ptr and resets every top-level field
// that fails its rule to the zero value. Upstream payloads are best effort, so
// a malformed optional field is dropped instead of rejecting the record.
// It returns the JSON names of the fields it cleared.
func (v *Validator) Sanitize(ptr any) []string {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(v.v.Struct(ptr), &validationErrs) {
		return nil
	}

	elem := rv.Elem()
	var cleared []string
	for _, e := range validationErrs {
		// Only direct fields; nested values are sanitised by their own call.
		if strings.Count(e.StructNamespace(), ".") != 1 {
			continue
		}
		f := elem.FieldByName(e.StructField())
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		f.Set(reflect.Zero(f.Type()))
		cleared = append(cleared, e.Field())
	}
	return cleared
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url", "http_url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
