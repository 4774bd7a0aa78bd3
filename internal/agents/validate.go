package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidInput matches any *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSchemaViolation is returned when a handler produces output that
	// fails its own schema.
	ErrSchemaViolation = errors.New("agent output failed schema validation")
)

// Issues mirrors the flattened issue list clients already understand:
// form-level messages plus messages keyed by JSON field name.
type Issues struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newIssues() Issues {
	return Issues{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (is *Issues) addField(field, msg string) {
	is.FieldErrors[field] = append(is.FieldErrors[field], msg)
}

// ValidationError carries the issues found in a rejected input.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	var parts []string
	parts = append(parts, e.Issues.FormErrors...)
	for field, msgs := range e.Issues.FieldErrors {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	if len(parts) == 0 {
		return ErrInvalidInput.Error()
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeInput unmarshals raw JSON into dst, turning syntax and type errors
// into a *ValidationError.
func DecodeInput(raw []byte, dst any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		is := newIssues()
		is.FormErrors = append(is.FormErrors, "Request body is required")
		return &ValidationError{Issues: is}
	}
	err := json.Unmarshal(raw, dst)
	if err == nil {
		return nil
	}

	is := newIssues()
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		is.addField(typeErr.Field, fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value))
	} else {
		is.FormErrors = append(is.FormErrors, "Malformed JSON body")
	}
	return &ValidationError{Issues: is}
}

type defaulter interface{ defaults() }

// validateInput checks in against its struct tags and applies defaults.
func validateInput(in defaulter) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating input: %w", err)
		}
		is := newIssues()
		for _, fe := range verrs {
			is.addField(fe.Field(), issueMessage(fe))
		}
		return &ValidationError{Issues: is}
	}
	in.defaults()
	return nil
}

// validateOutput guards handler results.
func validateOutput(out any) error {
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

func issueMessage(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "Required"
	case "oneof":
		opts := strings.Fields(fe.Param())
		return fmt.Sprintf("Invalid enum value. Expected '%s', received '%v'", strings.Join(opts, "' | '"), fe.Value())
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("Array must contain at least %s element(s)", fe.Param())
		default:
			return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
		}
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("Array must contain at most %s element(s)", fe.Param())
		default:
			return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
		}
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}
