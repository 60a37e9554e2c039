package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxIDLength  = 128
	MaxBatchSize = 1000
	MinBatchSize = 1
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report yaml field names rather than Go field names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return ValidateIdentifier(fl.Field().String()) == nil
	})
}

// Struct validates v against its `validate` struct tags and reports every
// failing field.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateBatchSize validates a rollout batch size
func ValidateBatchSize(size int) error {
	if size < MinBatchSize {
		return fmt.Errorf("batch size must be at least %d, got %d", MinBatchSize, size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("batch size must not exceed %d, got %d", MaxBatchSize, size)
	}
	return nil
}

// ValidateIdentifier validates a node or service identifier. Any non-empty
// string up to MaxIDLength bytes is accepted.
func ValidateIdentifier(id string) error {
	if id == "" {
		return errors.New("identifier cannot be empty")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("identifier '%.16s...' exceeds maximum length of %d characters", id, MaxIDLength)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := trimRoot(e.Namespace())
		param := e.Param()

		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			messages = append(messages, fmt.Errorf("%s: must be at least %s", field, param))
		case "max", "lte":
			messages = append(messages, fmt.Errorf("%s: must not exceed %s", field, param))
		case "oneof":
			messages = append(messages, fmt.Errorf("%s: must be one of [%s], got %v", field, param, e.Value()))
		case "identifier":
			messages = append(messages, fmt.Errorf("%s: invalid identifier %q", field, e.Value()))
		case "dive":
			// For array elements
			messages = append(messages, fmt.Errorf("%s: invalid element in array", field))
		default:
			messages = append(messages, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}

	return errors.Join(messages...)
}

// trimRoot drops the top-level struct name from a validator namespace
func trimRoot(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
