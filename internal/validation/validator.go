// Package validation checks user supplied records before they reach the
// comma-separated reservation files.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/arsconsole/internal/domain"
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// The registration can only fail on an empty tag or nil func.
	_ = v.RegisterValidation("csvsafe", csvSafe)
	return &Validator{v: v}
}

// csvSafe rejects values that would break a line of an unquoted record file.
func csvSafe(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), ",\r\n")
}

// Struct validates s and reports every failing field in one error that wraps
// domain.ErrValidation.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", fe.Field())
	case "csvsafe":
		return fmt.Sprintf("%s must not contain commas or line breaks", fe.Field())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	default:
		return fmt.Sprintf("%s is not valid", fe.Field())
	}
}
