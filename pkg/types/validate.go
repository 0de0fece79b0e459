package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// V returns the shared validator with the catalog's custom validations
// registered. Field names in errors are the JSON names.
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return IsValidPriority(fl.Field().String())
		})
		validate.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			return IsValidStatus(fl.Field().String())
		})
	})
	return validate
}

// ValidateEntity checks an entity against its struct tags. A missing name
// wraps ErrInvalidName; every other failure wraps ErrInvalidData. The message
// lists each failing field.
func ValidateEntity(entity any) error {
	err := V().Struct(entity)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	base := ErrInvalidData
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "name" && fe.Tag() == "required" {
			base = ErrInvalidName
		}
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", base, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "priority":
		return fmt.Sprintf("%s must be one of %s, %s, %s, %s", fe.Field(),
			PriorityUnassigned, PriorityLow, PriorityBeneficial, PriorityEssential)
	case "status":
		return fmt.Sprintf("%s must be one of %s, %s, %s", fe.Field(),
			StatusNotStarted, StatusInProgress, StatusComplete)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
