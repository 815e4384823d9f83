package apperr

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks v's validate tags and reports the first violation as a
// VALIDATION error on entity.
func ValidateStruct(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Validation(entity, "%v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return Validation(entity, "%s is required", fe.Field())
	case "max":
		return Validation(entity, "%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return Validation(entity, "%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return Validation(entity, "%s failed %s", fe.Field(), fe.Tag())
	}
}
