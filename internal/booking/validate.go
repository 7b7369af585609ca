package booking

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator is safe for concurrent use once configured.
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("reason", func(fl validator.FieldLevel) bool {
		return slices.Contains(Reasons, fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateRequest checks field presence and format. Request must already be
// normalized.
func validateRequest(req Request) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Detail: err.Error()}
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			verr.Missing = append(verr.Missing, fe.Field())
			continue
		}
		verr.Invalid = append(verr.Invalid, fe.Field())
	}
	return verr
}
