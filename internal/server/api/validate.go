package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ayusman/vitruvius/internal/gesture"
)

var validate = newValidator()

// newValidator returns a validator that reports JSON field names and knows
// the "gesture" and "signal" tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "gesture", func(fl validator.FieldLevel) bool {
		_, err := gesture.ParseType(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "signal", func(fl validator.FieldLevel) bool {
		return validSignal(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validationMessage describes the first failed field for the client.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid request"
	}

	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " needs at least " + fe.Param() + " entries"
	case "gesture":
		return "Invalid gesture"
	case "signal":
		return "Invalid signal"
	}
	return "Invalid " + fe.Field()
}

func validSignal(s string) bool {
	for _, signal := range gesture.Signals() {
		if string(signal) == s {
			return true
		}
	}
	return false
}
