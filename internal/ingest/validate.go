package ingest

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tinytelemetry/hostmon/internal/model"
)

var readingValidator = newReadingValidator()

// newReadingValidator reads the binding tags on model.Reading and reports
// fields by their JSON names.
func newReadingValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(fmt.Sprintf("ingest: register finite validation: %v", err))
	}
	return v
}

func isFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return true
}

// Validate checks a reading against the declared field domains and returns
// a *ValidationError naming every violation, or nil.
func Validate(r model.Reading) error {
	err := readingValidator.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("ingest: validate reading: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Reason: reason(fe)})
	}
	return &ValidationError{Fields: fields}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "finite":
		return "must be a finite number"
	}
	return "failed " + fe.Tag()
}
