package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mdsaddlery/storefront/internal/model"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Report json field names so error messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom "notblank" validator - rejects whitespace-only strings
	// This is used for fields like names and codes that must have meaningful content
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// "bcryptmax" limits strings by byte length, which is what bcrypt counts
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return len(str) <= model.MaxPasswordBytes
	})

	// "discounttype" accepts percentage or flat, case-insensitive
	_ = v.RegisterValidation("discounttype", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		switch model.DiscountType(strings.ToLower(strings.TrimSpace(str))) {
		case model.DiscountPercentage, model.DiscountFlat:
			return true
		}
		return false
	})

	return v
}
