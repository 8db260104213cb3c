// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package validation wraps go-playground/validator v10 for catalog rows and
// conversation input.
//
// Fields are reported by their json name when they have one, so a rejected
// catalog row names the source column (business_id, stars) rather than the
// Go field.
//
//	type Row struct {
//	    ID        string    `json:"business_id" validate:"notblank"`
//	    Embedding []float32 `json:"embedding" validate:"required,min=1,finite"`
//	}
//
//	if err := validation.ValidateStruct(&row); err != nil {
//	    logger.Warn().Strs("fields", err.Fields()).Msg("Skipping row")
//	}
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var getValidator = sync.OnceValue(newValidator)

// GetValidator returns the shared validator. It caches struct metadata and
// is safe for concurrent use.
func GetValidator() *validator.Validate {
	return getValidator()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	// notblank: non-empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// finite: every element of a float slice is a real number.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < f.Len(); i++ {
				if !finite(f.Index(i)) {
					return false
				}
			}
			return true
		default:
			return finite(f)
		}
	})

	return v
}

func finite(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		x := v.Float()
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	default:
		return true
	}
}

// FieldError describes one failed rule.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field is the json name of the field, or the Go name when it has none.
func (e *FieldError) Field() string { return e.field }

// Tag is the rule that failed, e.g. "lte".
func (e *FieldError) Tag() string { return e.tag }

// Param is the rule's parameter, e.g. "5" for lte=5.
func (e *FieldError) Param() string { return e.param }

func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual failures.
func (ve *RequestValidationError) Errors() []FieldError { return ve.errors }

// Fields returns the names of every field that failed, in struct order.
func (ve *RequestValidationError) Fields() []string {
	out := make([]string, len(ve.errors))
	for i := range ve.errors {
		out[i] = ve.errors[i].field
	}
	return out
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	for i := range ve.errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ve.errors[i].message)
	}
	return b.String()
}

// ValidateStruct returns nil or a *RequestValidationError. It never returns
// a typed nil.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: describe(fe),
		})
	}
	return &RequestValidationError{errors: out}
}

func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "finite":
		return field + " must not contain NaN or infinite values"
	case "latitude":
		return field + " must be a valid latitude (-90 to 90)"
	case "longitude":
		return field + " must be a valid longitude (-180 to 180)"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
