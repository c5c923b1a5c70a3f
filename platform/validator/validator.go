// Package validator wraps go-playground/validator with the project's custom tags.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is injected into handlers.
type Validator struct {
	v *validator.Validate
}

var adjustmentModes = map[string]struct{}{"percent": {}, "amount": {}}

// New creates a Validator with the custom tags registered:
//
//	adjmode     "percent" or "amount"
//	quotetheme  one of the names passed in themes (skipped when empty)
func New(themes ...string) *Validator {
	v := validator.New()

	_ = v.RegisterValidation("adjmode", func(fl validator.FieldLevel) bool {
		_, ok := adjustmentModes[fl.Field().String()]
		return ok
	})

	known := make(map[string]struct{}, len(themes))
	for _, t := range themes {
		known[t] = struct{}{}
	}
	_ = v.RegisterValidation("quotetheme", func(fl validator.FieldLevel) bool {
		if len(known) == 0 {
			return true
		}
		_, ok := known[fl.Field().String()]
		return ok
	})

	return &Validator{v: v}
}

func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// Describe flattens validation errors into "field: tag" pairs for responses.
func Describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return out
}
