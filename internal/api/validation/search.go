package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/platforms"
)

// New returns a validator with the search validators registered. Field names
// in errors are the JSON names callers send.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterSearchValidators(v)
	return v
}

// RegisterSearchValidators registers the search request validators
func RegisterSearchValidators(v *validator.Validate) {
	_ = v.RegisterValidation("date_range", ValidateDateRange)
	_ = v.RegisterValidation("platform", ValidatePlatform)
	_ = v.RegisterValidation("work_type", ValidateWorkType)
}

// ValidateDateRange accepts the look-back windows the search form offers
func ValidateDateRange(fl validator.FieldLevel) bool {
	days, err := strconv.Atoi(fl.Field().String())
	if err != nil {
		return false
	}
	for _, d := range platforms.DateRanges {
		if d == days {
			return true
		}
	}
	return false
}

// ValidatePlatform accepts any catalog id, enabled or not
func ValidatePlatform(fl validator.FieldLevel) bool {
	_, ok := platforms.Lookup(fl.Field().String())
	return ok
}

func ValidateWorkType(fl validator.FieldLevel) bool {
	value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	for _, w := range platforms.WorkLocations {
		if w == value {
			return true
		}
	}
	return false
}

// Messages renders validation errors one line per field
func Messages(err error) []string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.TrimPrefix(fe.Namespace(), "SearchRequest.")
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
	}
	return out
}
