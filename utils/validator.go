package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	// Format validation errors
	var messages []string
	for _, err := range verrs {
		field := lowerFirst(err.Field())
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must be at least "+param)
		case "max":
			messages = append(messages, field+" must be at most "+param)
		case "oneof":
			messages = append(messages, field+" must be one of "+param)
		case "gt":
			messages = append(messages, field+" must be greater than "+param)
		case "url":
			messages = append(messages, field+" must be a valid URL")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return fmt.Errorf("%s", strings.Join(messages, ", "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// CheckVar reports whether a single value satisfies a validator tag such as
// "numeric", "gte=0" or "datetime=2006-01-02".
func CheckVar(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

// OneOfTag builds a oneof tag that accepts exactly the given options,
// including options with spaces, commas or pipes.
func OneOfTag(options []string) string {
	quoted := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.ReplaceAll(o, ",", "0x2C")
		o = strings.ReplaceAll(o, "|", "0x7C")
		quoted = append(quoted, "'"+o+"'")
	}
	return "oneof=" + strings.Join(quoted, " ")
}
