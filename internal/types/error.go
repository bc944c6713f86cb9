package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type (
	// Error is the wire shape of server error payloads.
	Error struct {
		Fields *map[string]string `json:"fields,omitempty" validate:"optional"`
		Detail string             `json:"detail"           validate:"required"`
	}
)

func StringError(err string) Error {
	return Error{Detail: err}
}

func ValidationError(err error) Error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if ok {
		errorMap := make(map[string]string)
		for _, fieldError := range validationErrors {
			errorMap[fieldError.Field()] = fmt.Sprintf(
				"Failed to validate while checking condition: %s",
				fieldError.Tag(),
			)
		}

		return Error{Detail: "validation error", Fields: &errorMap}
	}

	return Error{Detail: "validation error"}
}
