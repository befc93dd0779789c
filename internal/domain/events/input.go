package events

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegistrationInput is the body of the event-creation webhook.
type RegistrationInput struct {
	Title     string    `json:"title" validate:"required"`
	URL       string    `json:"url" validate:"required,url"`
	Token     string    `json:"token" validate:"required"`
	Endpoints Endpoints `json:"endpoints" validate:"required"`
}

// CreateEditableInput is the body of the editable-creation webhook.
type CreateEditableInput struct {
	Editable  Editable  `json:"editable"`
	Revision  Revision  `json:"revision"`
	Endpoints Endpoints `json:"endpoints" validate:"required"`
}

// ReviewEditableInput is the body of the editable-review webhook. Unknown
// fields from the hub are ignored.
type ReviewEditableInput struct {
	Action    string    `json:"action"`
	Revision  Revision  `json:"revision"`
	Endpoints Endpoints `json:"endpoints"`
}

// ValidationError wraps a field-level validation failure on an inbound
// webhook payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return ValidationError{Field: first.Field(), Message: "failed " + first.Tag() + " check"}
	}
	return err
}

// Validate checks the structural invariants of a registration payload.
func (in RegistrationInput) Validate() error {
	return validateInput(in)
}

// Validate checks the structural invariants of an editable-creation payload.
func (in CreateEditableInput) Validate() error {
	return validateInput(in)
}
