package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks the `validate` tags on the model request types.
var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// rule turns one failed field/tag pair into a client-facing message.
type rule struct {
	field string
	tag   string
	msg   string
}

// Rules are listed in the order the messages take precedence.
var (
	eventRules = []rule{
		{"Name", "min", "Event name must be at least 3 characters long"},
		{"Description", "min", "Event description must be at least 10 characters long"},
		{"Location", "min", "Event location must be at least 3 characters long"},
		{"Date", "datetime", "Date must be in YYYY-MM-DD format"},
		{"Time", "datetime", "Time must be in HH:MM format"},
		{"MaxSeats", "min", "max_seats must be a positive integer"},
		{"MaxSeats", "max", "max_seats cannot exceed 100,000"},
	}

	registerRules = []rule{
		{"Name", "required", "All fields are required"},
		{"Email", "required", "All fields are required"},
		{"Password", "required", "All fields are required"},
		{"ConfirmPassword", "required", "All fields are required"},
		{"ConfirmPassword", "eqfield", "Passwords do not match"},
		{"Password", "min", fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)},
		{"Email", "email", "Enter a valid email address"},
	}

	rsvpRules = []rule{
		{"Name", "min", "Name must be at least 2 characters long"},
		{"Email", "required", "Enter a valid email address"},
		{"Email", "email", "Enter a valid email address"},
	}
)

// check validates req and reports the highest-precedence broken rule as a
// *ValidationError.
func check(req any, rules []rule) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("validate request: %w", err)
	}
	for _, r := range rules {
		for _, fe := range fields {
			if fe.StructField() == r.field && fe.Tag() == r.tag {
				return invalid("%s", r.msg)
			}
		}
	}
	return invalid("%s is invalid", fields[0].Field())
}
