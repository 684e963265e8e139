// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"strings"
)

// MinPasswordLength is the shortest accepted admin password.
const MinPasswordLength = 6

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength           int
	CheckUserSimilarity bool
}

// DefaultPasswordValidator returns a validator matching the dashboard rules.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:           MinPasswordLength,
		CheckUserSimilarity: true,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validate checks a password against all configured validators
func (v *PasswordValidator) Validate(password string, userAttributes ...string) ValidationResult {
	var errors []ValidationError

	if len(password) < v.MinLength {
		errors = append(errors, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters", v.MinLength),
		})
	}

	if v.CheckUserSimilarity && matchesUserAttribute(password, userAttributes) {
		errors = append(errors, ValidationError{
			Code:    "too_similar",
			Message: "Password must not equal your username or email",
		})
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func matchesUserAttribute(password string, attributes []string) bool {
	for _, attr := range attributes {
		if attr != "" && strings.EqualFold(password, attr) {
			return true
		}
	}
	return false
}
