package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	// ErrInvalidInput is matched by every InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists is returned when registering a taken email.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEventNotFound is returned when an event id matches nothing.
	ErrEventNotFound = errors.New("event not found")
)

// InputError lists per-field validation failures.
type InputError struct {
	Message string
	Fields  map[string]string
}

func (e *InputError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(message string) error {
	return &InputError{Message: message}
}

// fromValidation converts ozzo-validation output. Internal rule errors are returned unchanged.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			fields[field] = ferr.Error()
		}
	}
	return &InputError{Message: "validation failed", Fields: fields}
}
