package http

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// MapError converts errors from every layer into the client-facing DomainError. Detail
// that must not reach the client stays in the wrapped cause.
func MapError(err error) *apperrors.DomainError {
	if err == nil {
		return nil
	}

	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var inputErr *service.InputError
	if errors.As(err, &inputErr) {
		var details map[string]any
		if len(inputErr.Fields) > 0 {
			details = make(map[string]any, len(inputErr.Fields))
			for k, v := range inputErr.Fields {
				details[k] = v
			}
		}
		return apperrors.NewValidationError(inputErr.Message, details).WithCause(err)
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return apperrors.NewValidationError("invalid input", nil).WithCause(err)
	case errors.Is(err, service.ErrAlreadyExists):
		return apperrors.NewConflict("account already exists").WithCause(err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid email or password").WithCause(err)
	case errors.Is(err, auth.ErrToken):
		return auth.ErrUnauthenticated.WithCause(err)
	case errors.Is(err, service.ErrEventNotFound), errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("event").WithCause(err)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}

	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.CodeValidationFailed
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return apperrors.CodeConflict
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	}
	if status >= http.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return "REQUEST_FAILED"
}
