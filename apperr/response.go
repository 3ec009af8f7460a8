package apperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// ErrorMessage is the JSON body of every failed API call.
type ErrorMessage struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Back    string            `json:"back,omitempty"`
	Login   string            `json:"login,omitempty"`
	From    string            `json:"from,omitempty"`
	Retry   bool              `json:"retry,omitempty"`
}

// Describe maps an error onto its HTTP status and response body.
func Describe(err error) (int, ErrorMessage) {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		failure    *SimulatedFailure
		mismatch   *StateMismatch
		unauth     *Unauthenticated
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, ErrorMessage{Error: "validation", Message: err.Error(), Fields: validation.Fields}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorMessage{Error: "not_found", Message: err.Error(), Back: "/booking"}
	case errors.As(err, &failure):
		return http.StatusPaymentRequired, ErrorMessage{Error: "payment_failed", Message: err.Error(), Retry: true}
	case errors.As(err, &mismatch):
		return http.StatusConflict, ErrorMessage{Error: "state_mismatch", Message: err.Error(), Back: mismatch.Back}
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, ErrorMessage{Error: "unauthenticated", Message: err.Error(), Login: "/login", From: unauth.From}
	case errors.Is(err, errPaymentInFlight):
		return http.StatusConflict, ErrorMessage{Error: "in_flight", Message: err.Error()}
	case errors.Is(err, errCatalogLoading):
		return http.StatusServiceUnavailable, ErrorMessage{Error: "loading", Message: err.Error(), Retry: true}
	case errors.Is(err, fiber.ErrRequestTimeout) || errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrorMessage{Error: "timeout", Message: "the request took too long", Retry: true}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorMessage{Error: http.StatusText(fiberErr.Code), Message: fiberErr.Message}
	default:
		return http.StatusInternalServerError, ErrorMessage{Error: "internal", Message: "something went wrong", Back: "/home"}
	}
}

// Handler is the fiber ErrorHandler for the whole app.
func Handler(c fiber.Ctx, err error) error {
	status, body := Describe(err)
	return c.Status(status).JSON(body)
}
