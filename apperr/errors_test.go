package apperr

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", Invalid("guests", "must be at least 1"), http.StatusUnprocessableEntity, "validation"},
		{"wrapped not found", fmt.Errorf("lookup: %w", &NotFoundError{Kind: "hotel", ID: "h9"}), http.StatusNotFound, "not_found"},
		{"payment", &SimulatedFailure{Msg: "declined"}, http.StatusPaymentRequired, "payment_failed"},
		{"mismatch", &StateMismatch{Step: "payment", Reason: "no booking", Back: "/booking"}, http.StatusConflict, "state_mismatch"},
		{"unauthenticated", &Unauthenticated{From: "/booking/proceed"}, http.StatusUnauthorized, "unauthenticated"},
		{"in flight", ErrPaymentInFlight(), http.StatusConflict, "in_flight"},
		{"loading", ErrCatalogLoading(), http.StatusServiceUnavailable, "loading"},
		{"request timeout", fiber.ErrRequestTimeout, http.StatusRequestTimeout, "timeout"},
		{"deadline", fmt.Errorf("login: %w", context.DeadlineExceeded), http.StatusRequestTimeout, "timeout"},
		{"fiber", fiber.NewError(http.StatusBadRequest, "bad"), http.StatusBadRequest, "Bad Request"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Describe(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body.Error)
		})
	}
}

func TestDescribeCarriesRecoveryPaths(t *testing.T) {
	_, body := Describe(&Unauthenticated{From: "/booking/payment"})
	assert.Equal(t, "/login", body.Login)
	assert.Equal(t, "/booking/payment", body.From)

	_, body = Describe(&SimulatedFailure{Msg: "declined"})
	assert.True(t, body.Retry)
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"rooms": "min 1", "guests": "min 1"}}
	assert.Equal(t, "validation failed: guests: min 1, rooms: min 1", err.Error())
}
