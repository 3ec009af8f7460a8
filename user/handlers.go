package user

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/nav"
)

type Handler struct {
	Auth *Authenticator
}

func NewHandler(auth *Authenticator) *Handler {
	return &Handler{Auth: auth}
}

// Login body {email, password, from}. Answers with the token, the session and
// the path the client should land on.
func (h *Handler) Login(c fiber.Ctx) error {
	var creds Credentials
	if err := c.Bind().JSON(&creds); err != nil {
		return apperr.Invalid("body", "must be a JSON object")
	}

	login, err := h.Auth.Login(c.UserContext(), creds)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":    login.Token,
		"session":  login.Session,
		"redirect": nav.AfterLogin(creds.From),
	})
}

func (h *Handler) Logout(c fiber.Ctx) error {
	session, ok := Current(c)
	if !ok {
		return &apperr.Unauthenticated{}
	}

	if err := h.Auth.Logout(c.UserContext(), session.ID); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"authenticated": false, "redirect": string(nav.Home)})
}

func (h *Handler) Me(c fiber.Ctx) error {
	session, ok := Current(c)
	if !ok {
		return &apperr.Unauthenticated{}
	}

	profile, err := h.Auth.Profile(c.UserContext(), session)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"authenticated": true,
		"session":       session,
		"user":          profile,
	})
}
