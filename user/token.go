package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens signs the bearer tokens handed out at login. The token only names
// the session; the session store stays the source of truth.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) Issue(s Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":   s.ID,
		"sub":   s.UserID,
		"name":  s.Name,
		"email": s.Email,
		"iat":   s.CreatedAt.Unix(),
	}
	if !s.ExpiresAt.IsZero() {
		claims["exp"] = s.ExpiresAt.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies raw and returns its session id.
func (t *Tokens) Parse(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return SessionID(token)
}

// SessionID reads the sid claim of a verified token.
func SessionID(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("token has no session id")
	}
	return sid, nil
}

// Lifetime is how long a new session lasts.
func Lifetime(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
