// Package jwtware is fiber middleware that verifies bearer tokens, either
// with a static signing key or against remote JWK Sets.
package jwtware

import (
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	ErrJWTInvalid            = errors.New("invalid or expired JWT")
)

type SigningKey struct {
	JWTAlg string
	Key    any
}

type Config struct {
	// SigningKey verifies tokens when JWKSetURLs is empty.
	SigningKey SigningKey

	// JWKSetURLs are fetched once at construction and refreshed in the
	// background.
	JWKSetURLs []string

	// ContextKey stores the parsed *jwt.Token in c.Locals. Default "user".
	ContextKey string

	// TokenLookup is "<source>:<name>", source one of header, query, cookie.
	// Default "header:Authorization".
	TokenLookup string

	// AuthScheme prefixes the header value. Default "Bearer".
	AuthScheme string

	// Optional lets requests without a token through untouched.
	Optional bool

	SuccessHandler fiber.Handler
	ErrorHandler   func(c fiber.Ctx, err error) error

	KeyFunc jwt.Keyfunc
}

// New returns the middleware. It panics on an unusable configuration, as it
// runs once at startup.
func New(config ...Config) fiber.Handler {
	cfg := makeCfg(config)
	extract := extractor(cfg)

	return func(c fiber.Ctx) error {
		auth, err := extract(c)
		if err != nil {
			if cfg.Optional {
				return c.Next()
			}
			return cfg.ErrorHandler(c, err)
		}

		token, err := jwt.Parse(auth, cfg.KeyFunc)
		if err != nil || !token.Valid {
			return cfg.ErrorHandler(c, ErrJWTInvalid)
		}

		c.Locals(cfg.ContextKey, token)
		return cfg.SuccessHandler(c)
	}
}

func makeCfg(config []Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c fiber.Ctx) error {
			return c.Next()
		}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c fiber.Ctx, err error) error {
			if errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusBadRequest).SendString(err.Error())
			}
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "header:" + fiber.HeaderAuthorization
	}
	if cfg.AuthScheme == "" && strings.HasPrefix(cfg.TokenLookup, "header:") {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.KeyFunc == nil {
		switch {
		case len(cfg.JWKSetURLs) > 0:
			cfg.KeyFunc = jwksKeyFunc(cfg.JWKSetURLs)
		case cfg.SigningKey.Key != nil:
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		default:
			panic("jwtware: a signing key, JWK Set URL or KeyFunc is required")
		}
	}

	return cfg
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			if alg, _ := t.Header["alg"].(string); alg != key.JWTAlg {
				return nil, errors.New("unexpected jwt signing method " + alg)
			}
		}
		return key.Key, nil
	}
}

func jwksKeyFunc(urls []string) jwt.Keyfunc {
	options := keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	}

	if len(urls) == 1 {
		jwks, err := keyfunc.Get(urls[0], options)
		if err != nil {
			panic("jwtware: fetch JWK Set: " + err.Error())
		}
		return jwks.Keyfunc
	}

	multiple := make(map[string]keyfunc.Options, len(urls))
	for _, u := range urls {
		multiple[u] = options
	}
	jwks, err := keyfunc.GetMultiple(multiple, keyfunc.MultipleOptions{})
	if err != nil {
		panic("jwtware: fetch JWK Sets: " + err.Error())
	}
	return jwks.Keyfunc
}

func extractor(cfg Config) func(c fiber.Ctx) (string, error) {
	source, name, _ := strings.Cut(cfg.TokenLookup, ":")

	switch source {
	case "query":
		return func(c fiber.Ctx) (string, error) {
			if token := c.Query(name); token != "" {
				return token, nil
			}
			return "", ErrJWTMissingOrMalformed
		}
	case "cookie":
		return func(c fiber.Ctx) (string, error) {
			if token := c.Cookies(name); token != "" {
				return token, nil
			}
			return "", ErrJWTMissingOrMalformed
		}
	default:
		return func(c fiber.Ctx) (string, error) {
			auth := c.Get(name)
			l := len(cfg.AuthScheme)
			if len(auth) > l+1 && strings.EqualFold(auth[:l], cfg.AuthScheme) && auth[l] == ' ' {
				return strings.TrimSpace(auth[l+1:]), nil
			}
			return "", ErrJWTMissingOrMalformed
		}
	}
}
