package user

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/config"
	"github.com/akhilcoder7733/hotelgram/jwtware"
)

const (
	tokenLocal   = "user"
	sessionLocal = "session"
)

// RequireSession rejects requests without a valid token and a live session.
func RequireSession(a *Authenticator, cfg config.SessionConfig) fiber.Handler {
	return verifier(a, cfg, false)
}

// OptionalSession attaches the session when the request carries a valid
// token and lets every request through.
func OptionalSession(a *Authenticator, cfg config.SessionConfig) fiber.Handler {
	return verifier(a, cfg, true)
}

func verifier(a *Authenticator, cfg config.SessionConfig, optional bool) fiber.Handler {
	jwtCfg := jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: a.tokens.secret},
		ContextKey: tokenLocal,
		Optional:   optional,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			if optional {
				return c.Next()
			}
			return &apperr.Unauthenticated{}
		},
		SuccessHandler: func(c fiber.Ctx) error {
			session, err := restore(c, a)
			if err != nil {
				if optional {
					return c.Next()
				}
				return &apperr.Unauthenticated{}
			}
			c.Locals(sessionLocal, session)
			return c.Next()
		},
	}
	if cfg.JWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.JWKSURL}
	}
	return jwtware.New(jwtCfg)
}

func restore(c fiber.Ctx, a *Authenticator) (Session, error) {
	token, ok := c.Locals(tokenLocal).(*jwt.Token)
	if !ok {
		return Session{}, ErrNoSession
	}
	sid, err := SessionID(token)
	if err != nil {
		return Session{}, err
	}
	return a.Restore(c.UserContext(), sid)
}

// Current returns the session attached by RequireSession or OptionalSession.
func Current(c fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(sessionLocal).(Session)
	return s, ok
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

func NewLoginLimiter(cfg config.RateLimitConfig) *LoginLimiter {
	return &LoginLimiter{
		rps:      rate.Limit(cfg.LoginRPS),
		burst:    cfg.LoginBurst,
		idle:     10 * time.Minute,
		limiters: make(map[string]*ipLimiter),
	}
}

func (l *LoginLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, il := range l.limiters {
		if now.Sub(il.last) > l.idle {
			delete(l.limiters, key)
		}
	}

	il, ok := l.limiters[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = il
	}
	il.last = now
	return il.limiter
}

func (l *LoginLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if l.rps <= 0 {
			return c.Next()
		}
		if !l.get(c.IP(), time.Now()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(apperr.ErrorMessage{
				Error:   "rate_limited",
				Message: "too many login attempts, try again shortly",
				Retry:   true,
			})
		}
		return c.Next()
	}
}
