package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/metrics"
	"github.com/akhilcoder7733/hotelgram/task"
)

// Credentials is the login form. The password is required but never checked.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	From     string `json:"from"`
}

// Login is a successful login: the persisted session and its bearer token.
type Login struct {
	Session Session `json:"session"`
	Token   string  `json:"token"`
}

type Authenticator struct {
	db     *gorm.DB
	store  Store
	tokens *Tokens
	clock  task.Clock
	delay  time.Duration
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time

	mu       sync.Mutex
	onEnd    []func(sessionID string)
}

type AuthOption func(*Authenticator)

// WithNow replaces the wall clock used for ids and expiry.
func WithNow(now func() time.Time) AuthOption {
	return func(a *Authenticator) { a.now = now }
}

func NewAuthenticator(db *gorm.DB, store Store, tokens *Tokens, clock task.Clock, delay, ttl time.Duration, logger *logrus.Logger, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		db:     db,
		store:  store,
		tokens: tokens,
		clock:  clock,
		delay:  delay,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnSessionEnd registers fn to run after a session is logged out or found
// expired.
func (a *Authenticator) OnSessionEnd(fn func(sessionID string)) {
	a.mu.Lock()
	a.onEnd = append(a.onEnd, fn)
	a.mu.Unlock()
}

func (a *Authenticator) ended(sessionID string) {
	a.mu.Lock()
	hooks := append([]func(string){}, a.onEnd...)
	a.mu.Unlock()
	for _, fn := range hooks {
		fn(sessionID)
	}
}

// Login validates the form, waits the simulated latency and opens a session.
// When ctx ends first nothing is created.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (Login, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := apperr.Validate(creds); err != nil {
		metrics.IncLogin("invalid")
		return Login{}, err
	}

	login, err := task.After(ctx, a.clock, a.delay, func() (Login, error) {
		return a.open(ctx, creds)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.IncLogin("cancelled")
		} else {
			metrics.IncLogin("error")
		}
		return Login{}, err
	}

	metrics.IncLogin("success")
	a.logger.WithFields(logrus.Fields{"path": "user/auth", "user": login.Session.UserID}).Info("logged in")
	return login, nil
}

func (a *Authenticator) open(ctx context.Context, creds Credentials) (Login, error) {
	now := a.now()

	u, err := a.upsert(ctx, creds, now)
	if err != nil {
		return Login{}, fmt.Errorf("save user: %w", err)
	}

	session := Session{
		ID:        uuid.NewString(),
		UserID:    u.PublicID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: now,
		ExpiresAt: Lifetime(now, a.ttl),
	}
	if err := a.store.Save(ctx, session); err != nil {
		return Login{}, fmt.Errorf("save session: %w", err)
	}

	token, err := a.tokens.Issue(session)
	if err != nil {
		_ = a.store.Delete(ctx, session.ID)
		return Login{}, fmt.Errorf("sign token: %w", err)
	}
	return Login{Session: session, Token: token}, nil
}

func (a *Authenticator) upsert(ctx context.Context, creds Credentials, now time.Time) (User, error) {
	db := a.db.WithContext(ctx)

	var u User
	if err := db.Where(User{Email: creds.Email}).FirstOrInit(&u).Error; err != nil {
		return User{}, err
	}

	if u.ID == 0 {
		u.Name = displayName(creds.Email)
		id, err := a.publicID(db, now)
		if err != nil {
			return User{}, err
		}
		u.PublicID = id
	}
	u.Credential = creds.Password
	u.LastLoginAt = now

	return u, db.Save(&u).Error
}

// publicID is u_<unix millis>, bumped while another user holds it.
func (a *Authenticator) publicID(db *gorm.DB, now time.Time) (string, error) {
	millis := now.UnixMilli()
	for {
		id := fmt.Sprintf("u_%d", millis)
		var taken int64
		if err := db.Model(&User{}).Where("public_id = ?", id).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return id, nil
		}
		millis++
	}
}

func displayName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// Restore loads a live session. Expired sessions are removed and reported
// as missing.
func (a *Authenticator) Restore(ctx context.Context, sessionID string) (Session, error) {
	session, err := a.store.Load(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.Expired(a.now()) {
		_ = a.store.Delete(ctx, sessionID)
		a.ended(sessionID)
		return Session{}, ErrNoSession
	}
	return session, nil
}

// Logout destroys the session. Logging out twice is not an error.
func (a *Authenticator) Logout(ctx context.Context, sessionID string) error {
	if err := a.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	a.ended(sessionID)

	a.logger.WithFields(logrus.Fields{"path": "user/auth", "session": sessionID}).Info("logged out")
	return nil
}

// Tokens exposes the signer so middleware can verify with the same secret.
func (a *Authenticator) Tokens() *Tokens {
	return a.tokens
}

// Profile returns the stored user behind a session.
func (a *Authenticator) Profile(ctx context.Context, s Session) (User, error) {
	var u User
	result := a.db.WithContext(ctx).Where("public_id = ?", s.UserID).First(&u)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return User{}, &apperr.NotFoundError{Kind: "user", ID: s.UserID}
	}
	return u, result.Error
}
