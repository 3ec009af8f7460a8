package user

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppKey prefixes every persisted session key.
const AppKey = "hotelgram_user"

var ErrNoSession = errors.New("no session")

// Session exists only while the user is logged in.
type Session struct {
	ID        string    `json:"sid"`
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func Key(sessionID string) string {
	return AppKey + ":" + sessionID
}

type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// SessionRecord is a session persisted by SQLStore.
type SessionRecord struct {
	SessionKey string `gorm:"primaryKey"`
	Payload    []byte
	ExpiresAt  time.Time `gorm:"index"`
}

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	record := SessionRecord{SessionKey: Key(session.ID), Payload: payload, ExpiresAt: session.ExpiresAt}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
}

func (s *SQLStore) Load(ctx context.Context, sessionID string) (Session, error) {
	var record SessionRecord
	result := s.db.WithContext(ctx).Where("session_key = ?", Key(sessionID)).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Session{}, ErrNoSession
	}
	if result.Error != nil {
		return Session{}, result.Error
	}

	var session Session
	if err := json.Unmarshal(record.Payload, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_key = ?", Key(sessionID)).Delete(&SessionRecord{}).Error
}

// RedisStore keeps sessions in redis with their remaining lifetime as TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return s.client.Set(ctx, Key(session.ID), payload, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Session, error) {
	payload, err := s.client.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, Key(sessionID)).Err()
}
