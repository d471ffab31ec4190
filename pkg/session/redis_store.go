package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/trialbill/pkg/account"
)

// RedisStore keeps sessions and OAuth state in Redis with native expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store that namespaces keys with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if client == nil {
		panic("session: redis client is required")
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrInvalidSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	sess.Token = token
	if sess.IsExpired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) StoreState(ctx context.Context, state string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return account.ErrStateNotFound
	}
	if err := s.client.Set(ctx, s.stateKey(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set state: %w", err)
	}
	return nil
}

// ConsumeState uses GETDEL so two concurrent callbacks cannot both succeed.
func (s *RedisStore) ConsumeState(ctx context.Context, state string) error {
	if err := s.client.GetDel(ctx, s.stateKey(state)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return account.ErrStateNotFound
		}
		return fmt.Errorf("session: redis getdel state: %w", err)
	}
	return nil
}

func (s *RedisStore) sessionKey(token string) string {
	return s.prefix + "session:" + token
}

func (s *RedisStore) stateKey(state string) string {
	return s.prefix + "oauth_state:" + state
}

var _ StateStore = (*RedisStore)(nil)
