package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:session:"

// RedisStore keeps the session to thread mapping in Redis with a sliding TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Get returns the thread id of a session and extends its expiry
func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	threadID, err := s.client.GetEx(ctx, sessionKey(sessionID), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	return threadID, nil
}

// PutIfAbsent stores threadID with SETNX so concurrent writers agree on one thread
func (s *RedisStore) PutIfAbsent(ctx context.Context, sessionID, threadID string) (string, error) {
	ok, err := s.client.SetNX(ctx, sessionKey(sessionID), threadID, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	if ok {
		return threadID, nil
	}

	existing, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		// expired between SETNX and GET
		return s.PutIfAbsent(ctx, sessionID, threadID)
	}
	return existing, err
}
