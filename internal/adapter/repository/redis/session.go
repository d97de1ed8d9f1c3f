package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore implements usecase.SessionStore. Each session is a key with
// its own TTL, indexed by a per-user set so every session of a user can be
// revoked at once.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

func (s *SessionStore) indexKey(userID string) string {
	return fmt.Sprintf("%s{%s}", s.prefix, userID)
}

func (s *SessionStore) sessionPrefix(userID string) string {
	return s.indexKey(userID) + ":"
}

func (s *SessionStore) sessionKey(userID, sessionID string) string {
	return s.sessionPrefix(userID) + sessionID
}

// Add registers a session that expires after ttl.
func (s *SessionStore) Add(ctx context.Context, userID, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	keys := []string{s.sessionKey(userID, sessionID), s.indexKey(userID)}
	return scriptSessionAdd.Run(ctx, s.client, keys, sessionID, ttl.Milliseconds()).Err()
}

// Exists reports whether the session is still active.
func (s *SessionStore) Exists(ctx context.Context, userID, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.sessionKey(userID, sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke ends a single session.
func (s *SessionStore) Revoke(ctx context.Context, userID, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(userID, sessionID))
		pipe.SRem(ctx, s.indexKey(userID), sessionID)
		return nil
	})
	return err
}

// RevokeAll ends every session of the user.
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	keys := []string{s.indexKey(userID)}
	return scriptSessionRevokeAll.Run(ctx, s.client, keys, s.sessionPrefix(userID)).Err()
}
