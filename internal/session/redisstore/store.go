// Package redisstore implements the session store over Redis.
//
// Redis owns session expiry through key TTLs, so a session that outlives
// its TTL simply stops resolving. The store never interprets the payload
// beyond the shared JSON codec.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huddleworks/huddle/internal/session"
)

const defaultKeyPrefix = "huddle:sess:"

// Store implements session.Store over a Redis client.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New wraps a Redis client in a session store. An empty prefix falls back
// to the canonical one.
func New(client *redis.Client, keyPrefix string) *Store {
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

// Open dials Redis and verifies connectivity before returning a store.
func Open(ctx context.Context, addr string) (*Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, ""), nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Lookup resolves a session key, mapping redis.Nil to session.ErrNotFound
// and any transport failure to session.ErrUnavailable.
func (s *Store) Lookup(ctx context.Context, key string) (session.Session, error) {
	payload, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("%w: get session: %w", session.ErrUnavailable, err)
	}

	sess, err := session.Decode(payload)
	if err != nil {
		// A corrupt blob is indistinguishable from a missing session for
		// authorization purposes.
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// Put stores a session under the key with the given TTL.
func (s *Store) Put(ctx context.Context, key string, sess session.Session, ttl time.Duration) error {
	payload, err := session.Encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set session: %w", session.ErrUnavailable, err)
	}
	return nil
}

// Delete removes a session. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: delete session: %w", session.ErrUnavailable, err)
	}
	return nil
}
