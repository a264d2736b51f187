package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements DurableStore using Redis. It is the durable tier
// behind the in-memory registry; on process restart only sessions written
// here are recoverable.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all session keys (default: "calmloop:session:").
	Prefix string
	// SessionTTL is the session expiry duration (0 = never expire).
	SessionTTL time.Duration
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore creates a Redis durable store and verifies connectivity.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "calmloop:session:"
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    cfg.SessionTTL,
	}, nil
}

// NewRedisStoreFromClient creates a store from an existing client.
// This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "calmloop:session:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key helpers
func (s *RedisStore) sessionKey(sessionID string) string {
	return s.prefix + "meta:" + sessionID
}

func (s *RedisStore) entriesKey(sessionID string) string {
	return s.prefix + "entries:" + sessionID
}

func (s *RedisStore) userIndexKey(userID string) string {
	return s.prefix + "user:" + userID
}

func (s *RedisStore) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}
	return nil
}

// SaveSession creates or updates the session record (log excluded).
func (s *RedisStore) SaveSession(ctx context.Context, rec *Record) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	// Entries are mirrored separately through AppendEntry.
	meta := rec.Clone()
	meta.Log = nil

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(rec.ID), data, s.ttl)
	if rec.UserID != "" {
		pipe.SAdd(ctx, s.userIndexKey(rec.UserID), rec.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// LoadSession retrieves a session record by ID, without its log.
func (s *RedisStore) LoadSession(ctx context.Context, sessionID string) (*Record, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &rec, nil
}

// AppendEntry appends one conversation entry to the session's log.
func (s *RedisStore) AppendEntry(ctx context.Context, sessionID string, entry Entry) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := s.client.RPush(ctx, s.entriesKey(sessionID), data).Err(); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if s.ttl > 0 {
		// Expire failure is non-fatal; the entry was already saved and the
		// TTL will be applied on the next successful Expire call.
		_ = s.client.Expire(ctx, s.entriesKey(sessionID), s.ttl).Err()
	}

	return nil
}

// LoadEntries retrieves all entries for a session in append order.
func (s *RedisStore) LoadEntries(ctx context.Context, sessionID string) ([]Entry, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	data, err := s.client.LRange(ctx, s.entriesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	entries := make([]Entry, 0, len(data))
	for _, d := range data {
		var entry Entry
		if err := json.Unmarshal([]byte(d), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ListUserSessions returns a user's sessions, most recent first.
func (s *RedisStore) ListUserSessions(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, s.userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.LoadSession(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// Session expired or was deleted, clean up the index.
				s.client.SRem(ctx, s.userIndexKey(userID), id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, rec)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	return sessions, nil
}

// DeleteSession removes a session and its entries.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	rec, err := s.LoadSession(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.sessionKey(sessionID))
	pipe.Del(ctx, s.entriesKey(sessionID))
	if rec != nil && rec.UserID != "" {
		pipe.SRem(ctx, s.userIndexKey(rec.UserID), sessionID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}

// Close releases resources held by the store.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.client.Close()
}
