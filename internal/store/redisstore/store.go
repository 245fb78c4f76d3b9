// Package redisstore keeps per-conversation chat history in Redis as a
// JSON-encoded turn sequence with a rolling TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultTTL is the history expiry window when none is configured.
const DefaultTTL = 600 * time.Second

// Turn is one role-tagged message in a conversation. Turns are only ever
// appended; a stored sequence is replaced wholesale, never edited in place.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func New(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "redisstore").Logger(),
	}
}

// Get returns the stored turns for a conversation. A missing key, an
// unreachable server, or an undecodable payload all yield an empty history;
// those failures are logged here and never fail the caller's turn.
func (s *Store) Get(ctx context.Context, conversationID string) []Turn {
	raw, err := s.rdb.Get(ctx, conversationID).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("history read failed, treating as empty")
		}
		return nil
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("history payload undecodable, treating as empty")
		return nil
	}
	return turns
}

// Set overwrites the conversation's history and renews its TTL.
func (s *Store) Set(ctx context.Context, conversationID string, turns []Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.rdb.Set(ctx, conversationID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Delete removes the conversation's history immediately.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	if err := s.rdb.Del(ctx, conversationID).Err(); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
