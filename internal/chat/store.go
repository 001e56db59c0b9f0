package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var storeTracer = otel.Tracer("clinic.internal.chat.store")

// SessionStore persists one Session per browsing session id.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, sessionID string, s *Session) error
	Clear(ctx context.Context, sessionID string) error
}

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func SessionKey(sessionID string) string {
	return "chat_session:" + sessionID
}

// Load returns an empty session when nothing is stored.
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := storeTracer.Start(ctx, "chat.session.load")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.chat_session", sessionID))

	raw, err := s.client.Get(ctx, SessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("load chat session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("decode chat session: %w", err)
	}
	return &sess, nil
}

// Save writes the session and refreshes its TTL. A session without messages is not stored.
func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, sess *Session) error {
	if sess == nil || len(sess.Messages) == 0 {
		return nil
	}
	ctx, span := storeTracer.Start(ctx, "chat.session.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.chat_session", sessionID),
		attribute.Int("clinic.chat_messages", len(sess.Messages)),
	)

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode chat session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("save chat session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat session: %w", err)
	}
	return nil
}
