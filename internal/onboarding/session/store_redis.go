package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"bankassist/internal/onboarding/models"
	"bankassist/internal/platform/config"
	"bankassist/internal/platform/redis"
)

// RedisStore keeps sessions in Redis so a multi-replica dev setup can share
// them. Per-user serialization still happens in-process via KeyedLock; this
// backend only changes where the snapshot lives. Abandoned conversations
// expire after config.SessionTTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(userID uuid.UUID) string {
	return "onboarding:session:" + userID.String()
}

func (s *RedisStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		sess := &models.Session{UserID: userID, State: models.StateInitial}
		if err := s.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, key(session.UserID), raw, config.SessionTTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
