package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/metrics"
)

var _ repository.PollSessionStore = (*PollSessionStore)(nil)

// PollSessionStore keeps poll session snapshots as JSON with a TTL so any instance can serve reads.
type PollSessionStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewPollSessionStore(client RedisClient, ttl time.Duration) *PollSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PollSessionStore{client: client, ttl: ttl}
}

func (s *PollSessionStore) key(id string) string {
	return fmt.Sprintf("poll_session:%s", id)
}

func (s *PollSessionStore) Put(ctx context.Context, sess *model.PollSession) error {
	if sess == nil || sess.ID == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), data, s.ttl)
}

func (s *PollSessionStore) Get(ctx context.Context, id string) (*model.PollSession, error) {
	data, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, Nil) {
			metrics.ObserveSessionLookup("store", false)
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	metrics.ObserveSessionLookup("store", true)

	var sess model.PollSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *PollSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id))
}
