package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"projector-server/internal/models"
)

// RedisActiveSlideStore keeps the active slide under one Redis key so
// several server instances share it.
type RedisActiveSlideStore struct {
	client *redis.Client
	key    string
}

// NewRedisClient parses redisURL and checks the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisActiveSlideStore creates a store on an existing client
func NewRedisActiveSlideStore(client *redis.Client, key string) *RedisActiveSlideStore {
	return &RedisActiveSlideStore{
		client: client,
		key:    key,
	}
}

// maxUpdateAttempts bounds the optimistic retries of Update under contention
const maxUpdateAttempts = 100

// ErrUpdateConflict is returned when Update keeps losing to concurrent writers
var ErrUpdateConflict = errors.New("active slide update conflict")

// Read implements ActiveSlideStore. A missing key reads as an empty slide.
func (s *RedisActiveSlideStore) Read(ctx context.Context) (models.ActiveSlide, error) {
	return s.get(ctx, s.client)
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisActiveSlideStore) get(ctx context.Context, cmd getter) (models.ActiveSlide, error) {
	data, err := cmd.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ActiveSlide{}, nil
	}
	if err != nil {
		return models.ActiveSlide{}, fmt.Errorf("read active slide: %w", err)
	}

	var slide models.ActiveSlide
	if err := json.Unmarshal(data, &slide); err != nil {
		return models.ActiveSlide{}, fmt.Errorf("unmarshal active slide: %w", err)
	}
	return slide, nil
}

// Replace implements ActiveSlideStore
func (s *RedisActiveSlideStore) Replace(ctx context.Context, slide models.ActiveSlide) error {
	data, err := json.Marshal(slide)
	if err != nil {
		return fmt.Errorf("marshal active slide: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save active slide: %w", err)
	}
	return nil
}

// Update implements SlideUpdater with WATCH/MULTI. If another instance
// writes the key between the read and the write, the transaction aborts
// and step runs again on the fresh record.
func (s *RedisActiveSlideStore) Update(ctx context.Context, step func(*models.ActiveSlide) bool) (models.ActiveSlide, bool, error) {
	var (
		slide   models.ActiveSlide
		changed bool
	)
	txf := func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		changed = step(&current)
		slide = current
		if !changed {
			return nil
		}

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal active slide: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return models.ActiveSlide{}, false, fmt.Errorf("update active slide: %w", err)
		}
		return slide, changed, nil
	}
	return models.ActiveSlide{}, false, ErrUpdateConflict
}
