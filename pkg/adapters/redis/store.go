// Package redis provides Redis-backed persistence: a ports.ResultStore for
// finished wizard results and a ports.DistributedLocker for session events.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture scores index entries of results that never expire.
const farFuture = 4102444800 // 2100-01-01

// ResultStore implements ports.ResultStore using Redis.
// Results are JSON strings; a sorted set indexes them by expiry.
type ResultStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*ResultStore)

// WithTTL sets the expiration for stored results.
func WithTTL(ttl time.Duration) Option {
	return func(s *ResultStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for results.
func WithPrefix(prefix string) Option {
	return func(s *ResultStore) {
		s.prefix = prefix
	}
}

// New creates a Redis result store connected to address.
func New(address, password string, db int, opts ...Option) *ResultStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis result store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *ResultStore {
	store := &ResultStore{
		client: client,
		prefix: "stepwise:result:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *ResultStore) Client() *backend.Client {
	return s.client
}

func (s *ResultStore) key(id string) string {
	return s.prefix + id
}

func (s *ResultStore) indexKey() string {
	return s.prefix + "index"
}

// Save persists the result to Redis.
func (s *ResultStore) Save(ctx context.Context, result *domain.WizardResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(result.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: result.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a result from Redis.
func (s *ResultStore) Load(ctx context.Context, id string) (*domain.WizardResult, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result domain.WizardResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Delete removes a result and its index entry.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored result IDs, pruning expired index entries first.
func (s *ResultStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired results: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *ResultStore) Close() error {
	return s.client.Close()
}
