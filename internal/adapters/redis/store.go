package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/waypoint/internal/adapters/codec"
	"github.com/aretw0/waypoint/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "waypoint:state:"

// Store implements ports.StateStore using Redis.
// The revision check runs inside a WATCH/MULTI transaction.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the document, failing with domain.ErrRevisionConflict if
// a newer revision is stored or the key changes during the transaction.
func (s *Store) Save(ctx context.Context, key string, doc *domain.Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	next := doc.Revision + 1
	data, err := codec.Encode(doc, next, false)
	if err != nil {
		return err
	}

	// Score = Now + TTL. If TTL = 0, Score = far future.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	txf := func(tx *backend.Tx) error {
		current, err := tx.Get(ctx, s.key(key)).Bytes()
		if err != nil && !errors.Is(err, backend.Nil) {
			return fmt.Errorf("failed to read revision: %w", err)
		}
		if err == nil {
			if err := codec.Check(codec.Revision(current), doc); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, s.key(key), data, s.ttl)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: key})
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, s.key(key))
	if errors.Is(err, backend.TxFailedErr) {
		return fmt.Errorf("%w: key changed during save", domain.ErrRevisionConflict)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRevisionConflict) {
			return err
		}
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	doc.Revision = next
	return nil
}

// Load retrieves the document from Redis.
func (s *Store) Load(ctx context.Context, key string) (*domain.Document, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return codec.Decode(val)
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored keys from the ZSET index, pruning expired entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired documents: %w", err)
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return keys, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
