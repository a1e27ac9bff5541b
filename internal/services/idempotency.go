package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reservation is the outcome of claiming a checkout key.
// Acquired means the caller owns the key and must Complete or Release it.
// PaymentID > 0 means an earlier attempt already produced that payment.
type Reservation struct {
	Acquired  bool
	PaymentID int64
}

// IdempotencyStore guards against the same checkout being submitted twice.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error)
	Complete(ctx context.Context, key string, paymentID int64, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const (
	idemKeyPrefix = "medspa:checkout:"
	idemPending   = "pending"
)

// RedisIdempotencyStore shares reservations across API instances.
type RedisIdempotencyStore struct {
	Client *redis.Client
}

func (s RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error) {
	k := idemKeyPrefix + key
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.Client.SetNX(ctx, k, idemPending, ttl).Result()
		if err != nil {
			return Reservation{}, err
		}
		if ok {
			return Reservation{Acquired: true}, nil
		}
		v, err := s.Client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return Reservation{}, err
		}
		if v == idemPending {
			return Reservation{}, nil
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Reservation{}, nil
		}
		return Reservation{PaymentID: id}, nil
	}
	return Reservation{}, nil
}

func (s RedisIdempotencyStore) Complete(ctx context.Context, key string, paymentID int64, ttl time.Duration) error {
	return s.Client.Set(ctx, idemKeyPrefix+key, strconv.FormatInt(paymentID, 10), ttl).Err()
}

func (s RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, idemKeyPrefix+key).Err()
}

type memEntry struct {
	paymentID int64
	expires   time.Time
}

// MemoryIdempotencyStore is the single-process fallback when Redis is not configured.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	Now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: map[string]memEntry{}, Now: time.Now}
}

func (s *MemoryIdempotencyStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	if e, ok := s.entries[key]; ok {
		return Reservation{PaymentID: e.paymentID}, nil
	}
	s.entries[key] = memEntry{expires: now.Add(ttl)}
	return Reservation{Acquired: true}, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, paymentID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memEntry{paymentID: paymentID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
