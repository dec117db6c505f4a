package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in a TTL cache; single instance only.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

func (s *MemoryStore) Create(_ context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(token, userID)
	return token, nil
}

func (s *MemoryStore) Resolve(_ context.Context, token string) (int64, error) {
	v, ok := s.cache.Get(token)
	if !ok {
		return 0, ErrInvalidSession
	}
	return v.(int64), nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.cache.Delete(token)
	return nil
}
