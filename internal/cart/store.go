package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Key identifies one open cart. A cashier has at most one cart per kind.
type Key struct {
	ShopID uuid.UUID
	UserID uuid.UUID
	Kind   Kind
}

func (k Key) String() string {
	return fmt.Sprintf("cart:%s:%s:%s", k.ShopID, k.UserID, k.Kind)
}

// Store persists carts between requests. Load returns an empty cart when
// none is stored.
type Store interface {
	Load(ctx context.Context, key Key) (*Cart, error)
	Save(ctx context.Context, key Key, c *Cart) error
	Delete(ctx context.Context, key Key) error
}

// MemoryStore keeps carts in process. Carts are copied in and out so callers
// never share a slice with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[Key][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, key Key) (*Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[key]
	s.mu.RUnlock()
	if !ok {
		return New(key.Kind), nil
	}
	return decode(raw, key.Kind)
}

func (s *MemoryStore) Save(_ context.Context, key Key, c *Cart) error {
	raw, err := jsonMarshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.carts, key)
	s.mu.Unlock()
	return nil
}

func jsonMarshal(c *Cart) ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return raw, nil
}

func decode(raw []byte, kind Kind) (*Cart, error) {
	c := New(kind)
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	c.Kind = kind
	return c, nil
}
