package item

import (
	"context"
	"sort"
	"sync"
)

// Store persists items. Missing ids yield an error wrapping ErrNotFound.
type Store interface {
	Save(ctx context.Context, it Item) (Item, error)
	FindByID(ctx context.Context, id int64) (Item, error)
	FindAll(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, id int64, it Item) error
}

// MemoryStore keeps items in process memory with sequential ids.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]Item
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]Item)}
}

func (s *MemoryStore) Save(ctx context.Context, it Item) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	it.ID = s.seq
	s.items[it.ID] = clone(it)
	return it, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	s.mu.RLock()
	it, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return Item{}, notFound(id)
	}
	return clone(it), nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, clone(it))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update replaces name, price and quantity of item id.
func (s *MemoryStore) Update(ctx context.Context, id int64, it Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return notFound(id)
	}
	it.ID = id
	s.items[id] = clone(it)
	return nil
}

// clone detaches the pointer fields so callers cannot mutate stored state.
func clone(it Item) Item {
	if it.Price != nil {
		p := *it.Price
		it.Price = &p
	}
	if it.Quantity != nil {
		q := *it.Quantity
		it.Quantity = &q
	}
	return it
}
