package identity

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore keeps members in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[int64]Member
	byLogin map[string]int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]Member),
		byLogin: make(map[string]int64),
	}
}

func (s *MemoryStore) Save(ctx context.Context, in NewMember) (Member, error) {
	const op = "identity.MemoryStore.Save"

	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	if in.LoginID == "" || in.PasswordHash == "" {
		return Member{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "login id and password hash are required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLogin[in.LoginID]; taken {
		return Member{}, ConflictError{Op: op, Field: "loginId"}
	}

	s.seq++
	m := Member{
		ID:           s.seq,
		LoginID:      in.LoginID,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
	}
	s.byID[m.ID] = m
	s.byLogin[m.LoginID] = m.ID
	return m, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}

	s.mu.RLock()
	m, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Member{}, NotFoundError{Op: "identity.MemoryStore.FindByID", Resource: "member " + strconv.FormatInt(id, 10)}
	}
	return m, nil
}

func (s *MemoryStore) FindByLoginID(ctx context.Context, loginID string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byLogin[loginID]
	if !ok {
		return Member{}, NotFoundError{Op: "identity.MemoryStore.FindByLoginID", Resource: "member"}
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Member, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return NotFoundError{Op: "identity.MemoryStore.UpdatePasswordHash", Resource: "member " + strconv.FormatInt(id, 10)}
	}
	m.PasswordHash = hash
	s.byID[id] = m
	return nil
}
