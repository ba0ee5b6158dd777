package account

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// IDs hands out account ids from the persisted server metadata.
type IDs interface {
	AllocAccountID() uint64
}

type record struct {
	account Account
	hash    []byte
}

// MemoryStore keeps accounts in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	byID       map[uint64]*record
	byName     map[string]*record
	characters map[string]struct{}
	ids        IDs
	cost       int
}

// NewMemoryStore returns an empty store hashing with the given bcrypt cost.
func NewMemoryStore(ids IDs, cost int) *MemoryStore {
	return &MemoryStore{
		byID:       make(map[uint64]*record),
		byName:     make(map[string]*record),
		characters: make(map[string]struct{}),
		ids:        ids,
		cost:       cost,
	}
}

func (s *MemoryStore) Create(_ context.Context, name, password string) (*Account, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; ok {
		return nil, ErrNameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rec := &record{account: Account{ID: s.ids.AllocAccountID(), Name: name}, hash: hash}
	s.byID[rec.account.ID] = rec
	s.byName[name] = rec
	return rec.copy(), nil
}

func (s *MemoryStore) Login(_ context.Context, name, password string) (*Account, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	s.mu.Lock()
	rec, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return rec.copy(), nil
}

func (s *MemoryStore) AddCharacter(_ context.Context, accountID uint64, ref CharacterRef) error {
	name, err := NormalizeName(ref.Name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[accountID]
	if !ok {
		return ErrNoSuchAccount
	}
	if _, taken := s.characters[name]; taken {
		return ErrNameTaken
	}
	s.characters[name] = struct{}{}
	ref.Name = name
	rec.account.Characters = append(rec.account.Characters, ref)
	return nil
}

func (s *MemoryStore) Characters(_ context.Context, accountID uint64) ([]CharacterRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[accountID]
	if !ok {
		return nil, ErrNoSuchAccount
	}
	return slices.Clone(rec.account.Characters), nil
}

func (s *MemoryStore) UpdateLevel(_ context.Context, ref CharacterRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byID {
		for i := range rec.account.Characters {
			if rec.account.Characters[i].ID == ref.ID {
				rec.account.Characters[i].Level = ref.Level
				return nil
			}
		}
	}
	return ErrNoSuchCharacter
}

func (r *record) copy() *Account {
	a := r.account
	a.Characters = slices.Clone(a.Characters)
	return &a
}
