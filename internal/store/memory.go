package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/happyshelf/backend/internal/models"
)

// MemoryStore is the development fallback used when no database is
// configured or reachable. Contents are lost on restart. The maps are
// mutex-guarded because HTTP handlers run concurrently.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User
	itemsByOwner map[string][]*models.InventoryItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByID:    make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		itemsByOwner: make(map[string][]*models.InventoryItem),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.usersByID[u.ID] = u
	s.usersByEmail[u.Email] = u

	copied := *u
	return &copied, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) FindByOwner(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.itemsByOwner[ownerID]
	// Insertion order is oldest-first; the API contract is newest-first.
	out := make([]models.InventoryItem, 0, len(owned))
	for i := len(owned) - 1; i >= 0; i-- {
		out = append(out, *owned[i])
	}
	return out, nil
}

func (s *MemoryStore) FindOneScoped(ctx context.Context, id, ownerID string) (*models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.itemsByOwner[ownerID] {
		if it.ID == id {
			copied := *it
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Insert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *item
	stored.ID = uuid.New().String()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.itemsByOwner[stored.UserID] = append(s.itemsByOwner[stored.UserID], &stored)

	copied := stored
	return &copied, nil
}

func (s *MemoryStore) UpdateScoped(ctx context.Context, id, ownerID string, patch ItemPatch) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.itemsByOwner[ownerID] {
		if it.ID != id {
			continue
		}
		if patch.Name != nil {
			it.Name = *patch.Name
		}
		if patch.Category != nil {
			it.Category = *patch.Category
		}
		if patch.Quantity != nil {
			it.Quantity = *patch.Quantity
		}
		if patch.DailyUsage != nil {
			it.DailyUsage = *patch.DailyUsage
		}
		if patch.SetExpiry {
			it.ExpiryDate = patch.ExpiryDate
		}
		it.UpdatedAt = time.Now().UTC()

		copied := *it
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeleteScoped(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.itemsByOwner[ownerID]
	for i, it := range owned {
		if it.ID == id {
			s.itemsByOwner[ownerID] = append(owned[:i], owned[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
