package memory

import (
	"context"
	"sort"
	"sync"

	"pathway-quiz-service/internal/domain"
)

// ShopStore is an in-memory implementation of app.ShopRepository.
type ShopStore struct {
	mu       sync.RWMutex
	items    map[int64]domain.Item
	profiles map[int64]*domain.Profile
}

func NewShopStore(items []domain.Item) *ShopStore {
	s := &ShopStore{
		items:    make(map[int64]domain.Item, len(items)),
		profiles: make(map[int64]*domain.Profile),
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *ShopStore) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ShopStore) GetItem(_ context.Context, itemID int64) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (s *ShopStore) Profile(_ context.Context, userID int64) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{UserID: userID, Owned: []int64{}}, nil
	}
	cp := *p
	cp.Owned = append([]int64{}, p.Owned...)
	return cp, nil
}

func (s *ShopStore) profileLocked(userID int64) *domain.Profile {
	p, ok := s.profiles[userID]
	if !ok {
		p = &domain.Profile{UserID: userID, Owned: []int64{}}
		s.profiles[userID] = p
	}
	return p
}

func (s *ShopStore) Purchase(_ context.Context, userID int64, item domain.Item, earned int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profileLocked(userID)
	if p.Owns(item.ID) {
		return domain.ErrItemOwned
	}
	if p.SpentPoints+item.Cost > earned {
		return domain.ErrInsufficientPoints
	}
	p.SpentPoints += item.Cost
	p.Owned = append(p.Owned, item.ID)
	return nil
}

func (s *ShopStore) Equip(_ context.Context, userID int64, item domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profileLocked(userID)
	if !p.Owns(item.ID) {
		return domain.ErrItemNotOwned
	}
	id := item.ID
	switch item.Kind {
	case domain.ItemAvatar:
		p.AvatarID = &id
	case domain.ItemDecoration:
		p.DecorationID = &id
	}
	return nil
}
