package app

import (
	"context"

	"pathway-quiz-service/internal/domain"
)

// LedgerRepository sums the points a user has been awarded.
type LedgerRepository interface {
	EarnedPoints(ctx context.Context, userID int64) (int, error)
}

// ShopRepository stores the catalog and per-user inventories.
type ShopRepository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, itemID int64) (domain.Item, error)
	Profile(ctx context.Context, userID int64) (domain.Profile, error)
	// Purchase charges item.Cost and adds the item to the inventory in one step,
	// failing with domain.ErrInsufficientPoints when spent+cost would exceed earned.
	Purchase(ctx context.Context, userID int64, item domain.Item, earned int) error
	Equip(ctx context.Context, userID int64, item domain.Item) error
}

// ShopService spends points earned in quizzes.
type ShopService struct {
	ledger LedgerRepository
	shop   ShopRepository
}

func NewShopService(ledger LedgerRepository, shop ShopRepository) *ShopService {
	return &ShopService{ledger: ledger, shop: shop}
}

func (s *ShopService) Items(ctx context.Context) ([]domain.Item, error) {
	return s.shop.ListItems(ctx)
}

func (s *ShopService) Profile(ctx context.Context, userID int64) (domain.Profile, error) {
	return s.shop.Profile(ctx, userID)
}

// Balance is the total awarded minus what the user has spent.
func (s *ShopService) Balance(ctx context.Context, userID int64) (domain.Balance, error) {
	earned, err := s.ledger.EarnedPoints(ctx, userID)
	if err != nil {
		return domain.Balance{}, err
	}
	profile, err := s.shop.Profile(ctx, userID)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{
		UserID:    userID,
		Earned:    earned,
		Spent:     profile.SpentPoints,
		Available: earned - profile.SpentPoints,
	}, nil
}

// Purchase buys an item the user does not own yet.
func (s *ShopService) Purchase(ctx context.Context, userID, itemID int64) (domain.Balance, error) {
	item, err := s.shop.GetItem(ctx, itemID)
	if err != nil {
		return domain.Balance{}, err
	}
	profile, err := s.shop.Profile(ctx, userID)
	if err != nil {
		return domain.Balance{}, err
	}
	if profile.Owns(itemID) {
		return domain.Balance{}, domain.ErrItemOwned
	}
	earned, err := s.ledger.EarnedPoints(ctx, userID)
	if err != nil {
		return domain.Balance{}, err
	}
	if err := s.shop.Purchase(ctx, userID, item, earned); err != nil {
		return domain.Balance{}, err
	}
	return s.Balance(ctx, userID)
}

// Equip puts an owned item into the avatar or decoration slot.
func (s *ShopService) Equip(ctx context.Context, userID, itemID int64) (domain.Profile, error) {
	item, err := s.shop.GetItem(ctx, itemID)
	if err != nil {
		return domain.Profile{}, err
	}
	profile, err := s.shop.Profile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !profile.Owns(itemID) {
		return domain.Profile{}, domain.ErrItemNotOwned
	}
	if err := s.shop.Equip(ctx, userID, item); err != nil {
		return domain.Profile{}, err
	}
	return s.shop.Profile(ctx, userID)
}
