package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pathway-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

// ShopStore keeps the item catalog and user inventories.
type ShopStore struct {
	db *bun.DB
}

func NewShopStore(db *bun.DB) *ShopStore {
	return &ShopStore{db: db}
}

func (s *ShopStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	var rows []itemModel
	if err := s.db.NewSelect().Model(&rows).Order("id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]domain.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toDomain())
	}
	return items, nil
}

func (s *ShopStore) GetItem(ctx context.Context, itemID int64) (domain.Item, error) {
	m := new(itemModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", itemID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("get item %d: %w", itemID, err)
	}
	return m.toDomain(), nil
}

// Profile returns the stored profile or an empty one for users who never bought anything.
func (s *ShopStore) Profile(ctx context.Context, userID int64) (domain.Profile, error) {
	profile := domain.Profile{UserID: userID, Owned: []int64{}}

	m := new(profileModel)
	err := s.db.NewSelect().Model(m).Where("user_id = ?", userID).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.Profile{}, fmt.Errorf("get profile %d: %w", userID, err)
	default:
		profile.SpentPoints = m.SpentPoints
		profile.AvatarID = m.AvatarID
		profile.DecorationID = m.DecorationID
	}

	var owned []int64
	err = s.db.NewSelect().
		Model((*userItemModel)(nil)).
		Column("item_id").
		Where("user_id = ?", userID).
		Order("item_id").
		Scan(ctx, &owned)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list owned items: %w", err)
	}
	profile.Owned = append(profile.Owned, owned...)
	return profile, nil
}

// Purchase adds the item and charges its cost in one transaction. The charge is
// guarded in SQL so concurrent purchases cannot overspend.
func (s *ShopStore) Purchase(ctx context.Context, userID int64, item domain.Item, earned int) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&profileModel{UserID: userID}).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("ensure profile: %w", err)
		}

		res, err := tx.NewInsert().
			Model(&userItemModel{UserID: userID, ItemID: item.ID}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("add item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrItemOwned
		}

		res, err = tx.NewUpdate().
			Model((*profileModel)(nil)).
			Set("spent_points = spent_points + ?", item.Cost).
			Where("user_id = ?", userID).
			Where("spent_points + ? <= ?", item.Cost, earned).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("charge points: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInsufficientPoints
		}
		return nil
	})
}

// Equip fills the slot matching the item kind, provided the user owns the item.
func (s *ShopStore) Equip(ctx context.Context, userID int64, item domain.Item) error {
	column := "avatar_id"
	if item.Kind == domain.ItemDecoration {
		column = "decoration_id"
	}
	res, err := s.db.NewUpdate().
		Model((*profileModel)(nil)).
		Set("? = ?", bun.Ident(column), item.ID).
		Where("user_id = ?", userID).
		Where("EXISTS (SELECT 1 FROM user_items WHERE user_id = ? AND item_id = ?)", userID, item.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("equip item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrItemNotOwned
	}
	return nil
}

// SeedCatalog inserts items that are not present yet, keyed by id.
func (s *ShopStore) SeedCatalog(ctx context.Context, items []domain.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]itemModel, 0, len(items))
	for _, item := range items {
		cost := item.Cost
		if cost == 0 {
			cost = domain.DefaultItemCost
		}
		rows = append(rows, itemModel{ID: item.ID, Kind: string(item.Kind), Name: item.Name, Image: item.Image, Cost: cost})
	}
	res, err := s.db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	n, _ := res.RowsAffected()
	// explicit ids leave the serial behind
	if _, err := s.db.ExecContext(ctx,
		"SELECT setval(pg_get_serial_sequence('shop_items', 'id'), (SELECT MAX(id) FROM shop_items))"); err != nil {
		return int(n), fmt.Errorf("sync item sequence: %w", err)
	}
	return int(n), nil
}

func (m itemModel) toDomain() domain.Item {
	return domain.Item{ID: m.ID, Kind: domain.ItemKind(m.Kind), Name: m.Name, Image: m.Image, Cost: m.Cost}
}
