package domain

// ItemKind distinguishes the two profile slots an item can fill.
type ItemKind string

const (
	ItemAvatar     ItemKind = "avatar"
	ItemDecoration ItemKind = "decoration"
)

// DefaultItemCost is charged for items seeded without an explicit cost.
const DefaultItemCost = 25

// Item is something a user can buy with points.
type Item struct {
	ID    int64    `json:"id"`
	Kind  ItemKind `json:"kind"`
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Cost  int      `json:"cost"`
}

// Profile is a user's shop state.
type Profile struct {
	UserID       int64   `json:"userId"`
	SpentPoints  int     `json:"spentPoints"`
	AvatarID     *int64  `json:"avatarId"`
	DecorationID *int64  `json:"decorationId"`
	Owned        []int64 `json:"owned"`
}

// Owns reports whether the item is in the profile inventory.
func (p Profile) Owns(itemID int64) bool {
	for _, id := range p.Owned {
		if id == itemID {
			return true
		}
	}
	return false
}

// Balance is the spendable points of a user.
type Balance struct {
	UserID    int64 `json:"userId"`
	Earned    int   `json:"earned"`
	Spent     int   `json:"spent"`
	Available int   `json:"available"`
}

// DefaultCatalog is the item set shipped with a fresh install.
func DefaultCatalog() []Item {
	names := []struct {
		kind ItemKind
		name string
		img  string
	}{
		{ItemAvatar, "Cat", "images/icon-avatar-cat.png"},
		{ItemAvatar, "Dog", "images/icon-avatar-dog.png"},
		{ItemAvatar, "Duck", "images/icon-avatar-duck.png"},
		{ItemAvatar, "Lily", "images/icon-avatar-lily.png"},
		{ItemAvatar, "Snail", "images/icon-avatar-snail.png"},
		{ItemDecoration, "Crown", "images/icon-hat-crown.png"},
		{ItemDecoration, "Propellor Hat", "images/icon-hat-propellor.png"},
		{ItemDecoration, "Wizard Hat", "images/icon-hat-wizard.png"},
	}
	items := make([]Item, 0, len(names))
	for i, n := range names {
		items = append(items, Item{
			ID:    int64(i + 1),
			Kind:  n.kind,
			Name:  n.name,
			Image: n.img,
			Cost:  DefaultItemCost,
		})
	}
	return items
}
