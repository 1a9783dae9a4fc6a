package service

import (
	"context"
	"time"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/repository"
)

// UserStore persists accounts.  Create reports a taken username with
// repository.ErrUsernameExists; lookups report repository.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// ProductStore persists the catalog.
type ProductStore interface {
	List(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, q repository.ProductSearchQuery) ([]model.Product, int64, error)
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, id uint64, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id uint64) error
}

// CartStore persists carts.  Add must increment atomically and
// SetQuantity must overwrite atomically; both are keyed by (user, product).
type CartStore interface {
	Add(ctx context.Context, userID, productID uint64, qty uint32) error
	Lines(ctx context.Context, userID uint64) ([]model.CartLine, error)
	Remove(ctx context.Context, userID, productID uint64) error
	SetQuantity(ctx context.Context, userID, productID uint64, qty uint32) error
}

// OrderStore persists orders.  PlaceFromCart must create the orders and
// clear the cart in a single transaction; UpdateStatus must only apply
// while the order is still in the from status.
type OrderStore interface {
	PlaceFromCart(ctx context.Context, userID uint64, now time.Time) ([]model.Order, error)
	Create(ctx context.Context, o *model.Order) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.OrderStatus) error
}

// CacheInvalidator drops cached catalog responses after a mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
