package service

import (
	"context"
	"errors"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/repository"
)

const (
	msgCartProductNotFound = "Product not found."
	msgNotInCart           = "Product not found in cart."
	msgQuantityPositive    = "Quantity must be a positive integer."
	maxCartQuantity        = int64(^uint32(0))
	msgQuantityTooLarge    = "Quantity is too large."
)

// CartService manages the caller's own cart.  Every operation is scoped
// to the authenticated user; there is no way to address another user's
// cart.
type CartService struct {
	carts CartStore
}

// NewCartService wires a CartService.
func NewCartService(carts CartStore) *CartService { return &CartService{carts: carts} }

// Add puts qty units of productID in the cart, incrementing an existing
// entry.
func (s *CartService) Add(ctx context.Context, p Principal, productID uint64, qty int64) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if productID == 0 {
		return notFound(msgCartProductNotFound)
	}
	if err := s.carts.Add(ctx, p.UserID, productID, uint32(qty)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgCartProductNotFound)
		}
		if errors.Is(err, repository.ErrQuantityTooLarge) {
			return validation(msgQuantityTooLarge)
		}
		return internal(err)
	}
	return nil
}

// View returns the cart lines with their totals.  An empty cart is an
// empty slice, not an error.
func (s *CartService) View(ctx context.Context, p Principal) ([]model.CartLine, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	lines, err := s.carts.Lines(ctx, p.UserID)
	if err != nil {
		return nil, internal(err)
	}
	return lines, nil
}

// Remove drops productID from the cart.
func (s *CartService) Remove(ctx context.Context, p Principal, productID uint64) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if err := s.carts.Remove(ctx, p.UserID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgNotInCart)
		}
		return internal(err)
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing entry.  A
// non-positive quantity is rejected before the store is touched.
func (s *CartService) SetQuantity(ctx context.Context, p Principal, productID uint64, qty int64) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if err := s.carts.SetQuantity(ctx, p.UserID, productID, uint32(qty)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgNotInCart)
		}
		return internal(err)
	}
	return nil
}

func checkQuantity(qty int64) error {
	if qty <= 0 {
		return validation(msgQuantityPositive)
	}
	if qty > maxCartQuantity {
		return validation(msgQuantityTooLarge)
	}
	return nil
}
