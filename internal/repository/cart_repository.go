package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/shop-api/internal/database"
	"github.com/iliyamo/shop-api/internal/model"
)

// CartRepo manages the per-user cart stored in `cart_items`.  Every
// method is scoped by user id; an entry owned by another user behaves
// exactly like a missing one.
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a CartRepo bound to db.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// Add puts qty units of a product in the user's cart.  If an entry for
// the pair already exists its quantity is incremented in the same
// statement, so concurrent adds never lose an increment.  ErrNotFound is
// returned when the product does not exist, ErrQuantityTooLarge when the
// sum overflows the column.
func (r *CartRepo) Add(ctx context.Context, userID, productID uint64, qty uint32) error {
	const q = `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	if _, err := r.db.ExecContext(ctx, q, userID, productID, qty); err != nil {
		if database.IsMySQLError(err, database.ErrNumNoReferencedRow) {
			return ErrNotFound
		}
		if database.IsMySQLError(err, database.ErrNumOutOfRange) {
			return ErrQuantityTooLarge
		}
		return err
	}
	return nil
}

// Lines returns the user's cart joined with product data, in the order
// entries were first added.
func (r *CartRepo) Lines(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	const q = `SELECT ci.product_id, p.name, p.description, p.price, p.image, ci.quantity
	           FROM cart_items ci
	           JOIN products p ON p.id = ci.product_id
	           WHERE ci.user_id = ?
	           ORDER BY ci.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var (
			l     model.CartLine
			image sql.NullString
		)
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Description, &l.Price, &image, &l.Quantity); err != nil {
			return nil, err
		}
		l.Image = stringPtr(image)
		l.Total = model.LineTotal(l.Price, l.Quantity)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Remove deletes the user's entry for productID.  ErrNotFound if there
// is none.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing entry.  ErrNotFound
// if the user has no entry for productID.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint64, qty uint32) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ? WHERE user_id = ? AND product_id = ?", qty, userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
