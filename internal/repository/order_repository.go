package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/shop-api/internal/database"
	"github.com/iliyamo/shop-api/internal/model"
)

// OrderRepo stores orders.  Each order row covers a single product; a
// checkout of a cart with N entries creates N orders.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to db.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderSelect = `SELECT o.id, o.user_id, u.username, o.product_id, o.product_name, o.unit_price,
       o.quantity, o.status, o.ordered_at
  FROM orders o
  JOIN users u ON u.id = o.user_id`

const insertOrder = `INSERT INTO orders (user_id, product_id, product_name, unit_price, quantity, status, ordered_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// PlaceFromCart converts every cart entry of the user into a Pending
// order and empties the cart, all in one transaction.  The cart rows are
// locked for the duration so a concurrent checkout or cart edit cannot
// interleave.  ErrCartEmpty is returned, with nothing written, when the
// cart has no entries.
func (r *OrderRepo) PlaceFromCart(ctx context.Context, userID uint64, now time.Time) ([]model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT ci.product_id, ci.quantity, p.name, p.price, u.username
	             FROM cart_items ci
	             JOIN products p ON p.id = ci.product_id
	             JOIN users u ON u.id = ci.user_id
	             WHERE ci.user_id = ?
	             ORDER BY ci.id
	             FOR UPDATE`
	rows, err := tx.QueryContext(ctx, sel, userID)
	if err != nil {
		return nil, err
	}
	var orders []model.Order
	for rows.Next() {
		var (
			o         model.Order
			productID uint64
		)
		if err := rows.Scan(&productID, &o.Quantity, &o.ProductName, &o.UnitPrice, &o.Username); err != nil {
			rows.Close()
			return nil, err
		}
		o.ProductID = &productID
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(orders) == 0 {
		return nil, ErrCartEmpty
	}

	for i := range orders {
		o := &orders[i]
		o.UserID = userID
		o.Status = model.StatusPending
		o.OrderedAt = now
		res, err := tx.ExecContext(ctx, insertOrder,
			o.UserID, *o.ProductID, o.ProductName, o.UnitPrice.StringFixed(2), o.Quantity, string(o.Status), o.OrderedAt)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		o.ID = uint64(id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return orders, nil
}

// Create inserts a single order for o.UserID and o.ProductID, taking the
// product name and current price as the snapshot.  ID, Username,
// ProductName and UnitPrice are filled in on success.  ErrNotFound is
// returned when the product or user does not exist.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	if o.ProductID == nil {
		return ErrNotFound
	}
	const q = `INSERT INTO orders (user_id, product_id, product_name, unit_price, quantity, status, ordered_at)
	           SELECT ?, p.id, p.name, p.price, ?, ?, ? FROM products p WHERE p.id = ?`
	res, err := r.db.ExecContext(ctx, q, o.UserID, o.Quantity, string(o.Status), o.OrderedAt, *o.ProductID)
	if err != nil {
		if database.IsMySQLError(err, database.ErrNumNoReferencedRow) {
			return ErrNotFound
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*o = *stored
	return nil
}

// ListByUser returns the user's orders, oldest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, orderSelect+" WHERE o.user_id = ? ORDER BY o.id", userID)
}

// ListAll returns every order, oldest first.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, orderSelect+" ORDER BY o.id")
}

// GetByID fetches one order, ErrNotFound if absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// UpdateStatus moves an order from one status to another.  The update
// only applies while the row is still in status from; if another writer
// got there first ErrConflict is returned, and ErrNotFound if the order
// is gone.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ? AND status = ?", string(to), id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM orders WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(s rowScanner) (*model.Order, error) {
	var (
		o         model.Order
		productID sql.NullInt64
		status    string
	)
	err := s.Scan(&o.ID, &o.UserID, &o.Username, &productID, &o.ProductName, &o.UnitPrice,
		&o.Quantity, &status, &o.OrderedAt)
	if err != nil {
		return nil, err
	}
	o.ProductID = uint64Ptr(productID)
	o.Status = model.OrderStatus(status)
	return &o, nil
}
