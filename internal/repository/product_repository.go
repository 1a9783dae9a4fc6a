// This file defines the product repository.  Products are read by
// everyone and mutated only by administrators; authorization happens in
// the service layer, so the methods here are unconditional.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/shop-api/internal/model"
)

// ProductRepo encapsulates all database queries related to products.
type ProductRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = "id, name, description, price, quantity, image, created_at, updated_at"

// List returns every product ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a product by id, ErrNotFound if absent.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts p and populates its ID and timestamps.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO products (name, description, price, quantity, image, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Description, p.Price.StringFixed(2), p.Quantity,
		nullString(p.Image), now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// Update applies patch to the product and returns the stored result.
// Only supplied fields are written.  ErrNotFound if the id is unknown.
func (r *ProductRepo) Update(ctx context.Context, id uint64, patch model.ProductPatch) (*model.Product, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, patch.Price.StringFixed(2))
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Image != nil {
		sets = append(sets, "image = ?")
		if *patch.Image == "" {
			args = append(args, nil)
		} else {
			args = append(args, *patch.Image)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Truncate(time.Second), id)

	q := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	// clientFoundRows: matched rows, so an unchanged row still counts.
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product.  Cart entries referencing it are removed by
// the cart_items foreign key; orders keep their snapshot and lose the
// reference (orders.product_id ON DELETE SET NULL).
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*model.Product, error) {
	var (
		p     model.Product
		image sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Image = stringPtr(image)
	return &p, nil
}
