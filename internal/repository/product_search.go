package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/shop-api/internal/model"
)

// ProductSearchQuery defines filters & pagination for searching products.
// Page is 1-based; the service layer normalizes both values.
type ProductSearchQuery struct {
	Text     string // matched against name and description
	InStock  bool   // only products with quantity > 0
	Page     int
	PageSize int
}

// Search returns one page of products matching q, ordered by id, together
// with the total number of matches.
func (r *ProductRepo) Search(ctx context.Context, q ProductSearchQuery) ([]model.Product, int64, error) {
	where := []string{}
	args := []any{}

	if q.Text != "" {
		like := "%" + escapeLike(strings.ToLower(q.Text)) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like)
	}
	if q.InStock {
		where = append(where, "quantity > 0")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := "SELECT " + productColumns + " FROM products WHERE " + cond + " ORDER BY id LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
