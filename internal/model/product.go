package model

import "time"

// Product represents a row in the `products` table.  Price is stored as
// DECIMAL(10,2) and carried as Money so that arithmetic on
// line totals never goes through float64.
type Product struct {
    ID          uint64          `json:"id"`          // products.id
    Name        string          `json:"name"`        // products.name
    Description string          `json:"description"` // products.description
    Price       Money           `json:"price"`       // products.price
    Quantity    uint32          `json:"quantity"`    // products.quantity (stock on hand)
    Image       *string         `json:"image"`       // products.image (URL or media path, nullable)
    CreatedAt   time.Time       `json:"-"`           // products.created_at
    UpdatedAt   time.Time       `json:"-"`           // products.updated_at
}

// ProductPatch carries a partial update.  Nil fields are left unchanged;
// an Image pointing at "" clears the image.
type ProductPatch struct {
    Name        *string
    Description *string
    Price       *Money
    Quantity    *uint32
    Image       *string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
    return p.Name == nil && p.Description == nil && p.Price == nil && p.Quantity == nil && p.Image == nil
}

// Apply copies every non-nil field of p onto dst.
func (p ProductPatch) Apply(dst *Product) {
    if p.Name != nil {
        dst.Name = *p.Name
    }
    if p.Description != nil {
        dst.Description = *p.Description
    }
    if p.Price != nil {
        dst.Price = *p.Price
    }
    if p.Quantity != nil {
        dst.Quantity = *p.Quantity
    }
    if p.Image != nil {
        if *p.Image == "" {
            dst.Image = nil
        } else {
            dst.Image = p.Image
        }
    }
}
