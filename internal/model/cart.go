package model

import "github.com/shopspring/decimal"

// CartLine is a row of `cart_items` joined with the product it
// references, as rendered by the cart view.  There is at most one row per
// (user, product); adding the same product again increments Quantity.
type CartLine struct {
    ProductID   uint64  `json:"product_id"`
    ProductName string  `json:"product_name"`
    Description string  `json:"description"`
    Price       Money   `json:"price"`
    Image       *string `json:"image"`
    Quantity    uint32  `json:"quantity"`
    Total       Money   `json:"total"`
}

// LineTotal returns quantity × unit price.
func LineTotal(price Money, quantity uint32) Money {
    return NewMoney(price.Mul(decimal.NewFromInt(int64(quantity))))
}
