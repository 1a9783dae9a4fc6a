// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the addressed row does not exist (or, for
// user-scoped rows, does not belong to the given user).
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when registering a username that is
// already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrQuantityTooLarge is returned when a cart quantity would exceed what
// the column can hold.
var ErrQuantityTooLarge = errors.New("quantity too large")

// ErrCartEmpty is returned by checkout when the user has no cart entries.
// No order is created in that case.
var ErrCartEmpty = errors.New("cart is empty")

// ErrConflict is returned when a compare-and-swap update finds the row
// in a different state than expected, e.g. another administrator changed
// an order's status first.
var ErrConflict = errors.New("conflict")
