package service

import "github.com/iliyamo/shop-api/internal/model"

// Principal is the authenticated caller as established by the access
// token.  The zero value is an anonymous caller.
type Principal struct {
	UserID uint64
	Role   model.Role
}

// Authenticated reports whether p carries a user identity.
func (p Principal) Authenticated() bool { return p.UserID != 0 && p.Role.Valid() }

// IsAdmin reports whether p is an authenticated administrator.
func IsAdmin(p Principal) bool { return p.Authenticated() && p.Role.IsAdmin() }

// IsCustomer reports whether p is an authenticated customer.
func IsCustomer(p Principal) bool { return p.Authenticated() && p.Role.IsCustomer() }

// requireUser fails with Unauthenticated for anonymous callers.
func requireUser(p Principal) error {
	if !p.Authenticated() {
		return unauthenticated("Authentication credentials were not provided.")
	}
	return nil
}

// requireAdmin fails with Unauthenticated for anonymous callers and with
// Forbidden for authenticated non-administrators.
func requireAdmin(p Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !IsAdmin(p) {
		return forbidden("You do not have permission to perform this action.")
	}
	return nil
}

// requireCustomer is the customer counterpart of requireAdmin.
func requireCustomer(p Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if !IsCustomer(p) {
		return forbidden("You do not have permission to perform this action.")
	}
	return nil
}
