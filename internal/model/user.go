package model

import (
    "strings"
    "time"
)

// Role is the closed set of account roles.  Every boundary that accepts a
// role (registration, JWT claims, the admin provisioning command) goes
// through ParseRole so that free-form strings never reach the store.
type Role string

const (
    RoleCustomer Role = "customer" // default role assigned at registration
    RoleAdmin    Role = "admin"    // may mutate the catalog and administer orders
)

// ParseRole normalizes s and reports whether it names a known role.  An
// empty string is not a role; callers decide whether to apply a default.
func ParseRole(s string) (Role, bool) {
    switch Role(strings.ToLower(strings.TrimSpace(s))) {
    case RoleCustomer:
        return RoleCustomer, true
    case RoleAdmin:
        return RoleAdmin, true
    }
    return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleCustomer || r == RoleAdmin }

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsCustomer reports whether the role is customer.
func (r Role) IsCustomer() bool { return r == RoleCustomer }

// User represents an application user record as stored in the `users`
// table.  PasswordHash is a bcrypt digest and must never be serialized;
// handlers render users through Profile.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Email        – contact address.
//  FirstName    – optional given name.
//  LastName     – optional family name.
//  Phone        – optional phone number (NULL when absent).
//  Address      – optional postal address (NULL when absent).
//  Role         – customer or admin; immutable after creation.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Email        string    // users.email
    FirstName    string    // users.first_name
    LastName     string    // users.last_name
    Phone        *string   // users.phone (nullable)
    Address      *string   // users.address (nullable)
    Role         Role      // users.role
    CreatedAt    time.Time // users.created_at
}

// Profile is the public view of a user.  It excludes the password hash.
type Profile struct {
    ID        uint64  `json:"id"`
    Username  string  `json:"username"`
    FirstName string  `json:"first_name"`
    LastName  string  `json:"last_name"`
    Email     string  `json:"email"`
    Phone     *string `json:"phone"`
    Address   *string `json:"address"`
    Role      Role    `json:"role"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
    return Profile{
        ID:        u.ID,
        Username:  u.Username,
        FirstName: u.FirstName,
        LastName:  u.LastName,
        Email:     u.Email,
        Phone:     u.Phone,
        Address:   u.Address,
        Role:      u.Role,
    }
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
