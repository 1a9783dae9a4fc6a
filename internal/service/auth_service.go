package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/repository"
	"github.com/iliyamo/shop-api/internal/utils"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidToken       = "Token is invalid or expired"
	maxUsernameLen        = 150
	maxPasswordBytes      = 72 // bcrypt input limit
)

// AuthConfig carries the token and hashing parameters of AuthService.
type AuthConfig struct {
	JWTSecret        string
	AccessTTLMin     int
	RefreshTTLDays   int
	BcryptCost       int
	AllowAdminSignup bool // let /register create admins; off in production
}

// TokenPair is what login and the token endpoint hand out.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterInput is the registration payload.  Role may be empty, in which
// case the account is a customer.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     *string
	Address   *string
	Role      string
}

// AuthService implements registration, login and token management.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	log    zerolog.Logger
}

// NewAuthService wires an AuthService.
func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log}
}

// Register creates a customer account, or an admin account when role is
// "admin" and self-service admin signup is enabled.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role := model.RoleCustomer
	if strings.TrimSpace(in.Role) != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok {
			return nil, validation("Role must be either 'admin' or 'customer'")
		}
		role = r
	}
	if role.IsAdmin() && !s.cfg.AllowAdminSignup {
		return nil, forbidden("admin accounts must be provisioned by an operator")
	}
	return s.create(ctx, in, role)
}

// CreateAdmin provisions an administrator.  It is reachable only from
// the operator command line, never over HTTP.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.create(ctx, in, model.RoleAdmin)
}

func (s *AuthService) create(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case username == "":
		return nil, validation("username is required")
	case len(username) > maxUsernameLen:
		return nil, validation("username must be at most 150 characters")
	case !validUsername(username):
		return nil, validation("username may contain only letters, digits and @/./+/-/_")
	case in.Password == "":
		return nil, validation("password is required")
	case len(in.Password) > maxPasswordBytes:
		return nil, validation("password must be at most 72 bytes")
	case email == "":
		return nil, validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("Enter a valid email address.")
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, internal(err)
	}
	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        trimmedOrNil(in.Phone),
		Address:      trimmedOrNil(in.Address),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, validation("A user with that username already exists.")
		}
		return nil, internal(err)
	}
	s.log.Info().Uint64("user_id", u.ID).Str("role", string(role)).Msg("user registered")
	return u, nil
}

// Login verifies the credentials and issues a token pair.  Every failure
// mode yields the same Unauthenticated error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, TokenPair{}, unauthenticated(msgInvalidCredentials)
		}
		return nil, TokenPair{}, internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, unauthenticated(msgInvalidCredentials)
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, internal(err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, internal(err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, internal(err)
	}
	return TokenPair{Access: access.Token, Refresh: refresh.Raw}, nil
}

// Refresh exchanges a live refresh token for a new access token.  The
// refresh token itself stays valid until it expires or is revoked.
func (s *AuthService) Refresh(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validation("refresh is required")
	}
	userID, err := s.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", unauthenticated(msgInvalidToken)
		}
		return "", internal(err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", unauthenticated(msgInvalidToken)
		}
		return "", internal(err)
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return "", internal(err)
	}
	return access.Token, nil
}

// Logout revokes a refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validation("refresh is required")
	}
	if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthenticated(msgInvalidToken)
		}
		return internal(err)
	}
	return nil
}

// WhoAmI reloads the caller's account.
func (s *AuthService) WhoAmI(ctx context.Context, p Principal) (*model.User, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthenticated("User not found")
		}
		return nil, internal(err)
	}
	return u, nil
}

func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
