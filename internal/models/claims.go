package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims attached to every authenticated request. The
// engine only needs the actor's identity and role; token issuance belongs to
// the identity service.
type UserClaims struct {
	UserID   uint   `json:"user_id"`
	WalletID uint   `json:"wallet_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the actor may perform operator actions.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
