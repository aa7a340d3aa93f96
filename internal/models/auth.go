package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor identifies who triggered an operation. It is built per request and passed
// explicitly into services.
type Actor struct {
	UserID    string
	Role      UserRole
	RequestID string
}

// Label returns the identifier recorded in audit rows.
func (a Actor) Label() string {
	if a.UserID == "" {
		return "system"
	}
	return a.UserID
}
