package recipe

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Role is the access level of the session user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
	RoleGuest  Role = "guest"
)

// ParseRole normalizes a role marker; unknown values map to guest.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleWorker:
		return RoleWorker
	default:
		return RoleGuest
	}
}

// CanApprove reports whether the role may approve or reject recipes.
func (r Role) CanApprove() bool { return r == RoleAdmin }

// CanManageUsers reports whether the role may open the users view.
func (r Role) CanManageUsers() bool { return r == RoleAdmin }

// CanEdit reports whether the role may create or modify recipes.
func (r Role) CanEdit() bool { return r == RoleAdmin || r == RoleWorker }

type tokenClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionFromToken reads the user id and role claims of a cached bearer
// token. The signature is not verified: the backend is the authority and the
// claims only steer what the local surface offers.
func SessionFromToken(token string) (userID string, role Role, ok bool) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", RoleGuest, false
	}
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", RoleGuest, false
	}
	userID = claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if strings.TrimSpace(claims.Role) == "" {
		return userID, RoleGuest, userID != ""
	}
	return userID, ParseRole(claims.Role), true
}
