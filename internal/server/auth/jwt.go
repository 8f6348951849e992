// Package auth implements issuance and verification of signed session
// tokens. A token carries exactly one claim shape: user claims (account id +
// display name) or admin claims (admin name). The shape present after
// verification is what determines the bearer's role; a token with both or
// neither shape is rejected.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorization role derived from verified claims.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserClaims identifies an authenticated account holder.
type UserClaims struct {
	AccountID   string
	DisplayName string
}

// AdminClaims identifies an authenticated administrator.
type AdminClaims struct {
	AdminName string
}

// Identity is the verified content of a session token. Exactly one of User
// or Admin is set.
type Identity struct {
	User  *UserClaims
	Admin *AdminClaims
}

// Role returns the role implied by the claim shape.
func (i *Identity) Role() Role {
	if i.Admin != nil {
		return RoleAdmin
	}
	return RoleUser
}

// tokenClaims is the wire shape of the JWT payload. Field names match the
// public API contract, so tokens stay interchangeable with other clients of
// the service.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_uuid,omitempty"`
	Username  string `json:"username,omitempty"`
	AdminName string `json:"admin_name,omitempty"`
}

func sign(claims tokenClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	// Expiry is computed once from a single clock read, in UTC, so issuance
	// and verification never disagree on the instant.
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().UTC().Add(validityDuration))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IssueUserToken returns a signed token carrying user claims.
func IssueUserToken(c UserClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(tokenClaims{UserID: c.AccountID, Username: c.DisplayName}, secretKey, validityDuration)
}

// IssueAdminToken returns a signed token carrying admin claims.
func IssueAdminToken(c AdminClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(tokenClaims{AdminName: c.AdminName}, secretKey, validityDuration)
}

// VerifyToken checks the signature and expiry of tokenString and returns the
// verified identity. All failure modes collapse to a closed set:
// common.ErrTokenExpired for expired tokens, common.ErrTokenMalformed for a
// bad signature or structure, common.ErrInvalidCredential for a valid token
// with an ambiguous claim shape. Low-level parse errors never escape.
func VerifyToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	isUser := claims.UserID != ""
	isAdmin := claims.AdminName != ""

	switch {
	case isUser && !isAdmin:
		return &Identity{User: &UserClaims{AccountID: claims.UserID, DisplayName: claims.Username}}, nil
	case isAdmin && !isUser:
		return &Identity{Admin: &AdminClaims{AdminName: claims.AdminName}}, nil
	default:
		// Both shapes or neither: never an ambient default role.
		return nil, common.ErrInvalidCredential
	}
}
