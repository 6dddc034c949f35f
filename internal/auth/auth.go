package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer   = "gymgate-api"
	jwtAudience = "gymgate-clients"

	AccessTokenTTL = 12 * time.Hour
)

const (
	RoleMember  = "member"
	RoleTrainer = "trainer"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
	ErrInvalidPrincipal = errors.New("principal requires account, branch and role")
)

// Principal is the caller identity every handler passes into the core
// explicitly.
type Principal struct {
	AccountID string `json:"account_id"`
	BranchID  string `json:"branch_id"`
	Role      string `json:"role"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleTrainer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

type JWTClaims struct {
	AccountID string `json:"account_id"`
	BranchID  string `json:"branch_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Principal() Principal {
	return Principal{AccountID: c.AccountID, BranchID: c.BranchID, Role: c.Role}
}

func GenerateAccessToken(p Principal, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if p.AccountID == "" || p.BranchID == "" || p.Role == "" {
		return "", ErrInvalidPrincipal
	}
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}

	now := time.Now()
	claims := &JWTClaims{
		AccountID: p.AccountID,
		BranchID:  p.BranchID,
		Role:      p.Role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   p.AccountID,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
