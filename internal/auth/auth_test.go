package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

var member = Principal{AccountID: "acc-1", BranchID: "branch-1", Role: RoleMember}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken(member, testSecret, 0)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken(member, "", 0)

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Fail with incomplete principal", func(t *testing.T) {
		token, err := GenerateAccessToken(Principal{AccountID: "acc-1", Role: RoleMember}, testSecret, 0)

		assert.ErrorIs(t, err, ErrInvalidPrincipal)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		staff := Principal{AccountID: "acc-9", BranchID: "branch-2", Role: RoleStaff}
		token, err := GenerateAccessToken(staff, testSecret, time.Hour)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, staff, claims.Principal())
		assert.Equal(t, "acc-9", claims.Subject)
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, jwtIssuer, claims.Issuer)
		assert.Contains(t, claims.Audience, jwtAudience)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Fail with empty secret", func(t *testing.T) {
		token, _ := GenerateAccessToken(member, testSecret, 0)

		claims, err := ValidateToken(token, "")

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken(member, testSecret, 0)

		claims, err := ValidateToken(token, "wrong-secret")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with invalid token format", func(t *testing.T) {
		claims, err := ValidateToken("invalid.token.format", testSecret)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with expired token", func(t *testing.T) {
		pastTime := time.Now().Add(-1 * time.Hour)

		claims := &JWTClaims{
			AccountID: member.AccountID,
			BranchID:  member.BranchID,
			Role:      member.Role,
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(pastTime),
				IssuedAt:  jwt.NewNumericDate(pastTime.Add(-15 * time.Minute)),
			},
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, _ := token.SignedString([]byte(testSecret))

		validatedClaims, err := ValidateToken(tokenString, testSecret)

		assert.Equal(t, ErrTokenExpired, err)
		assert.Nil(t, validatedClaims)
	})

	t.Run("Fail with foreign audience", func(t *testing.T) {
		claims := &JWTClaims{
			AccountID: member.AccountID,
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{"someone-else"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

		_, err := ValidateToken(tokenString, testSecret)
		assert.Error(t, err)
	})
}

func TestTokenExpiration(t *testing.T) {
	token, err := GenerateAccessToken(member, testSecret, 0)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	expectedExpiry := time.Now().Add(AccessTokenTTL)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry).Abs()
	assert.Less(t, diff, 2*time.Second)
}

func TestPrincipal_IsStaff(t *testing.T) {
	assert.False(t, member.IsStaff())
	assert.False(t, Principal{Role: RoleTrainer}.IsStaff())
	assert.True(t, Principal{Role: RoleStaff}.IsStaff())
	assert.True(t, Principal{Role: RoleAdmin}.IsStaff())
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleMember, RoleTrainer, RoleStaff, RoleAdmin} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("user"))
	assert.False(t, ValidRole(""))
}
