package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Empty header", "", http.StatusUnauthorized},
		{"Invalid format", "Token abc", http.StatusUnauthorized},
		{"Empty token", "Bearer ", http.StatusUnauthorized},
		{"Garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			handler := AuthMiddleware("secret")
			handler(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthMiddleware_SetsPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	want := Principal{AccountID: "acc-1", BranchID: "branch-1", Role: RoleMember}
	token, err := GenerateAccessToken(want, testSecret, time.Minute)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/", AuthMiddleware(testSecret), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, p)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account_id":"acc-1","branch_id":"branch-1","role":"member"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		principal      *Principal
		roles          []string
		expectedStatus int
	}{
		{"Correct role", &Principal{AccountID: "a", Role: RoleAdmin}, []string{RoleAdmin}, http.StatusOK},
		{"One of several roles", &Principal{AccountID: "a", Role: RoleStaff}, []string{RoleStaff, RoleAdmin}, http.StatusOK},
		{"Missing principal", nil, []string{RoleAdmin}, http.StatusUnauthorized},
		{"Insufficient role", &Principal{AccountID: "a", Role: RoleMember}, []string{RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.principal != nil {
				SetPrincipal(c, *tt.principal)
			}
			c.Request = httptest.NewRequest("GET", "/", nil)

			handler := RequireRole(tt.roles...)
			handler(c)
			if !c.IsAborted() {
				c.Status(http.StatusOK)
			}
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"Valid principal", Principal{AccountID: "acc-1", BranchID: "b", Role: RoleMember}, true},
		{"Missing principal", nil, false},
		{"Wrong type", "acc-1", false},
		{"Empty account", Principal{BranchID: "b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.value != nil {
				c.Set(principalKey, tt.value)
			}

			_, ok := GetPrincipal(c)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
