package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTenant = "11111111-2222-3333-4444-555555555555"
	testClient = "api-client"
	testKid    = "test-key"
)

func newTestValidator(t *testing.T, scopes string) (*JWTValidator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": testKid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(srv.Close)

	v := NewJWTValidator(&config.AzureAdConfig{
		TenantId:       testTenant,
		ClientId:       testClient,
		RequiredScopes: scopes,
	})
	v.jwksURL = srv.URL
	return v, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://login.microsoftonline.com/" + testTenant + "/v2.0",
		"aud":   testClient,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"oid":   "user-123",
		"name":  "Ada Admin",
		"email": "ada@example.com",
		"roles": []string{"Admin", "something-else"},
		"scp":   "access_as_user",
	}
}

func TestValidateToken(t *testing.T) {
	v, key := newTestValidator(t, "access_as_user")

	user, err := v.ValidateToken(signToken(t, key, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.UserID)
	assert.Equal(t, "Ada Admin", user.DisplayName)
	assert.Equal(t, []domain.UserRoleType{domain.RoleAdmin}, user.Roles)
	assert.True(t, user.IsAdmin())
}

func TestValidateToken_Rejections(t *testing.T) {
	v, key := newTestValidator(t, "access_as_user")

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		want   error
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }, ErrExpiredToken},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }, ErrInvalidToken},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }, ErrInvalidToken},
		{"missing scope", func(c jwt.MapClaims) { c["scp"] = "other" }, ErrInvalidScope},
		{"no subject", func(c jwt.MapClaims) {
			delete(c, "oid")
			delete(c, "email")
		}, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims()
			tt.mutate(claims)
			_, err := v.ValidateToken(signToken(t, key, claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateToken_DerivesIDFromEmail(t *testing.T) {
	v, key := newTestValidator(t, "")
	claims := baseClaims()
	delete(claims, "oid")

	first, err := v.ValidateToken(signToken(t, key, claims))
	require.NoError(t, err)
	second, err := v.ValidateToken(signToken(t, key, claims))
	require.NoError(t, err)
	assert.NotEmpty(t, first.UserID)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestExtractRoles(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   []domain.UserRoleType
	}{
		{"no roles", jwt.MapClaims{}, []domain.UserRoleType{domain.RoleUser}},
		{"single string", jwt.MapClaims{"role": "agent"}, []domain.UserRoleType{domain.RoleAgent}},
		{"mixed case and duplicates", jwt.MapClaims{"roles": []interface{}{"ADMIN", "admin", "Agent"}},
			[]domain.UserRoleType{domain.RoleAdmin, domain.RoleAgent}},
		{"unknown only", jwt.MapClaims{"roles": []interface{}{"superuser"}}, []domain.UserRoleType{domain.RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRoles(tt.claims))
		})
	}
}

func TestHasRequiredScope(t *testing.T) {
	assert.True(t, HasRequiredScope(nil, ""))
	assert.True(t, HasRequiredScope([]string{"Orders.Read"}, "orders.read, orders.write"))
	assert.False(t, HasRequiredScope([]string{"profile"}, "orders.read"))
}
