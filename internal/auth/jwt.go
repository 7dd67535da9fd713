package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidScope = errors.New("token missing required scope")
)

const jwksRefreshInterval = 24 * time.Hour

// JWTValidator validates Azure AD access tokens against the tenant's JWKS
type JWTValidator struct {
	config     *config.AzureAdConfig
	jwksURL    string
	httpClient *http.Client

	mu         sync.RWMutex
	publicKeys map[string]*rsa.PublicKey
	lastUpdate time.Time
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AzureAdConfig) *JWTValidator {
	return &JWTValidator{
		config:     cfg,
		jwksURL:    fmt.Sprintf("%s%s/discovery/v2.0/keys", cfg.InstanceUrl, cfg.TenantId),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		publicKeys: make(map[string]*rsa.PublicKey),
	}
}

// ValidateToken validates a JWT token and returns user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in header")
		}
		return v.getPublicKey(kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsedToken.Valid {
		return nil, ErrInvalidToken
	}

	if v.config.ClientId != "" {
		aud, _ := claims.GetAudience()
		validAud := false
		for _, a := range aud {
			if a == v.config.ClientId || strings.HasSuffix(a, "/"+v.config.ClientId) {
				validAud = true
				break
			}
		}
		if !validAud {
			return nil, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
		}
	}

	iss, _ := claims.GetIssuer()
	if !strings.Contains(iss, v.config.TenantId) {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}

	if v.config.RequiredScopes != "" {
		if !HasRequiredScope(ExtractScopes(claims), v.config.RequiredScopes) {
			return nil, ErrInvalidScope
		}
	}

	userCtx := &UserContext{
		UserID:      extractString(claims, "oid", "sub"),
		DisplayName: extractString(claims, "name", "unique_name", "preferred_username"),
		Email:       extractString(claims, "email", "upn", "preferred_username"),
		Roles:       ExtractRoles(claims),
	}
	if userCtx.UserID == "" {
		if userCtx.Email == "" {
			return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
		}
		userCtx.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(userCtx.Email)).String()
	}

	return userCtx, nil
}

func (v *JWTValidator) getPublicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, exists := v.publicKeys[kid]
	fresh := time.Since(v.lastUpdate) < jwksRefreshInterval
	v.mu.RUnlock()
	if exists && fresh {
		return key, nil
	}

	if err := v.refreshPublicKeys(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, exists = v.publicKeys[kid]
	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}

func (v *JWTValidator) refreshPublicKeys() error {
	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
			Kty string `json:"kty"`
			Use string `json:"use"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	newKeys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			continue
		}
		e := 0
		for _, b := range eBytes {
			e = e<<8 + int(b)
		}
		newKeys[key.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}
	}

	v.mu.Lock()
	v.publicKeys = newKeys
	v.lastUpdate = time.Now()
	v.mu.Unlock()
	return nil
}

func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if val, ok := claims[key]; ok {
			if str, ok := val.(string); ok && str != "" {
				return str
			}
		}
	}
	return ""
}

// ExtractRoles maps the roles/role claims onto known roles. Matching is case
// insensitive, unknown values are dropped and a token without a known role
// gets the plain user role.
func ExtractRoles(claims jwt.MapClaims) []domain.UserRoleType {
	var raw []string
	for _, key := range []string{"roles", "role"} {
		switch v := claims[key].(type) {
		case []interface{}:
			for _, r := range v {
				if str, ok := r.(string); ok {
					raw = append(raw, str)
				}
			}
		case []string:
			raw = append(raw, v...)
		case string:
			raw = append(raw, v)
		}
	}

	seen := make(map[domain.UserRoleType]bool)
	roles := []domain.UserRoleType{}
	for _, r := range raw {
		role := domain.UserRoleType(strings.ToLower(strings.TrimSpace(r)))
		if !role.IsValid() || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = append(roles, domain.RoleUser)
	}
	return roles
}

// ExtractScopes extracts scopes from JWT claims
func ExtractScopes(claims jwt.MapClaims) []string {
	scopes := []string{}
	for _, key := range []string{"scp", "scope"} {
		if str, ok := claims[key].(string); ok && str != "" {
			scopes = append(scopes, strings.Fields(str)...)
		}
	}
	return scopes
}

// HasRequiredScope reports whether any of the comma separated required
// scopes is present
func HasRequiredScope(tokenScopes []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return true
	}
	for _, req := range strings.Split(required, ",") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		for _, scope := range tokenScopes {
			if strings.EqualFold(scope, req) {
				return true
			}
		}
	}
	return false
}
