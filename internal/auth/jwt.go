package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm identifies the JWT authentication realm.
type Realm string

const (
	// RealmService is held by presentation processes (chat bots) that act
	// on behalf of their users.
	RealmService Realm = "service"
	// RealmAdmin is held by operators.
	RealmAdmin Realm = "admin"
)

// Claims holds the custom JWT claims for both realms.
type Claims struct {
	jwt.RegisteredClaims
	Realm  Realm    `json:"realm"`
	Role   string   `json:"role,omitempty"`   // admin realm: viewer, operator, superadmin
	Guilds []string `json:"guilds,omitempty"` // service realm: empty means every guild
}

// AllowsGuild reports whether a service token may act in guildID.
func (c *Claims) AllowsGuild(guildID string) bool {
	return len(c.Guilds) == 0 || slices.Contains(c.Guilds, guildID)
}

// TokenRequest describes a token to mint.
type TokenRequest struct {
	Realm   Realm
	Subject string
	Role    string
	Guilds  []string
}

// JWTManager handles token generation and validation for both realms.
type JWTManager struct {
	secret        []byte
	serviceExpiry time.Duration
	adminExpiry   time.Duration
	now           func() time.Time
}

// NewJWTManager creates a JWT manager with realm-specific expiry durations.
func NewJWTManager(secret string, serviceExpiry, adminExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		serviceExpiry: serviceExpiry,
		adminExpiry:   adminExpiry,
		now:           time.Now,
	}
}

// GenerateToken creates a signed JWT for the request's realm and subject.
func (m *JWTManager) GenerateToken(req TokenRequest) (string, error) {
	var expiry time.Duration
	switch req.Realm {
	case RealmService:
		expiry = m.serviceExpiry
	case RealmAdmin:
		expiry = m.adminExpiry
		if !slices.Contains(AllAdminRoles(), req.Role) {
			return "", fmt.Errorf("unknown admin role: %q", req.Role)
		}
	default:
		return "", fmt.Errorf("unknown realm: %s", req.Realm)
	}
	if req.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
		},
		Realm:  req.Realm,
		Role:   req.Role,
		Guilds: req.Guilds,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT, returning claims if valid.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ValidateTokenForRealm validates a token and ensures it belongs to the expected realm.
func (m *JWTManager) ValidateTokenForRealm(tokenString string, expectedRealm Realm) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Realm != expectedRealm {
		return nil, fmt.Errorf("expected realm %s, got %s", expectedRealm, claims.Realm)
	}
	return claims, nil
}
