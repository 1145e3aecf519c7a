package auth

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fieldscope.io/internal/ids"
)

const (
	issuer            = "fieldscope"
	secretEnvVariable = "FIELDSCOPE_AUTH_SECRET"

	// DefaultSessionTTL bounds how long the login-time snapshot of
	// role/org/ownership stays valid. Claims are never refreshed
	// mid-session; expiry is the only staleness bound.
	DefaultSessionTTL = 12 * time.Hour
)

var (
	errMissingSecret = errors.New("auth secret is not configured")

	secretMu sync.Mutex
	secret   cachedSecret
)

type cachedSecret struct {
	value []byte
	err   error
	ready bool
}

// Claims is the signed session token payload. Everything a request needs
// to answer "what role and organization is this" lives here, so no storage
// lookup is required to evaluate the gate.
type Claims struct {
	Role             Role   `json:"role"`
	OrganizationID   string `json:"org"`
	OrganizationName string `json:"org_name"`
	IsOwner          bool   `json:"owner"`
	jwt.RegisteredClaims
}

// Session is the externally visible projection of validated token claims,
// consumed by the request gate and by handlers.
type Session struct {
	UserID           string    `json:"userId"`
	Role             Role      `json:"role"`
	OrganizationID   string    `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	IsOwner          bool      `json:"isOwner"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// MintSession signs a session token for an authenticated identity using
// HS256. Role, organization and ownership are copied from the Identity
// exactly once, at login time.
func MintSession(identity Identity, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return "", time.Time{}, errors.New("identity user id is required")
	}
	if !identity.Role.Valid() {
		return "", time.Time{}, errors.New("identity role is required")
	}
	if strings.TrimSpace(identity.OrganizationID) == "" {
		return "", time.Time{}, errors.New("identity organization id is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	secretBytes, err := loadSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role:             identity.Role,
		OrganizationID:   identity.OrganizationID,
		OrganizationName: identity.Organization.Name,
		IsOwner:          identity.IsOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secretBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSession verifies the token signature and required claims and
// projects them into a Session. Any failure, including a token that lacks
// a subject, role, or organization id, yields ErrInvalidToken.
func ParseSession(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secretBytes, err := loadSecret()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secretBytes, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:           claims.Subject,
		Role:             claims.Role,
		OrganizationID:   claims.OrganizationID,
		OrganizationName: claims.OrganizationName,
		IsOwner:          claims.IsOwner,
		ExpiresAt:        claims.ExpiresAt.Time,
	}, nil
}

func validateClaims(claims *Claims) error {
	if claims.Issuer != issuer {
		return errors.New("unexpected issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if !claims.Role.Valid() {
		return errors.New("role missing or unknown")
	}
	// A session without tenant context must never reach a protected page.
	if strings.TrimSpace(claims.OrganizationID) == "" {
		return errors.New("organization missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

func loadSecret() ([]byte, error) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secret.ready {
		return secret.value, secret.err
	}
	raw := strings.TrimSpace(os.Getenv(secretEnvVariable))
	if raw == "" {
		secret.err = errMissingSecret
		secret.ready = true
		return nil, secret.err
	}
	secret.value = []byte(raw)
	secret.err = nil
	secret.ready = true
	return secret.value, nil
}

// ResetSecretForTests clears the cached secret value. Only intended for test use.
func ResetSecretForTests() {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = cachedSecret{}
}
