package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// MemoryJWTManager keeps the session token in memory only. Simulated boards
// log in fresh on every run and have no identity worth persisting.
type MemoryJWTManager struct {
	token string
}

// NewMemoryJWTManager initializes an empty in-memory token manager.
func NewMemoryJWTManager() *MemoryJWTManager {
	return &MemoryJWTManager{}
}

// LoadJWT is a no-op; there is no backing store.
func (m *MemoryJWTManager) LoadJWT() error {
	return nil
}

// SaveJWT caches the token in memory.
func (m *MemoryJWTManager) SaveJWT(token string) error {
	if token == "" {
		return errors.New("refusing to save an empty token")
	}
	m.token = token
	return nil
}

// GetJWT retrieves the current token only if it is still valid.
func (m *MemoryJWTManager) GetJWT() string {
	if valid, err := m.IsJWTValid(); err != nil || !valid {
		return ""
	}
	return m.token
}

// IsJWTValid checks whether the current token parses and has not expired.
func (m *MemoryJWTManager) IsJWTValid() (bool, error) {
	if m.token == "" {
		return false, nil
	}

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(m.token, claims)
	if err != nil {
		return false, nil
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false, errors.New("JWT expiration (exp) claim missing or invalid")
	}

	return time.Now().Before(time.Unix(int64(exp), 0)), nil
}
