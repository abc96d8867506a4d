package domain

import "time"

// Session is a refresh-token login session. The refresh token itself is
// opaque and stored hashed; the session tracks its lifetime and the device
// it was issued to.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	DeviceName       string    `json:"device_name,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
}

// NewSession creates a session expiring after ttl.
func NewSession(id, userID, tokenHash, deviceName string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		DeviceName:       deviceName,
		ExpiresAt:        now.Add(ttl),
		CreatedAt:        now,
		LastUsedAt:       now,
	}
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Refresh extends the session with a new token hash and expiry.
func (s *Session) Refresh(tokenHash string, ttl time.Duration) {
	now := time.Now()
	s.RefreshTokenHash = tokenHash
	s.ExpiresAt = now.Add(ttl)
	s.LastUsedAt = now
}
