package model

import (
	"time"
)

// RefreshToken is one entry of the session ledger kept in Postgres. Each
// rotation revokes the presented token and links it to its replacement.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"userId"`
	TokenHash  string     `db:"token_hash" json:"-"` // Never expose hash
	ExpiresAt  time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	ReplacedBy *string    `db:"replaced_by" json:"replacedBy,omitempty"`
	DeviceInfo *string    `db:"device_info" json:"deviceInfo,omitempty"`
	IPAddress  *string    `db:"ip_address" json:"ipAddress,omitempty"`
}

// IsRevoked returns true if the token has been revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired returns true if the token has expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// Refresh token errors
var (
	ErrRefreshTokenMissing  = &Error{Kind: KindUnauthorized, Message: "Refresh token is required"}
	ErrRefreshTokenNotFound = &Error{Kind: KindUnauthorized, Message: "Invalid refresh token"}
	ErrRefreshTokenExpired  = &Error{Kind: KindUnauthorized, Message: "Refresh token has expired"}
	ErrRefreshTokenReused   = &Error{Kind: KindUnauthorized, Message: "Refresh token reuse detected. Please login again."}
)

// TokenPair represents both tokens returned after login/refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // Seconds until access token expires
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// RefreshRequest is the body of POST /users/refresh-token; the cookie is
// used when the body is empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
