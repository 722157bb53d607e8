// Package models defines server-side data models persisted in the token store
// or returned by the HTTP API.
package models

import "time"

// AccessToken is a broker access token as seen by the services layer.
// Records are immutable once stored.
type AccessToken struct {
	ID        int64
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SealedToken is the persisted form of AccessToken: the value is stored only
// as AES-GCM ciphertext plus its nonce.
type SealedToken struct {
	ID         int64
	Ciphertext []byte
	Nonce      []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// ValidAt reports whether the token is still usable at now. A token expiring
// exactly at now is already invalid.
func (t *SealedToken) ValidAt(now time.Time) bool {
	return t.ExpiresAt.After(now)
}
