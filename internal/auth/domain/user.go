package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC encoded
	Role         Role
	MFAEnabled   bool    // flips only after the first successful TOTP check
	MFASecret    *string // TOTP secret (nullable, base32 encoded)
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
