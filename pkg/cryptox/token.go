package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// Backup code shape: 8 uppercase hex characters, 32 bits of entropy each.
// Short enough to read over the phone, single-use so brute force gets one
// shot per code.
const (
	backupCodeBytes = 4
	// BackupCodeLength is the character length of one backup code.
	BackupCodeLength = backupCodeBytes * 2
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned as base64url without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewJTI returns a fresh 128-bit token identifier rendered as 32 lowercase
// hex characters. One jti is minted per issuance event and shared by both
// members of a token pair, so revoking it retires the pair together.
func NewJTI() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("cryptox: failed to generate jti: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// GenerateBackupCodes returns n distinct single-use recovery codes. Duplicate
// draws are retried so the result is always a proper set.
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(codes) < n {
		var b [backupCodeBytes]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		code := strings.ToUpper(hex.EncodeToString(b[:]))
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Backup codes are stored as fingerprints so a database leak does not leak
// usable recovery credentials.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
