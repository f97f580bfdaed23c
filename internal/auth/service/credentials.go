package service

import "github.com/foliocms/folio/pkg/cryptox"

// CredentialService checks a presented password against a stored hash.
// Failure is a plain false, never an error: callers own rate-limiting of
// repeated failures. The plaintext is never logged.
type CredentialService struct{}

func (CredentialService) Verify(password, storedHash string) bool {
	return cryptox.VerifyPassword(password, storedHash) == nil
}

// BurnVerify spends the cost of a real verification without a stored hash.
// Used on the unknown-account login path so response timing stays flat.
func (CredentialService) BurnVerify(password string) {
	cryptox.DummyVerifyPassword(password)
}
