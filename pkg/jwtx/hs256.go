package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the minimum accepted HMAC key length. Anything shorter is a
// configuration error, caught at startup rather than at request time.
const MinKeyBytes = 32

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrKeyTooShort = errors.New("jwtx: signing key too short")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrTokenType   = errors.New("jwtx: wrong token type")
)

// Signer signs Claims into a compact JWT.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and gives you back the claims if it's legit.
// Expiry is NOT checked here; callers validate it against their own clock so
// it stays testable.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Key is a symmetric signing key. Access and refresh tokens each get
// their own key, so compromise of one cannot forge the other.
type HS256Key struct {
	key      []byte
	issuer   string
	audience string
}

// NewHS256Key builds a symmetric signer/verifier from a raw secret.
func NewHS256Key(secret []byte, issuer, audience string) (*HS256Key, error) {
	if len(secret) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	return &HS256Key{key: secret, issuer: issuer, audience: audience}, nil
}

// Sign produces a compact HS256 JWT for the given claims.
func (k *HS256Key) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(k.key)
}

// Verify parses the token, enforces the HS256 algorithm, checks the
// signature, and validates issuer and audience. Expiry is left to the caller.
func (k *HS256Key) Verify(raw string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Registered-claim time checks are re-done by the caller against an
		// injectable clock; give the parser maximal leeway so it never
		// rejects what the caller wants to inspect.
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return k.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, ErrAlgMismatch):
			return Claims{}, ErrAlgMismatch
		default:
			return Claims{}, ErrMalformed
		}
	}

	if err := claims.ValidateIssuer(k.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(k.audience); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// VerifyAt is Verify plus an expiry check against the supplied instant.
func (k *HS256Key) VerifyAt(raw string, now time.Time) (Claims, error) {
	claims, err := k.Verify(raw)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(now); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
