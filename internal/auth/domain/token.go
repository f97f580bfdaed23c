package domain

import "time"

// TokenPair is what a successful authentication returns: a short-lived
// signed access token and its paired refresh token. Both carry the same jti,
// so revoking the jti retires the pair together.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access expiry
}
