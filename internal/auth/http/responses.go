package http

// Wire types shared by the auth endpoints. Error responses use the
// httpx.ErrorResponse envelope.

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// LoginResponse is returned by POST /v1/login. When MFARequired is set the
// token fields are absent and the client must call POST /v1/login/mfa.
type LoginResponse struct {
	MFARequired bool           `json:"mfa_required,omitempty"`
	Tokens      *TokenResponse `json:"tokens,omitempty"`
}

// MFAEnrollResponse carries the provisional enrollment material. The secret
// and backup codes are shown exactly once.
type MFAEnrollResponse struct {
	Secret          string   `json:"secret"`
	OTPAuthURL      string   `json:"otpauth_url"`
	BackupCodes     []string `json:"backup_codes"`
	EnrollmentToken string   `json:"enrollment_token"`
	Issuer          string   `json:"issuer"`
	Account         string   `json:"account"`
}

// BackupCodesResponse carries a regenerated backup code set, shown once.
type BackupCodesResponse struct {
	Codes []string `json:"codes"`
}

// HealthChecks reports per-dependency health in the readiness response.
type HealthChecks struct {
	Database    string `json:"database"`
	Revocations string `json:"revocations"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
