package domain

// MFAEnrollment is returned when a user starts TOTP enrollment. The secret
// and backup codes are provisional: MFA stays disabled until the user proves
// possession of the secret by completing a verification with the enrollment
// token inside its validity window.
type MFAEnrollment struct {
	Secret          string   `json:"secret"`       // base32 TOTP secret
	OTPAuthURL      string   `json:"otpauth_url"`  // otpauth:// URI for QR rendering
	BackupCodes     []string `json:"backup_codes"` // shown once, stored only as fingerprints
	EnrollmentToken string   `json:"enrollment_token"`
	Issuer          string   `json:"issuer"`
	Account         string   `json:"account"`
}
