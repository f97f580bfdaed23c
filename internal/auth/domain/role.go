package domain

import "slices"

// Role is the coarse privilege tier of a user. Scopes are derived from the
// role alone, never assigned per-user.
type Role string

const (
	RoleMember Role = "member"
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
)

// Role ranks form a total order used for minimum-privilege checks.
const (
	rankUnknown = 0
	rankMember  = 1
	rankUser    = 2
	rankAdmin   = 3
)

// ParseRole maps a stored role string onto a known Role. Unknown values
// collapse to member, the lowest privilege tier.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// Rank returns the position of the role in the member < user < admin order.
// Unknown roles rank below member and therefore pass no role check.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return rankMember
	case RoleUser:
		return rankUser
	case RoleAdmin:
		return rankAdmin
	default:
		return rankUnknown
	}
}

// Scope sets per role, fixed at compile time. Each tier is a strict superset
// of the one below it: member reads, user reads and writes, admin adds the
// admin surface on top.
var (
	memberScopes = []string{
		"user:read", "content:read", "media:read", "api:read", "mfa:read",
	}

	userScopes = []string{
		"user:read", "user:write",
		"content:read", "content:write",
		"media:read", "media:write",
		"api:read", "api:write",
		"mfa:read", "mfa:write",
	}

	adminScopes = append(slices.Clone(userScopes), "admin:read", "admin:write")
)

// ScopesForRole returns the capability set for a role. Total over all inputs;
// unknown roles get the member set. Callers receive a copy and may mutate it.
func ScopesForRole(r Role) []string {
	switch r {
	case RoleAdmin:
		return slices.Clone(adminScopes)
	case RoleUser:
		return slices.Clone(userScopes)
	default:
		return slices.Clone(memberScopes)
	}
}

// HasScope reports whether required is present in the token's scope set.
func HasScope(tokenScopes []string, required string) bool {
	return slices.Contains(tokenScopes, required)
}

// HasAnyScope reports whether at least one required scope is present.
func HasAnyScope(tokenScopes []string, required ...string) bool {
	for _, want := range required {
		if slices.Contains(tokenScopes, want) {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether every required scope is present.
func HasAllScopes(tokenScopes []string, required ...string) bool {
	for _, want := range required {
		if !slices.Contains(tokenScopes, want) {
			return false
		}
	}
	return true
}
