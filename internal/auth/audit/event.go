// Package audit carries structured security events out of the auth core.
// The core only emits; shipping events anywhere (log stream, SIEM, queue) is
// the sink implementation's business.
package audit

import (
	"time"

	"github.com/foliocms/folio/pkg/idx"
)

// EventType names a class of security-relevant occurrence.
type EventType string

const (
	EventLoginSuccess EventType = "login_success"
	EventLoginFailure EventType = "login_failure"
	EventMFAChallenge EventType = "mfa_challenge"
	EventMFAEnrolled  EventType = "mfa_enrolled"
	EventMFADisabled  EventType = "mfa_disabled"
	EventTokenRotated EventType = "token_rotated"
	EventTokenRevoked EventType = "token_revoked"

	// EventRefreshReuse fires when a rotated refresh token is presented
	// again. Treat as a possible token theft signal.
	EventRefreshReuse EventType = "refresh_reuse"
)

// Event is one security event. UserID may be empty when the subject could
// not be resolved (e.g. login with an unknown email); the email itself is
// never recorded on failures so the event stream cannot be used to probe
// account existence.
type Event struct {
	ID     idx.ID            `json:"id"`
	Type   EventType         `json:"type"`
	UserID string            `json:"user_id,omitempty"`
	At     time.Time         `json:"at"`
	Detail map[string]string `json:"detail,omitempty"`
}

// NewEvent stamps an event with an ID and the given instant.
func NewEvent(typ EventType, userID string, at time.Time, detail map[string]string) Event {
	return Event{
		ID:     idx.NewAt(at),
		Type:   typ,
		UserID: userID,
		At:     at,
		Detail: detail,
	}
}
