// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit event types published on the audit.events queue.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventUserLoggedOut  = "user.logged_out"
	EventVenueCreated   = "venue.created"
	EventVenueUpdated   = "venue.updated"
	EventVenueDeleted   = "venue.deleted"
)

// AuditEvent is published for authentication and venue mutations so that
// downstream consumers can build an audit trail without querying the
// primary database.
type AuditEvent struct {
	Type      string `json:"type"`
	UserID    uint64 `json:"user_id"`
	Email     string `json:"email,omitempty"`
	VenueID   uint64 `json:"venue_id,omitempty"`
	VenueName string `json:"venue_name,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	At        string `json:"at"`
}
