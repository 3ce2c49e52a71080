// Package events emits governance audit events.
//
// Every event is written as a structured audit log line. When a Sink is
// configured (Kafka in production, memory in tests) the event is also
// forwarded there, synchronously or through a bounded async buffer.
package events

import (
	"time"

	id "govnet/pkg/domain"
)

// Type names a governance action.
type Type string

const (
	ClientRegistered   Type = "client_registered"
	VoteCast           Type = "vote_cast"
	ClientApproved     Type = "client_approved"
	ClientRejected     Type = "client_rejected"
	StewardCreated     Type = "steward_created"
	StewardDeactivated Type = "steward_deactivated"
	StewardDeleted     Type = "steward_deleted"
	LedgerRegistered   Type = "ledger_registered"
	LedgerFailed       Type = "ledger_registration_failed"
	LedgerStatusSet    Type = "ledger_status_updated"
)

// Event is one governance action. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Type           Type              `json:"type"`
	Timestamp      time.Time         `json:"timestamp"`
	ClientID       id.ClientID       `json:"client_id,omitzero"`
	StewardID      id.StewardID      `json:"steward_id,omitzero"`
	RegistrationID id.RegistrationID `json:"registration_id,omitzero"`
	// Outcome is the resulting state (approved, rejected, registered, ...).
	Outcome string `json:"outcome,omitempty"`
	// Trigger names what caused a finalization (vote, expiry, abandoned).
	Trigger   string `json:"trigger,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
