package models

// ClientStatus is the lifecycle position of a client admission request.
type ClientStatus string

const (
	ClientStatusVoting   ClientStatus = "voting"
	ClientStatusApproved ClientStatus = "approved"
	ClientStatusRejected ClientStatus = "rejected"
)

func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusVoting, ClientStatusApproved, ClientStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ClientStatus) IsTerminal() bool {
	return s == ClientStatusApproved || s == ClientStatusRejected
}

// CanTransitionTo allows only voting -> approved and voting -> rejected.
func (s ClientStatus) CanTransitionTo(target ClientStatus) bool {
	return s == ClientStatusVoting && target.IsTerminal()
}

// ClientRole is the part a client plays in the SSI flow.
type ClientRole string

const (
	ClientRoleIssuer   ClientRole = "issuer"
	ClientRoleVerifier ClientRole = "verifier"
	ClientRoleBoth     ClientRole = "both"
)

func (r ClientRole) IsValid() bool {
	switch r {
	case ClientRoleIssuer, ClientRoleVerifier, ClientRoleBoth:
		return true
	}
	return false
}

// CanIssue reports whether the client issues credentials and therefore
// registers on the ledger as an endorser.
func (r ClientRole) CanIssue() bool {
	return r == ClientRoleIssuer || r == ClientRoleBoth
}

// StewardStatus controls whether a steward counts toward the quorum.
type StewardStatus string

const (
	StewardStatusActive   StewardStatus = "active"
	StewardStatusInactive StewardStatus = "inactive"
)

func (s StewardStatus) IsValid() bool {
	return s == StewardStatusActive || s == StewardStatusInactive
}

// VoteChoice is a steward's ballot.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
	VoteAbstain VoteChoice = "abstain"
)

func (v VoteChoice) IsValid() bool {
	switch v {
	case VoteApprove, VoteReject, VoteAbstain:
		return true
	}
	return false
}

// LedgerRole is the nym role requested on the ledger.
type LedgerRole string

const (
	LedgerRoleEndorser LedgerRole = "ENDORSER"
	// LedgerRoleNone registers a plain nym without elevated permissions.
	LedgerRoleNone LedgerRole = "NONE"
)

// LedgerRoleFor derives the nym role from the client role.
func LedgerRoleFor(role ClientRole) LedgerRole {
	if role.CanIssue() {
		return LedgerRoleEndorser
	}
	return LedgerRoleNone
}

// LedgerStatus tracks a registration after the nym was written.
type LedgerStatus string

const (
	LedgerStatusRegistered LedgerStatus = "registered"
	LedgerStatusRevoked    LedgerStatus = "revoked"
	LedgerStatusSuspended  LedgerStatus = "suspended"
)

func (s LedgerStatus) IsValid() bool {
	switch s {
	case LedgerStatusRegistered, LedgerStatusRevoked, LedgerStatusSuspended:
		return true
	}
	return false
}
