// Package domain holds typed identifiers shared across governance packages.
//
// Each entity gets its own UUID-backed type so a steward id can never be passed
// where a client id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "govnet/pkg/domain-errors"
)

type (
	ClientID       uuid.UUID
	StewardID      uuid.UUID
	VoteID         uuid.UUID
	RegistrationID uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	return parsed, nil
}

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID("client_id", s)
	return ClientID(u), err
}

func ParseStewardID(s string) (StewardID, error) {
	u, err := parseUUID("steward_id", s)
	return StewardID(u), err
}

func ParseVoteID(s string) (VoteID, error) {
	u, err := parseUUID("vote_id", s)
	return VoteID(u), err
}

func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID("registration_id", s)
	return RegistrationID(u), err
}

func NewClientID() ClientID             { return ClientID(uuid.New()) }
func NewStewardID() StewardID           { return StewardID(uuid.New()) }
func NewVoteID() VoteID                 { return VoteID(uuid.New()) }
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

func (id ClientID) String() string       { return uuid.UUID(id).String() }
func (id StewardID) String() string      { return uuid.UUID(id).String() }
func (id VoteID) String() string         { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

func (id ClientID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id StewardID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VoteID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed ids serialize as plain UUID strings in JSON.
func (id ClientID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id StewardID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id VoteID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id RegistrationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ClientID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *StewardID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *VoteID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
