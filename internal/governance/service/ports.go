package service

import (
	"context"

	"govnet/internal/agent"
	"govnet/internal/governance/events"
)

// LedgerAgent writes nyms to the ledger.
type LedgerAgent interface {
	RegisterNym(ctx context.Context, nym agent.NymRequest) error
}

// EventPublisher receives governance events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}
