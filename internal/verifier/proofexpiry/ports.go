package proofexpiry

import (
	"context"

	"govnet/internal/agent"
)

// Agent is the slice of the agent admin API the invalidator uses.
type Agent interface {
	ListProofRecords(ctx context.Context) ([]agent.ProofRecord, error)
	SendProblemReport(ctx context.Context, presExID, description string) error
}
