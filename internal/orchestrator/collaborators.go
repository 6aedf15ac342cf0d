package orchestrator

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// OrderSubmitter places orders on a venue. Both calls are fire and forget:
// the outcome arrives later through Orchestrator.OnEvent.
type OrderSubmitter interface {
	// Submit places a market buy for the intent.
	Submit(ctx context.Context, intent types.OrderIntent) error
	// Close sells the whole open position.
	Close(ctx context.Context, position types.Position) error
}

// DecisionRecorder persists every non-hold decision the orchestrator takes.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, record types.DecisionRecord) error
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(context.Context, types.DecisionRecord) error { return nil }
