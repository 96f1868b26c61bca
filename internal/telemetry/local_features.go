package telemetry

import (
	"context"

	"github.com/petasbytes/mindbuddy/internal/metrics"
)

// EmitLocalFeatures records size features of the user's message for the turn in ctx.
func (e *Emitter) EmitLocalFeatures(ctx context.Context, user string) {
	if !e.Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(user)
	e.Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"user":             f,
	})
}
