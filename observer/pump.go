package observer

import (
	"context"

	"github.com/dcshock/sewer/pipeline"
)

// pumpKey identifies the pump a hook belongs to. Run IDs come from callers
// and may repeat across concurrent pumps, so the system's per-pump ID is
// preferred.
func pumpKey(ctx context.Context, runID string) string {
	if info, ok := pipeline.RunInfoFromContext(ctx); ok && info.PumpID != "" {
		return info.PumpID
	}
	return runID
}

// systemName is the system of the pump a hook belongs to.
func systemName(ctx context.Context) string {
	info, _ := pipeline.RunInfoFromContext(ctx)
	return info.System
}
