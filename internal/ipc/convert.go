package ipc

import (
	"fmt"

	"backlog/internal/scheduler"
)

// FetchNextResponseFrom maps a scheduler fetch result onto the wire shape.
// The same mapping backs the daemon server and the CLI's direct-store path.
func FetchNextResponseFrom(result *scheduler.FetchResult) (*FetchNextResponse, error) {
	resp := &FetchNextResponse{}
	switch result.Outcome {
	case scheduler.OutcomeClaimed:
		resp.Feature = FromFeature(result.Feature)
		resp.AttemptsRemaining = result.AttemptsRemaining
		resp.Warning = result.Warning
	case scheduler.OutcomeResumed:
		resp.Feature = FromFeature(result.Feature)
		resp.Resumed = true
		resp.AttemptsRemaining = result.AttemptsRemaining
		resp.Message = "resuming previously started feature"
	case scheduler.OutcomeAutoSkipped:
		resp.AutoSkipped = true
		resp.SkippedFeatureID = result.Skipped.ID
		resp.SkippedFeatureName = result.Skipped.Name
		resp.Reason = result.Skipped.Reason
		resp.LastError = result.Skipped.LastError
		resp.Message = "feature moved to back of queue; fetch again for next feature"
	case scheduler.OutcomeBlocked:
		resp.Error = fmt.Sprintf("no workable features: %d feature(s) blocked after repeated failures", result.BlockedCount)
		resp.BlockedCount = result.BlockedCount
	case scheduler.OutcomeAllComplete:
		resp.AllComplete = true
		resp.Message = "all features are passing"
	default:
		return nil, fmt.Errorf("unknown fetch outcome %q", result.Outcome)
	}
	return resp, nil
}
