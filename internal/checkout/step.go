package checkout

import "context"

// Soft step names, also used as the Step metric dimension.
const (
	StepEmail         = "email"
	StepStatusUpdate  = "status_update"
	StepManualDetails = "manual_details"
	StepPublish       = "publish"
)

// StepResult reports a best-effort step. A step that was not attempted is the zero value.
type StepResult struct {
	Attempted bool  `json:"attempted"`
	Succeeded bool  `json:"succeeded"`
	Err       error `json:"-"`
}

// softStep runs fn under the collaborator timeout. A failure is logged, counted and
// returned in the result, never propagated.
func (s *Service) softStep(ctx context.Context, orderID, step string, fn func(ctx context.Context) error) StepResult {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	if err := fn(callCtx); err != nil {
		s.logger.Warn("soft step failed", "order_id", orderID, "step", step, "error", err)
		if s.metrics != nil {
			if merr := s.metrics.Count(ctx, softFailureMetric, map[string]string{"Step": step}); merr != nil {
				s.logger.Debug("metric not recorded", "step", step, "error", merr)
			}
		}
		return StepResult{Attempted: true, Err: err}
	}
	return StepResult{Attempted: true, Succeeded: true}
}
