package sale

import "math"

// ResolveStage returns the stage whose window contains now. Every stage is
// checked; when windows overlap the last match in table order wins.
func ResolveStage(stages []Stage, now uint64) (Stage, bool) {
	var (
		found Stage
		ok    bool
	)
	for _, stage := range stages {
		if stage.Contains(now) {
			found = stage
			ok = true
		}
	}
	if !ok {
		return Stage{}, false
	}
	return found.Clone(), true
}

// IsOpen reports whether now is not yet past the end of the final stage.
func IsOpen(stages []Stage, now uint64) bool {
	if len(stages) == 0 {
		return false
	}
	return now < stages[len(stages)-1].End
}

// HasClosed reports whether the final stage has ended.
func HasClosed(stages []Stage, now uint64) bool {
	if len(stages) == 0 {
		return false
	}
	return now >= stages[len(stages)-1].End
}

// ConfigureFinalStage reschedules the final stage to [start, start+length).
// The new start must lie strictly between now and the currently configured
// final stage start. Unless bootstrapped is set, the boundary between the
// first and second stage is moved to start as well. The input slice is not
// modified.
func ConfigureFinalStage(stages []Stage, bootstrapped bool, now, start, length uint64) ([]Stage, uint64, error) {
	if len(stages) == 0 {
		return nil, 0, ErrNoStages
	}
	if length == 0 {
		return nil, 0, ErrInvalidStageLength
	}
	if start <= now {
		return nil, 0, ErrStageStartNotFuture
	}
	final := stages[len(stages)-1]
	if start >= final.Start {
		return nil, 0, ErrStageLocked
	}
	if start > math.MaxUint64-length {
		return nil, 0, ErrInvalidStageLength
	}
	end := start + length

	out := make([]Stage, len(stages))
	for i, stage := range stages {
		out[i] = stage.Clone()
	}
	last := len(out) - 1
	out[last].Start = start
	out[last].End = end
	if !bootstrapped && last > 0 {
		out[0].End = start
		if last > 1 {
			out[1].Start = start
		}
	}
	return out, end, nil
}

// ValidateStages checks the static shape of a stage table. Window overlap is
// not rejected; ResolveStage settles overlaps by table order.
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return ErrNoStages
	}
	seen := make(map[uint64]struct{}, len(stages))
	for _, stage := range stages {
		if stage.End <= stage.Start {
			return ErrInvalidStages
		}
		if _, dup := seen[stage.ID]; dup {
			return ErrInvalidStages
		}
		seen[stage.ID] = struct{}{}
		if stage.MinInvestment == nil || stage.MinInvestment.Sign() < 0 {
			return ErrInvalidStages
		}
		if stage.SupplyCeiling == nil || stage.SupplyCeiling.Sign() <= 0 {
			return ErrInvalidStages
		}
	}
	return nil
}
