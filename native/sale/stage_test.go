package sale

import (
	"errors"
	"math/big"
	"testing"
)

func threeStages() []Stage {
	return []Stage{
		{ID: 1, Start: 100, End: 200, MinInvestment: big.NewInt(0), SupplyCeiling: big.NewInt(1)},
		{ID: 2, Start: 200, End: 300, MinInvestment: big.NewInt(0), SupplyCeiling: big.NewInt(1)},
		{ID: 3, Start: 300, End: 400, MinInvestment: big.NewInt(0), SupplyCeiling: big.NewInt(1)},
	}
}

func TestResolveStageBoundaries(t *testing.T) {
	stages := threeStages()
	cases := []struct {
		now  uint64
		id   uint64
		open bool
	}{
		{now: 99},
		{now: 100, id: 1, open: true},
		{now: 199, id: 1, open: true},
		{now: 200, id: 2, open: true},
		{now: 399, id: 3, open: true},
		{now: 400},
	}
	for _, tc := range cases {
		stage, ok := ResolveStage(stages, tc.now)
		if ok != tc.open {
			t.Fatalf("now=%d: expected ok=%v", tc.now, tc.open)
		}
		if ok && stage.ID != tc.id {
			t.Fatalf("now=%d: expected stage %d, got %d", tc.now, tc.id, stage.ID)
		}
	}
}

func TestResolveStageLastMatchWins(t *testing.T) {
	stages := threeStages()
	stages[2].Start = 150 // overlaps stages 1 and 2
	stage, ok := ResolveStage(stages, 160)
	if !ok || stage.ID != 3 {
		t.Fatalf("expected last matching stage 3, got %d (ok=%v)", stage.ID, ok)
	}
}

func TestOpenAndClosed(t *testing.T) {
	stages := threeStages()
	if !IsOpen(stages, 50) || HasClosed(stages, 50) {
		t.Fatalf("sale should be open before the first window")
	}
	if IsOpen(stages, 400) || !HasClosed(stages, 400) {
		t.Fatalf("sale should be closed at the final end")
	}
	if IsOpen(nil, 0) || HasClosed(nil, 0) {
		t.Fatalf("empty table is neither open nor closed")
	}
}

func TestConfigureFinalStage(t *testing.T) {
	stages := threeStages()

	out, end, err := ConfigureFinalStage(stages, false, 150, 250, 500)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if end != 750 {
		t.Fatalf("expected end 750, got %d", end)
	}
	if out[2].Start != 250 || out[2].End != 750 {
		t.Fatalf("final stage not rescheduled: %+v", out[2])
	}
	if out[0].End != 250 || out[1].Start != 250 {
		t.Fatalf("bootstrap should move the first/second boundary, got %+v %+v", out[0], out[1])
	}
	if out[1].End != 300 {
		t.Fatalf("middle stage end must stay put, got %d", out[1].End)
	}
	if stages[2].Start != 300 {
		t.Fatalf("input table mutated")
	}

	out, _, err = ConfigureFinalStage(out, true, 150, 240, 10)
	if err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	if out[0].End != 250 || out[1].Start != 250 {
		t.Fatalf("later calls must leave the first/second boundary alone, got %+v %+v", out[0], out[1])
	}
	if out[2].Start != 240 || out[2].End != 250 {
		t.Fatalf("final stage not rescheduled: %+v", out[2])
	}
}

func TestConfigureFinalStageTwoStages(t *testing.T) {
	stages := threeStages()[:2]

	out, end, err := ConfigureFinalStage(stages, false, 50, 150, 100)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if end != 250 {
		t.Fatalf("expected end 250, got %d", end)
	}
	if out[0].Start != 100 || out[0].End != 150 {
		t.Fatalf("first stage should end at the new start: %+v", out[0])
	}
	if out[1].Start != 150 || out[1].End != 250 {
		t.Fatalf("final stage not rescheduled: %+v", out[1])
	}
}

func TestConfigureFinalStageRejects(t *testing.T) {
	stages := threeStages()
	cases := []struct {
		name              string
		now, start, lngth uint64
		want              error
	}{
		{name: "zero length", now: 150, start: 250, lngth: 0, want: ErrInvalidStageLength},
		{name: "start in past", now: 250, start: 250, lngth: 10, want: ErrStageStartNotFuture},
		{name: "after final start", now: 150, start: 300, lngth: 10, want: ErrStageLocked},
		{name: "final already begun", now: 350, start: 360, lngth: 10, want: ErrStageLocked},
	}
	for _, tc := range cases {
		if _, _, err := ConfigureFinalStage(stages, false, tc.now, tc.start, tc.lngth); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if _, _, err := ConfigureFinalStage(nil, false, 0, 1, 1); !errors.Is(err, ErrNoStages) {
		t.Fatalf("expected ErrNoStages, got %v", err)
	}
}

func TestValidateStages(t *testing.T) {
	if err := ValidateStages(threeStages()); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	bad := threeStages()
	bad[1].End = bad[1].Start
	if err := ValidateStages(bad); !errors.Is(err, ErrInvalidStages) {
		t.Fatalf("expected ErrInvalidStages, got %v", err)
	}
	dup := threeStages()
	dup[2].ID = 1
	if err := ValidateStages(dup); !errors.Is(err, ErrInvalidStages) {
		t.Fatalf("expected duplicate id rejection, got %v", err)
	}
}
