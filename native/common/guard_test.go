package common

import (
	"errors"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"

	errs "tokensale/core/errors"
	"tokensale/core/state"
	"tokensale/storage"
)

type staticPause map[string]bool

func (s staticPause) IsPaused(module string) bool { return s[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, ModuleSale); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	view := staticPause{ModuleSale: true}
	err := Guard(view, ModuleSale)
	if !errors.Is(err, ErrModulePaused) || !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected paused state error, got %v", err)
	}
	if err := Guard(view, ModuleVesting); err != nil {
		t.Fatalf("unexpected block: %v", err)
	}
}

func TestPausesToggle(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	caller := ethcommon.HexToAddress("0x01")
	if err := mgr.Update(func(tx *state.Tx) error {
		return NewPauses(tx).SetPaused(caller, " SALE ", true)
	}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_ = mgr.View(func(tx *state.Tx) error {
		if err := Guard(NewPauses(tx), ModuleSale); !errors.Is(err, ErrModulePaused) {
			t.Fatalf("expected sale to be paused, got %v", err)
		}
		return nil
	})
	err := mgr.Update(func(tx *state.Tx) error {
		return NewPauses(tx).SetPaused(caller, "lending", true)
	})
	if !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}
