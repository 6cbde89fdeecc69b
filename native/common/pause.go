package common

import (
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/types"
)

var ErrUnknownModule = errs.New(errs.ErrValidation, "unknown module")

var pausePrefix = []byte("pause/")

// PauseState is the subset of the state manager the pause registry needs.
type PauseState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	AppendEvent(evt *types.Event)
}

// Pauses is a state-backed PauseView.
type Pauses struct {
	state PauseState
}

// NewPauses binds the registry to st.
func NewPauses(st PauseState) *Pauses { return &Pauses{state: st} }

func normalizeModule(module string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(module))
	switch normalized {
	case ModuleSale, ModuleVesting, ModuleReferral:
		return normalized, nil
	default:
		return "", errs.Wrapf(ErrUnknownModule, "%q", module)
	}
}

// IsPaused implements PauseView. A state read failure is reported as paused.
func (p *Pauses) IsPaused(module string) bool {
	if p == nil || p.state == nil {
		return false
	}
	var paused bool
	ok, err := p.state.KVGet(append(append([]byte(nil), pausePrefix...), module...), &paused)
	if err != nil {
		return true
	}
	return ok && paused
}

// SetPaused toggles module. Setting the current value is a no-op.
func (p *Pauses) SetPaused(caller ethcommon.Address, module string, paused bool) error {
	normalized, err := normalizeModule(module)
	if err != nil {
		return err
	}
	if p.IsPaused(normalized) == paused {
		return nil
	}
	if err := p.state.KVPut(append(append([]byte(nil), pausePrefix...), normalized...), paused); err != nil {
		return err
	}
	p.state.AppendEvent(events.ModulePause{Module: normalized, Caller: caller, Paused: paused}.Event())
	return nil
}
