package common

import errs "tokensale/core/errors"

// Module names recognised by the pause guard.
const (
	ModuleSale     = "sale"
	ModuleVesting  = "vesting"
	ModuleReferral = "referral"
)

var ErrModulePaused = errs.New(errs.ErrState, "module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return errs.Wrapf(ErrModulePaused, "%s", module)
	}
	return nil
}
