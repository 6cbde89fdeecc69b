package sale

import errs "tokensale/core/errors"

var (
	ErrZeroBeneficiary        = errs.New(errs.ErrValidation, "sale: beneficiary must not be zero")
	ErrZeroValue              = errs.New(errs.ErrValidation, "sale: value must be positive")
	ErrInvalidRate            = errs.New(errs.ErrValidation, "sale: rate must be positive")
	ErrInvalidPrice           = errs.New(errs.ErrValidation, "sale: price per token must be positive")
	ErrBelowMinimumInvestment = errs.New(errs.ErrValidation, "sale: investment below stage minimum")
	ErrInvalidStageLength     = errs.New(errs.ErrValidation, "sale: stage length must be positive")
	ErrStageStartNotFuture    = errs.New(errs.ErrValidation, "sale: stage start must be in the future")
	ErrInvalidStages          = errs.New(errs.ErrValidation, "sale: invalid stage table")
	ErrInvalidBonus           = errs.New(errs.ErrValidation, "sale: invalid bonus table")

	ErrSaleClosed          = errs.New(errs.ErrState, "sale: sale is not open")
	ErrSaleNotClosed       = errs.New(errs.ErrState, "sale: sale has not closed")
	ErrStageLocked         = errs.New(errs.ErrState, "sale: final stage can no longer be rescheduled")
	ErrNoStages            = errs.New(errs.ErrState, "sale: no stages configured")
	ErrNothingToBurn       = errs.New(errs.ErrState, "sale: no unsold inventory")
	ErrNotConfigured       = errs.New(errs.ErrState, "sale: parameters not configured")
	ErrHardCapReached      = errs.New(errs.ErrCapacity, "sale: hard cap reached")
	ErrStageSupplyExceeded = errs.New(errs.ErrCapacity, "sale: stage supply ceiling exceeded")

	ErrNoActiveStage = errs.New(errs.ErrNotFound, "sale: no active stage")
)
