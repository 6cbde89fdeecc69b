package vesting

import errs "tokensale/core/errors"

var (
	ErrInvalidConfig       = errs.New(errs.ErrValidation, "vesting: invalid escrow configuration")
	ErrZeroWallet          = errs.New(errs.ErrValidation, "vesting: wallet must not be zero")
	ErrDefaultRecipient    = errs.New(errs.ErrValidation, "vesting: default recipient cannot be edited")
	ErrZeroAllotment       = errs.New(errs.ErrValidation, "vesting: allotment must be positive")
	ErrActivationNotFuture = errs.New(errs.ErrValidation, "vesting: activation must be in the future")

	ErrActivated    = errs.New(errs.ErrState, "vesting: escrow already activated")
	ErrNotActivated = errs.New(errs.ErrState, "vesting: escrow not activated")
	ErrReentrant    = errs.New(errs.ErrState, "vesting: delivery in progress")

	ErrExceedsEscrow = errs.New(errs.ErrCapacity, "vesting: allotment exceeds unallocated escrow")
	ErrRosterFull    = errs.New(errs.ErrCapacity, "vesting: roster is full")
)
