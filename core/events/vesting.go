package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	// TypeVestingActivationSet is emitted when an escrow's activation time is
	// (re)scheduled.
	TypeVestingActivationSet = "vesting.activation.set"
	// TypeVestingParticipantAdded is emitted when a wallet receives or
	// replaces an allotment.
	TypeVestingParticipantAdded = "vesting.participant.added"
	// TypeVestingParticipantRemoved is emitted when a wallet leaves the roster.
	TypeVestingParticipantRemoved = "vesting.participant.removed"
	// TypeVestingDelivered is emitted for every non-zero delivery.
	TypeVestingDelivered = "vesting.delivered"
)

// VestingActivationSet captures a new activation timestamp.
type VestingActivationSet struct {
	Escrow     string
	Activation uint64
}

func (VestingActivationSet) EventType() string { return TypeVestingActivationSet }

func (e VestingActivationSet) Event() *types.Event {
	return &types.Event{Type: TypeVestingActivationSet, Attributes: map[string]string{
		"escrow":     e.Escrow,
		"activation": formatUint(e.Activation),
	}}
}

// VestingParticipantAdded captures a new or replaced allotment.
type VestingParticipantAdded struct {
	Escrow    string
	Wallet    common.Address
	Allotment *big.Int
	Replaced  bool
}

func (VestingParticipantAdded) EventType() string { return TypeVestingParticipantAdded }

func (e VestingParticipantAdded) Event() *types.Event {
	attrs := map[string]string{
		"escrow":    e.Escrow,
		"wallet":    formatAddress(e.Wallet),
		"allotment": formatAmount(e.Allotment),
	}
	if e.Replaced {
		attrs["replaced"] = "true"
	}
	return &types.Event{Type: TypeVestingParticipantAdded, Attributes: attrs}
}

// VestingParticipantRemoved captures a roster removal.
type VestingParticipantRemoved struct {
	Escrow    string
	Wallet    common.Address
	Allotment *big.Int
}

func (VestingParticipantRemoved) EventType() string { return TypeVestingParticipantRemoved }

func (e VestingParticipantRemoved) Event() *types.Event {
	return &types.Event{Type: TypeVestingParticipantRemoved, Attributes: map[string]string{
		"escrow":    e.Escrow,
		"wallet":    formatAddress(e.Wallet),
		"allotment": formatAmount(e.Allotment),
	}}
}

// VestingDelivered captures a release transfer to one roster wallet.
type VestingDelivered struct {
	Escrow    string
	Wallet    common.Address
	Amount    *big.Int
	Delivered *big.Int
}

func (VestingDelivered) EventType() string { return TypeVestingDelivered }

func (e VestingDelivered) Event() *types.Event {
	return &types.Event{Type: TypeVestingDelivered, Attributes: map[string]string{
		"escrow":    e.Escrow,
		"wallet":    formatAddress(e.Wallet),
		"amount":    formatAmount(e.Amount),
		"delivered": formatAmount(e.Delivered),
	}}
}
