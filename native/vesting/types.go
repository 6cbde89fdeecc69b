package vesting

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxRoster bounds the roster, default recipient included.
const MaxRoster = 50

// Config describes one escrow instance.
type Config struct {
	ID string
	// Escrow is the wallet holding the vested tokens.
	Escrow common.Address
	// DefaultRecipient receives whatever the named participants do not claim.
	DefaultRecipient     common.Address
	TotalIntervals       uint64
	IntervalSeconds      uint64
	IncludeFirstInterval bool
	// FollowSaleEnd schedules activation at the sale end whenever the final
	// stage is reconfigured.
	FollowSaleEnd bool
}

// Validate checks the static shape of the configuration.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return ErrInvalidConfig
	case c.Escrow == (common.Address{}), c.DefaultRecipient == (common.Address{}):
		return ErrInvalidConfig
	case c.Escrow == c.DefaultRecipient:
		return ErrInvalidConfig
	case c.TotalIntervals == 0, c.IntervalSeconds == 0:
		return ErrInvalidConfig
	}
	return nil
}

// Participant is a roster entry. The default recipient's Allotment is
// always zero; its releasable base is computed from the escrow balance.
type Participant struct {
	Wallet    common.Address
	Allotment *big.Int
	Delivered *big.Int
}

// Totals are the escrow-wide sums kept alongside the roster.
type Totals struct {
	// Participants is the sum of named allotments.
	Participants *big.Int
	// Delivered is the sum delivered to every roster wallet.
	Delivered *big.Int
}

// Delivery is one transfer made by Deliver.
type Delivery struct {
	Wallet common.Address
	Amount *big.Int
}

// Guard rejects vesting mutations while a delivery is moving tokens. One
// guard is shared by every escrow of a node.
type Guard struct {
	active bool
}

func (g *Guard) enter() error {
	if g == nil {
		return nil
	}
	if g.active {
		return ErrReentrant
	}
	g.active = true
	return nil
}

func (g *Guard) exit() {
	if g != nil {
		g.active = false
	}
}

func (g *Guard) check() error {
	if g != nil && g.active {
		return ErrReentrant
	}
	return nil
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
