package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/native/access"
	"tokensale/native/referral"
	"tokensale/native/sale"
	"tokensale/native/vesting"
)

// Status summarises the sale at the node's current time.
type Status struct {
	Now         uint64
	Params      sale.Params
	Stages      []sale.Stage
	Bonuses     []sale.VolumeBonus
	ActiveStage *sale.Stage
	Open        bool
	Closed      bool
	Counters    sale.Counters
	Inventory   *big.Int
	TotalSupply *big.Int
	Forwarded   *big.Int
}

// Status returns the sale summary.
func (n *Node) Status() (Status, error) {
	var out Status
	err := n.view(func(e engines, now uint64) error {
		params, err := e.sale.Params()
		if err != nil {
			return err
		}
		stages, err := e.sale.Stages()
		if err != nil {
			return err
		}
		bonuses, err := e.sale.Bonuses()
		if err != nil {
			return err
		}
		counters, err := e.sale.Counters()
		if err != nil {
			return err
		}
		inventory, err := e.token.BalanceOf(params.Inventory)
		if err != nil {
			return err
		}
		supply, err := e.token.TotalSupply()
		if err != nil {
			return err
		}
		forwarded, err := sale.NewVault(e.tx, params.Custody).Total()
		if err != nil {
			return err
		}
		out = Status{
			Now:         now,
			Params:      params,
			Stages:      stages,
			Bonuses:     bonuses,
			Open:        sale.IsOpen(stages, now),
			Closed:      sale.HasClosed(stages, now),
			Counters:    counters,
			Inventory:   inventory,
			TotalSupply: supply,
			Forwarded:   forwarded,
		}
		if stage, ok := sale.ResolveStage(stages, now); ok {
			out.ActiveStage = &stage
		}
		return nil
	})
	return out, err
}

// Quote sizes investmentUSD against the active stage without committing.
func (n *Node) Quote(investmentUSD *big.Int) (sale.Allocation, error) {
	var alloc sale.Allocation
	err := n.view(func(e engines, now uint64) error {
		var err error
		alloc, err = e.sale.ComputeAllocation(now, investmentUSD)
		return err
	})
	return alloc, err
}

// Investor returns the tokens credited to addr by the sale.
func (n *Node) Investor(addr common.Address) (sale.Investor, bool, error) {
	var (
		inv sale.Investor
		ok  bool
	)
	err := n.view(func(e engines, _ uint64) error {
		var err error
		inv, ok, err = e.sale.Investor(addr)
		return err
	})
	return inv, ok, err
}

// Investors returns every credited address in first-credit order.
func (n *Node) Investors() ([]common.Address, error) {
	var out []common.Address
	err := n.view(func(e engines, _ uint64) error {
		var err error
		out, err = e.sale.Investors()
		return err
	})
	return out, err
}

// BalanceOf returns the token balance of addr.
func (n *Node) BalanceOf(addr common.Address) (*big.Int, error) {
	var out *big.Int
	err := n.view(func(e engines, _ uint64) error {
		var err error
		out, err = e.token.BalanceOf(addr)
		return err
	})
	return out, err
}

// InviteOf reports the referral bindings of addr.
func (n *Node) InviteOf(addr common.Address) (referral.Invite, error) {
	var out referral.Invite
	err := n.view(func(e engines, _ uint64) error {
		var err error
		out, err = e.referral.InviteOf(addr)
		return err
	})
	return out, err
}

// ReferralLink returns owner's link.
func (n *Node) ReferralLink(owner common.Address) (referral.Link, bool, error) {
	var (
		out referral.Link
		ok  bool
	)
	err := n.view(func(e engines, _ uint64) error {
		var err error
		out, ok, err = e.referral.Link(owner)
		return err
	})
	return out, ok, err
}

// HasRole reports whether addr holds role, owners implying operator.
func (n *Node) HasRole(role access.Role, addr common.Address) (bool, error) {
	var out bool
	err := n.view(func(e engines, _ uint64) error {
		out = e.access.Authorized(addr, role)
		return nil
	})
	return out, err
}

// IsPaused reports whether module is paused.
func (n *Node) IsPaused(module string) (bool, error) {
	var out bool
	err := n.view(func(e engines, _ uint64) error {
		out = e.pauses.IsPaused(module)
		return nil
	})
	return out, err
}

// ParticipantView is one roster row with its release figures at the node's
// current time. Released and Available are nil before activation.
type ParticipantView struct {
	vesting.Participant
	Slot      int
	Released  *big.Int
	Available *big.Int
}

// EscrowView summarises one escrow.
type EscrowView struct {
	Config       vesting.Config
	Activation   uint64
	Activated    bool
	Balance      *big.Int
	Totals       vesting.Totals
	Participants []ParticipantView
}

// Escrow returns the roster and release figures of an escrow.
func (n *Node) Escrow(id string) (EscrowView, error) {
	cfg, err := n.escrow(id)
	if err != nil {
		return EscrowView{}, err
	}
	var out EscrowView
	err = n.view(func(e engines, now uint64) error {
		v := e.vesting(cfg)
		activation, err := v.Activation()
		if err != nil {
			return err
		}
		activated, err := v.Activated(now)
		if err != nil {
			return err
		}
		balance, err := e.token.BalanceOf(cfg.Escrow)
		if err != nil {
			return err
		}
		totals, err := v.Totals()
		if err != nil {
			return err
		}
		roster, err := v.Participants()
		if err != nil {
			return err
		}
		out = EscrowView{Config: cfg, Activation: activation, Activated: activated, Balance: balance, Totals: totals}
		for slot, wallet := range roster {
			p, _, err := v.Participant(wallet)
			if err != nil {
				return err
			}
			row := ParticipantView{Participant: p, Slot: slot}
			if activated {
				if row.Released, err = v.ReleasedAmount(wallet, now); err != nil {
					return err
				}
				if row.Available, err = v.AvailableToDeliver(wallet, now); err != nil {
					return err
				}
			}
			out.Participants = append(out.Participants, row)
		}
		return nil
	})
	return out, err
}

// ReleasedAmount returns the vested amount of wallet in an escrow.
func (n *Node) ReleasedAmount(escrowID string, wallet common.Address) (*big.Int, error) {
	cfg, err := n.escrow(escrowID)
	if err != nil {
		return nil, err
	}
	var out *big.Int
	err = n.view(func(e engines, now uint64) error {
		var err error
		out, err = e.vesting(cfg).ReleasedAmount(wallet, now)
		return err
	})
	return out, err
}

// AvailableToDeliver returns what Deliver would transfer to wallet now.
func (n *Node) AvailableToDeliver(escrowID string, wallet common.Address) (*big.Int, error) {
	cfg, err := n.escrow(escrowID)
	if err != nil {
		return nil, err
	}
	var out *big.Int
	err = n.view(func(e engines, now uint64) error {
		var err error
		out, err = e.vesting(cfg).AvailableToDeliver(wallet, now)
		return err
	})
	return out, err
}
