// Package vesting implements escrow instances that release a fixed token
// balance to a roster of wallets over equal intervals. Whatever the named
// participants do not claim is released to a default recipient.
package vesting

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
	"tokensale/core/types"
	"tokensale/native/token"
)

// State is the subset of the state manager the ledger needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVGetList(key []byte, out interface{}) error
	AppendEvent(evt *types.Event)
}

// Engine operates one escrow.
type Engine struct {
	state State
	token token.Ledger
	guard *Guard
	cfg   Config
}

// NewEngine binds the escrow described by cfg to st. The guard may be shared
// between escrows; nil disables re-entry protection.
func NewEngine(st State, ledger token.Ledger, guard *Guard, cfg Config) *Engine {
	return &Engine{state: st, token: ledger, guard: guard, cfg: cfg}
}

// Config returns the escrow configuration.
func (e *Engine) Config() Config { return e.cfg }

// Activation returns the configured activation time, zero when unset.
func (e *Engine) Activation() (uint64, error) {
	var ts uint64
	if _, err := e.state.KVGet(activationKey(e.cfg.ID), &ts); err != nil {
		return 0, err
	}
	return ts, nil
}

// Activated reports whether releases have started at now.
func (e *Engine) Activated(now uint64) (bool, error) {
	ts, err := e.Activation()
	if err != nil {
		return false, err
	}
	return ts != 0 && now >= ts, nil
}

func (e *Engine) requireEditable(now uint64) error {
	if err := e.guard.check(); err != nil {
		return err
	}
	activated, err := e.Activated(now)
	if err != nil {
		return err
	}
	if activated {
		return ErrActivated
	}
	return nil
}

func (e *Engine) requireActivated(now uint64) error {
	activated, err := e.Activated(now)
	if err != nil {
		return err
	}
	if !activated {
		return ErrNotActivated
	}
	return nil
}

// SetActivation schedules the start of releases. It may be called again
// until the scheduled time arrives.
func (e *Engine) SetActivation(start, now uint64) error {
	if err := e.requireEditable(now); err != nil {
		return err
	}
	if start <= now {
		return ErrActivationNotFuture
	}
	if err := e.state.KVPut(activationKey(e.cfg.ID), start); err != nil {
		return err
	}
	e.state.AppendEvent(events.VestingActivationSet{Escrow: e.cfg.ID, Activation: start}.Event())
	return nil
}

// FollowSaleEnd moves the activation to end when the escrow is configured
// to track the sale and is still editable. It reports whether anything
// changed.
func (e *Engine) FollowSaleEnd(end, now uint64) (bool, error) {
	if !e.cfg.FollowSaleEnd {
		return false, nil
	}
	activated, err := e.Activated(now)
	if err != nil || activated {
		return false, err
	}
	if err := e.SetActivation(end, now); err != nil {
		return false, err
	}
	return true, nil
}

// Participants returns the roster in positional order. The default
// recipient always occupies the first slot. Positions change on removal.
func (e *Engine) Participants() ([]common.Address, error) {
	var roster []common.Address
	if err := e.state.KVGetList(rosterKey(e.cfg.ID), &roster); err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		roster = []common.Address{e.cfg.DefaultRecipient}
	}
	return roster, nil
}

func (e *Engine) index(wallet common.Address) (uint64, error) {
	if wallet == e.cfg.DefaultRecipient {
		return 1, nil
	}
	var idx uint64
	if _, err := e.state.KVGet(indexKey(e.cfg.ID, wallet), &idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// Participant returns the bookkeeping of wallet. Absent wallets report zero
// allotment and delivery.
func (e *Engine) Participant(wallet common.Address) (Participant, bool, error) {
	var p Participant
	ok, err := e.state.KVGet(participantKey(e.cfg.ID, wallet), &p)
	if err != nil {
		return Participant{}, false, err
	}
	idx, err := e.index(wallet)
	if err != nil {
		return Participant{}, false, err
	}
	out := Participant{Wallet: wallet, Allotment: big.NewInt(0), Delivered: big.NewInt(0)}
	if ok {
		out.Allotment = zeroIfNil(p.Allotment)
		out.Delivered = zeroIfNil(p.Delivered)
	}
	return out, idx != 0, nil
}

// Totals returns the escrow-wide sums.
func (e *Engine) Totals() (Totals, error) {
	var t Totals
	if _, err := e.state.KVGet(totalsKey(e.cfg.ID), &t); err != nil {
		return Totals{}, err
	}
	return Totals{Participants: zeroIfNil(t.Participants), Delivered: zeroIfNil(t.Delivered)}, nil
}

// AddParticipant assigns amount to wallet. Re-adding a wallet replaces its
// allotment and resets its delivered amount.
func (e *Engine) AddParticipant(wallet common.Address, amount *big.Int, now uint64) error {
	if err := e.requireEditable(now); err != nil {
		return err
	}
	if wallet == (common.Address{}) {
		return ErrZeroWallet
	}
	if wallet == e.cfg.DefaultRecipient {
		return ErrDefaultRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAllotment
	}
	current, present, err := e.Participant(wallet)
	if err != nil {
		return err
	}
	totals, err := e.Totals()
	if err != nil {
		return err
	}
	others := new(big.Int).Sub(totals.Participants, current.Allotment)
	balance, err := e.token.BalanceOf(e.cfg.Escrow)
	if err != nil {
		return err
	}
	if new(big.Int).Add(others, amount).Cmp(balance) > 0 {
		return ErrExceedsEscrow
	}
	if !present {
		roster, err := e.Participants()
		if err != nil {
			return err
		}
		if len(roster) >= MaxRoster {
			return ErrRosterFull
		}
		roster = append(roster, wallet)
		if err := e.state.KVPut(rosterKey(e.cfg.ID), roster); err != nil {
			return err
		}
		if err := e.state.KVPut(indexKey(e.cfg.ID, wallet), uint64(len(roster))); err != nil {
			return err
		}
	}
	record := Participant{Wallet: wallet, Allotment: new(big.Int).Set(amount), Delivered: big.NewInt(0)}
	if err := e.state.KVPut(participantKey(e.cfg.ID, wallet), record); err != nil {
		return err
	}
	totals.Participants = others.Add(others, amount)
	if err := e.state.KVPut(totalsKey(e.cfg.ID), totals); err != nil {
		return err
	}
	e.state.AppendEvent(events.VestingParticipantAdded{
		Escrow:    e.cfg.ID,
		Wallet:    wallet,
		Allotment: amount,
		Replaced:  present,
	}.Event())
	return nil
}

// RemoveParticipant drops wallet from the roster. The last roster entry
// takes the freed slot. Unknown wallets are ignored.
func (e *Engine) RemoveParticipant(wallet common.Address, now uint64) error {
	if err := e.requireEditable(now); err != nil {
		return err
	}
	if wallet == (common.Address{}) {
		return ErrZeroWallet
	}
	if wallet == e.cfg.DefaultRecipient {
		return ErrDefaultRecipient
	}
	idx, err := e.index(wallet)
	if err != nil || idx == 0 {
		return err
	}
	current, _, err := e.Participant(wallet)
	if err != nil {
		return err
	}
	roster, err := e.Participants()
	if err != nil {
		return err
	}
	last := len(roster) - 1
	slot := int(idx - 1)
	if slot != last {
		moved := roster[last]
		roster[slot] = moved
		if err := e.state.KVPut(indexKey(e.cfg.ID, moved), idx); err != nil {
			return err
		}
	}
	roster = roster[:last]
	if err := e.state.KVPut(rosterKey(e.cfg.ID), roster); err != nil {
		return err
	}
	if err := e.state.KVDelete(indexKey(e.cfg.ID, wallet)); err != nil {
		return err
	}
	if err := e.state.KVDelete(participantKey(e.cfg.ID, wallet)); err != nil {
		return err
	}
	totals, err := e.Totals()
	if err != nil {
		return err
	}
	totals.Participants.Sub(totals.Participants, current.Allotment)
	if err := e.state.KVPut(totalsKey(e.cfg.ID), totals); err != nil {
		return err
	}
	e.state.AppendEvent(events.VestingParticipantRemoved{Escrow: e.cfg.ID, Wallet: wallet, Allotment: current.Allotment}.Event())
	return nil
}

// base returns the amount wallet is entitled to once fully vested.
func (e *Engine) base(wallet common.Address) (*big.Int, error) {
	if wallet != e.cfg.DefaultRecipient {
		p, _, err := e.Participant(wallet)
		if err != nil {
			return nil, err
		}
		return p.Allotment, nil
	}
	balance, err := e.token.BalanceOf(e.cfg.Escrow)
	if err != nil {
		return nil, err
	}
	totals, err := e.Totals()
	if err != nil {
		return nil, err
	}
	remainder := new(big.Int).Add(balance, totals.Delivered)
	remainder.Sub(remainder, totals.Participants)
	if remainder.Sign() < 0 {
		remainder.SetInt64(0)
	}
	return remainder, nil
}

// ReleasedAmount returns how much of wallet's base has vested at now.
//
//	released = floor(base / totalIntervals) * effectiveIntervals
//
// and the whole base once effectiveIntervals reaches totalIntervals.
func (e *Engine) ReleasedAmount(wallet common.Address, now uint64) (*big.Int, error) {
	if err := e.requireActivated(now); err != nil {
		return nil, err
	}
	activation, err := e.Activation()
	if err != nil {
		return nil, err
	}
	base, err := e.base(wallet)
	if err != nil {
		return nil, err
	}
	return released(base, now-activation, e.cfg), nil
}

func released(base *big.Int, elapsed uint64, cfg Config) *big.Int {
	intervals := elapsed / cfg.IntervalSeconds
	if cfg.IncludeFirstInterval {
		intervals++
	}
	if intervals == 0 {
		return big.NewInt(0)
	}
	if intervals >= cfg.TotalIntervals {
		return new(big.Int).Set(base)
	}
	per := new(big.Int).Quo(base, new(big.Int).SetUint64(cfg.TotalIntervals))
	return per.Mul(per, new(big.Int).SetUint64(intervals))
}

// AvailableToDeliver returns the vested amount wallet has not received yet.
func (e *Engine) AvailableToDeliver(wallet common.Address, now uint64) (*big.Int, error) {
	rel, err := e.ReleasedAmount(wallet, now)
	if err != nil {
		return nil, err
	}
	p, _, err := e.Participant(wallet)
	if err != nil {
		return nil, err
	}
	avail := rel.Sub(rel, p.Delivered)
	if avail.Sign() < 0 {
		avail.SetInt64(0)
	}
	return avail, nil
}

// Deliver transfers every roster wallet its available amount, in roster
// order. Bookkeeping is written before each transfer and no vesting
// mutation may start until the loop completes.
func (e *Engine) Deliver(now uint64) ([]Delivery, error) {
	if err := e.requireActivated(now); err != nil {
		return nil, err
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	roster, err := e.Participants()
	if err != nil {
		return nil, err
	}
	var out []Delivery
	for _, wallet := range roster {
		avail, err := e.AvailableToDeliver(wallet, now)
		if err != nil {
			return nil, err
		}
		if avail.Sign() == 0 {
			continue
		}
		p, _, err := e.Participant(wallet)
		if err != nil {
			return nil, err
		}
		p.Delivered.Add(p.Delivered, avail)
		if err := e.state.KVPut(participantKey(e.cfg.ID, wallet), p); err != nil {
			return nil, err
		}
		totals, err := e.Totals()
		if err != nil {
			return nil, err
		}
		totals.Delivered.Add(totals.Delivered, avail)
		if err := e.state.KVPut(totalsKey(e.cfg.ID), totals); err != nil {
			return nil, err
		}
		if err := e.token.Transfer(e.cfg.Escrow, wallet, avail); err != nil {
			return nil, err
		}
		e.state.AppendEvent(events.VestingDelivered{
			Escrow:    e.cfg.ID,
			Wallet:    wallet,
			Amount:    avail,
			Delivered: p.Delivered,
		}.Event())
		out = append(out, Delivery{Wallet: wallet, Amount: new(big.Int).Set(avail)})
	}
	return out, nil
}
