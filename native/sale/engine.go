package sale

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
	"tokensale/core/types"
	"tokensale/native/referral"
	"tokensale/native/token"
)

// State is the subset of the state manager the sale needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVGetList(key []byte, out interface{}) error
	KVAppend(key []byte, value []byte) error
	AppendEvent(evt *types.Event)
}

// Referrals sizes secondary bonuses for a buyer.
type Referrals interface {
	ResolveBonuses(buyer common.Address, purchased *big.Int) (referral.Attribution, error)
}

// Engine is the purchase orchestrator. It sizes purchases against the stage
// and bonus tables, enforces the caps, moves tokens out of the inventory
// wallet and keeps the global counters and investor records.
type Engine struct {
	state     State
	token     token.Ledger
	custody   Custody
	referrals Referrals
}

// NewEngine wires the sale to its collaborators. A nil custody defaults to a
// Vault for the configured custody wallet.
func NewEngine(st State, ledger token.Ledger, custody Custody, referrals Referrals) *Engine {
	return &Engine{state: st, token: ledger, custody: custody, referrals: referrals}
}

// Params returns the sale parameters.
func (e *Engine) Params() (Params, error) {
	var params Params
	ok, err := e.state.KVGet(paramsKey, &params)
	if err != nil {
		return Params{}, err
	}
	if !ok {
		return Params{}, ErrNotConfigured
	}
	if params.Decimals == 0 {
		params.Decimals = DefaultDecimals
	}
	return params.Clone(), nil
}

// SetParams stores the sale parameters. It is used while applying genesis.
func (e *Engine) SetParams(params Params) error {
	if params.Rate == nil || params.Rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	if params.TokenPrice == nil || params.TokenPrice.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if params.HardCapUSD == nil || params.HardCapUSD.Sign() <= 0 {
		return fmt.Errorf("%w: hard cap must be positive", ErrInvalidStages)
	}
	if params.Inventory == (common.Address{}) || params.Custody == (common.Address{}) {
		return ErrZeroBeneficiary
	}
	return e.state.KVPut(paramsKey, params.Clone())
}

// Stages returns the stage table in configured order.
func (e *Engine) Stages() ([]Stage, error) {
	var stages []Stage
	if err := e.state.KVGetList(stagesKey, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// Bonuses returns the volume bonus table in configured order.
func (e *Engine) Bonuses() ([]VolumeBonus, error) {
	var bonuses []VolumeBonus
	if err := e.state.KVGetList(bonusesKey, &bonuses); err != nil {
		return nil, err
	}
	return bonuses, nil
}

// SetSchedule stores the stage and bonus tables. It is used while applying
// genesis.
func (e *Engine) SetSchedule(stages []Stage, bonuses []VolumeBonus) error {
	if err := ValidateStages(stages); err != nil {
		return err
	}
	if err := ValidateBonuses(stages, bonuses); err != nil {
		return err
	}
	if err := e.state.KVPut(stagesKey, stages); err != nil {
		return err
	}
	if bonuses == nil {
		bonuses = []VolumeBonus{}
	}
	return e.state.KVPut(bonusesKey, bonuses)
}

// Counters returns the global sale totals.
func (e *Engine) Counters() (Counters, error) {
	var counters Counters
	ok, err := e.state.KVGet(countersKey, &counters)
	if err != nil {
		return Counters{}, err
	}
	if !ok {
		return Counters{FundsRaisedUSD: big.NewInt(0), TokensSold: big.NewInt(0)}, nil
	}
	counters.FundsRaisedUSD = cloneBig(counters.FundsRaisedUSD)
	counters.TokensSold = cloneBig(counters.TokensSold)
	return counters, nil
}

func (e *Engine) putCounters(c Counters) error {
	return e.state.KVPut(countersKey, c)
}

// Investor returns the record of addr.
func (e *Engine) Investor(addr common.Address) (Investor, bool, error) {
	var inv Investor
	ok, err := e.state.KVGet(investorKey(addr), &inv)
	if err != nil || !ok {
		return Investor{Address: addr, Received: big.NewInt(0)}, false, err
	}
	inv.Received = cloneBig(inv.Received)
	return inv, true, nil
}

// Investors returns every investor address in first-credit order.
func (e *Engine) Investors() ([]common.Address, error) {
	var list []common.Address
	if err := e.state.KVGetList(investorListKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (e *Engine) creditInvestor(addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	inv, ok, err := e.Investor(addr)
	if err != nil {
		return err
	}
	if !ok {
		if err := e.state.KVAppend(investorListKey, addr.Bytes()); err != nil {
			return err
		}
	}
	inv.Address = addr
	inv.Received = new(big.Int).Add(inv.Received, amount)
	return e.state.KVPut(investorKey(addr), inv)
}

// deliverTokens moves amount out of the inventory wallet and records it on
// the recipient's investor record.
func (e *Engine) deliverTokens(params Params, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := e.token.Transfer(params.Inventory, to, amount); err != nil {
		return err
	}
	return e.creditInvestor(to, amount)
}

// IsOpen reports whether purchases may be sized at now.
func (e *Engine) IsOpen(now uint64) (bool, error) {
	stages, err := e.Stages()
	if err != nil {
		return false, err
	}
	return IsOpen(stages, now), nil
}

// ValueToUSD converts a raw purchase value with the configured rate.
func ValueToUSD(value, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(cloneBig(value), cloneBig(rate))
	return out.Quo(out, UnitScale)
}

// ComputeAllocation sizes investmentUSD at now against the stored tables and
// the current tokens sold.
func (e *Engine) ComputeAllocation(now uint64, investmentUSD *big.Int) (Allocation, error) {
	params, err := e.Params()
	if err != nil {
		return Allocation{}, err
	}
	stages, err := e.Stages()
	if err != nil {
		return Allocation{}, err
	}
	bonuses, err := e.Bonuses()
	if err != nil {
		return Allocation{}, err
	}
	counters, err := e.Counters()
	if err != nil {
		return Allocation{}, err
	}
	return ComputeAllocation(stages, bonuses, now, investmentUSD, params.TokenPrice, counters.TokensSold, params.Decimals)
}

// Purchase sizes and settles a purchase. The caller is responsible for
// running it inside a single state transaction; on error nothing it wrote
// may be kept.
func (e *Engine) Purchase(req PurchaseRequest, now uint64) (Receipt, error) {
	if req.Beneficiary == (common.Address{}) {
		return Receipt{}, ErrZeroBeneficiary
	}
	if req.Value == nil || req.Value.Sign() <= 0 {
		return Receipt{}, ErrZeroValue
	}
	params, err := e.Params()
	if err != nil {
		return Receipt{}, err
	}
	stages, err := e.Stages()
	if err != nil {
		return Receipt{}, err
	}
	if !IsOpen(stages, now) {
		return Receipt{}, ErrSaleClosed
	}
	counters, err := e.Counters()
	if err != nil {
		return Receipt{}, err
	}

	valueUSD := ValueToUSD(req.Value, params.Rate)
	raised := new(big.Int).Add(counters.FundsRaisedUSD, valueUSD)
	if raised.Cmp(params.HardCapUSD) > 0 {
		return Receipt{}, ErrHardCapReached
	}

	bonuses, err := e.Bonuses()
	if err != nil {
		return Receipt{}, err
	}
	alloc, err := ComputeAllocation(stages, bonuses, now, valueUSD, params.TokenPrice, counters.TokensSold, params.Decimals)
	if err != nil {
		return Receipt{}, err
	}

	total := alloc.Total()
	if err := e.deliverTokens(params, req.Beneficiary, total); err != nil {
		return Receipt{}, err
	}
	counters.FundsRaisedUSD = raised
	counters.TokensSold = new(big.Int).Add(counters.TokensSold, total)
	if err := e.putCounters(counters); err != nil {
		return Receipt{}, err
	}

	custody := e.custody
	if custody == nil {
		custody = NewVault(e.state, params.Custody)
	}
	if err := custody.Forward(req.Buyer, req.Value); err != nil {
		return Receipt{}, fmt.Errorf("sale: forward funds: %w", err)
	}
	e.state.AppendEvent(events.SalePurchase{
		Buyer:       req.Buyer,
		Beneficiary: req.Beneficiary,
		Value:       req.Value,
		ValueUSD:    valueUSD,
		Tokens:      alloc.Tokens,
		Bonus:       alloc.Bonus,
		StageID:     alloc.Stage.ID,
		Channel:     req.Channel,
	}.Event())

	receipt := Receipt{Allocation: alloc, ValueUSD: valueUSD, OwnerBonus: big.NewInt(0), InviteeBonus: big.NewInt(0)}
	if e.referrals == nil {
		return receipt, nil
	}
	attr, err := e.referrals.ResolveBonuses(req.Beneficiary, alloc.Tokens)
	if err != nil {
		return Receipt{}, err
	}
	if attr.HasReferrer && attr.OwnerBonus.Sign() > 0 {
		if err := e.deliverTokens(params, attr.Referrer, attr.OwnerBonus); err != nil {
			return Receipt{}, err
		}
		e.state.AppendEvent(events.SaleReferralBonus{
			Buyer:     req.Beneficiary,
			Recipient: attr.Referrer,
			Role:      events.ReferralRoleOwner,
			Source:    attr.Source,
			Amount:    attr.OwnerBonus,
		}.Event())
		receipt.Referrer = attr.Referrer
		receipt.OwnerBonus = cloneBig(attr.OwnerBonus)
	}
	if attr.HasInvitee && attr.InviteeBonus.Sign() > 0 {
		if err := e.deliverTokens(params, attr.Invitee, attr.InviteeBonus); err != nil {
			return Receipt{}, err
		}
		e.state.AppendEvent(events.SaleReferralBonus{
			Buyer:     req.Beneficiary,
			Recipient: attr.Invitee,
			Role:      events.ReferralRoleInvitee,
			Source:    attr.Source,
			Amount:    attr.InviteeBonus,
		}.Event())
		receipt.InviteeBonus = cloneBig(attr.InviteeBonus)
	}
	return receipt, nil
}

// DistributeManual credits beneficiary with amount tokens without pricing.
// The amount counts toward tokens sold but not toward funds raised.
func (e *Engine) DistributeManual(operator, beneficiary common.Address, amount *big.Int) error {
	if beneficiary == (common.Address{}) {
		return ErrZeroBeneficiary
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroValue
	}
	params, err := e.Params()
	if err != nil {
		return err
	}
	counters, err := e.Counters()
	if err != nil {
		return err
	}
	if err := e.deliverTokens(params, beneficiary, amount); err != nil {
		return err
	}
	counters.TokensSold = new(big.Int).Add(counters.TokensSold, amount)
	if err := e.putCounters(counters); err != nil {
		return err
	}
	e.state.AppendEvent(events.SaleDistribution{Operator: operator, Beneficiary: beneficiary, Amount: amount}.Event())
	return nil
}

// SetRate replaces the value to USD conversion rate.
func (e *Engine) SetRate(caller common.Address, rate *big.Int) error {
	if rate == nil || rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	params, err := e.Params()
	if err != nil {
		return err
	}
	old := params.Rate
	params.Rate = new(big.Int).Set(rate)
	if err := e.state.KVPut(paramsKey, params); err != nil {
		return err
	}
	e.state.AppendEvent(events.SaleRateUpdated{Caller: caller, Old: old, New: rate}.Event())
	return nil
}

// ConfigureStage reschedules the final stage and returns its new end time.
func (e *Engine) ConfigureStage(caller common.Address, now, start, length uint64) (uint64, error) {
	stages, err := e.Stages()
	if err != nil {
		return 0, err
	}
	var bootstrapped bool
	if _, err := e.state.KVGet(bootstrappedKey, &bootstrapped); err != nil {
		return 0, err
	}
	updated, end, err := ConfigureFinalStage(stages, bootstrapped, now, start, length)
	if err != nil {
		return 0, err
	}
	if err := e.state.KVPut(stagesKey, updated); err != nil {
		return 0, err
	}
	if !bootstrapped {
		if err := e.state.KVPut(bootstrappedKey, true); err != nil {
			return 0, err
		}
	}
	final := updated[len(updated)-1]
	e.state.AppendEvent(events.SaleStageConfigured{
		Caller:    caller,
		StageID:   final.ID,
		Start:     final.Start,
		End:       final.End,
		Bootstrap: !bootstrapped,
	}.Event())
	return end, nil
}

// BurnUnsold destroys whatever remains in the inventory wallet once the
// final stage has ended.
func (e *Engine) BurnUnsold(caller common.Address, now uint64) (*big.Int, error) {
	params, err := e.Params()
	if err != nil {
		return nil, err
	}
	stages, err := e.Stages()
	if err != nil {
		return nil, err
	}
	if !HasClosed(stages, now) {
		return nil, ErrSaleNotClosed
	}
	remaining, err := e.token.BalanceOf(params.Inventory)
	if err != nil {
		return nil, err
	}
	if remaining.Sign() == 0 {
		return nil, ErrNothingToBurn
	}
	if err := e.token.Burn(params.Inventory, remaining); err != nil {
		return nil, err
	}
	e.state.AppendEvent(events.SaleUnsoldBurned{Caller: caller, Inventory: params.Inventory, Amount: remaining}.Event())
	return remaining, nil
}
