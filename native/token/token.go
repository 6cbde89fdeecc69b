// Package token implements the reference fungible-token ledger the sale and
// vesting engines move balances through. Balances are persisted as 256-bit
// unsigned integers; any arithmetic that would leave that range is rejected.
package token

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/types"
)

var (
	ErrZeroAddress         = errs.New(errs.ErrValidation, "token: zero address")
	ErrNegativeAmount      = errs.New(errs.ErrValidation, "token: negative amount")
	ErrAmountOverflow      = errs.New(errs.ErrCapacity, "token: amount exceeds 256 bits")
	ErrInsufficientBalance = errs.New(errs.ErrCapacity, "token: insufficient balance")
)

var (
	balancePrefix = []byte("token/balance/")
	supplyKey     = []byte("token/supply")
)

// State is the subset of the state manager the ledger needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	AppendEvent(evt *types.Event)
}

// Ledger is the token surface consumed by the sale and vesting engines.
type Ledger interface {
	BalanceOf(addr common.Address) (*big.Int, error)
	Transfer(from, to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
	TotalSupply() (*big.Int, error)
}

// Engine is a state-backed Ledger.
type Engine struct {
	state  State
	symbol string
}

// NewEngine binds a ledger for symbol to the supplied state.
func NewEngine(st State, symbol string) *Engine {
	return &Engine{state: st, symbol: strings.ToUpper(strings.TrimSpace(symbol))}
}

// Symbol returns the canonical token symbol.
func (e *Engine) Symbol() string { return e.symbol }

func balanceKey(addr common.Address) []byte {
	buf := make([]byte, len(balancePrefix)+common.AddressLength)
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr[:])
	return buf
}

func toU256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil {
		return new(uint256.Int), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

func (e *Engine) load(key []byte) (*uint256.Int, error) {
	value := new(uint256.Int)
	ok, err := e.state.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return value, nil
}

// BalanceOf returns the balance held by addr.
func (e *Engine) BalanceOf(addr common.Address) (*big.Int, error) {
	bal, err := e.load(balanceKey(addr))
	if err != nil {
		return nil, err
	}
	return bal.ToBig(), nil
}

// TotalSupply returns the number of tokens in existence.
func (e *Engine) TotalSupply() (*big.Int, error) {
	supply, err := e.load(supplyKey)
	if err != nil {
		return nil, err
	}
	return supply.ToBig(), nil
}

// Transfer moves amount from one holder to another. Zero transfers succeed
// without touching state.
func (e *Engine) Transfer(from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return nil
	}
	fromBal, err := e.load(balanceKey(from))
	if err != nil {
		return err
	}
	if fromBal.Lt(amt) {
		return errs.Wrapf(ErrInsufficientBalance, "%s holds %s, needs %s", from.Hex(), fromBal.Dec(), amt.Dec())
	}
	fromBal = new(uint256.Int).Sub(fromBal, amt)
	if err := e.state.KVPut(balanceKey(from), fromBal); err != nil {
		return err
	}
	toBal, err := e.load(balanceKey(to))
	if err != nil {
		return err
	}
	toBal, overflow := new(uint256.Int).AddOverflow(toBal, amt)
	if overflow {
		return ErrAmountOverflow
	}
	if err := e.state.KVPut(balanceKey(to), toBal); err != nil {
		return err
	}
	e.state.AppendEvent(events.TokenTransfer{Token: e.symbol, From: from, To: to, Amount: amt.ToBig()}.Event())
	return nil
}

// Burn destroys amount from the holder's balance and the total supply.
func (e *Engine) Burn(from common.Address, amount *big.Int) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return nil
	}
	bal, err := e.load(balanceKey(from))
	if err != nil {
		return err
	}
	if bal.Lt(amt) {
		return ErrInsufficientBalance
	}
	supply, err := e.load(supplyKey)
	if err != nil {
		return err
	}
	if err := e.state.KVPut(balanceKey(from), new(uint256.Int).Sub(bal, amt)); err != nil {
		return err
	}
	supply = new(uint256.Int).Sub(supply, amt)
	if err := e.state.KVPut(supplyKey, supply); err != nil {
		return err
	}
	e.state.AppendEvent(events.TokenSupply{Token: e.symbol, Account: from, Delta: amt.ToBig(), Total: supply.ToBig(), Burn: true}.Event())
	return nil
}

// Mint creates amount new tokens for to. It is used only while applying
// genesis.
func (e *Engine) Mint(to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	amt, err := toU256(amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return nil
	}
	supply, err := e.load(supplyKey)
	if err != nil {
		return err
	}
	supply, overflow := new(uint256.Int).AddOverflow(supply, amt)
	if overflow {
		return ErrAmountOverflow
	}
	bal, err := e.load(balanceKey(to))
	if err != nil {
		return err
	}
	if err := e.state.KVPut(balanceKey(to), new(uint256.Int).Add(bal, amt)); err != nil {
		return err
	}
	if err := e.state.KVPut(supplyKey, supply); err != nil {
		return err
	}
	e.state.AppendEvent(events.TokenSupply{Token: e.symbol, Account: to, Delta: amt.ToBig(), Total: supply.ToBig()}.Event())
	return nil
}
