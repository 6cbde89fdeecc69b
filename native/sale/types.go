package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// BasisPointsDenominator is the scale of every percentage in the sale.
	BasisPointsDenominator = 10_000
	// DefaultDecimals is the fixed-point precision of the sale token.
	DefaultDecimals = 18
)

// UnitScale is the fixed-point scale of USD values, prices and rates.
var UnitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Stage is a sale window. Start is inclusive, End is exclusive.
type Stage struct {
	ID            uint64
	Start         uint64
	End           uint64
	MinInvestment *big.Int
	SupplyCeiling *big.Int
}

// Contains reports whether now falls inside the stage window.
func (s Stage) Contains(now uint64) bool {
	return now >= s.Start && now < s.End
}

// Clone returns a deep copy of the stage.
func (s Stage) Clone() Stage {
	clone := s
	clone.MinInvestment = cloneBig(s.MinInvestment)
	clone.SupplyCeiling = cloneBig(s.SupplyCeiling)
	return clone
}

// VolumeBonus is a threshold keyed bonus percentage for one stage.
type VolumeBonus struct {
	StageID   uint64
	Threshold *big.Int
	Bps       uint32
}

// Params holds the sale-wide configuration.
type Params struct {
	// Rate converts the raw purchase value into USD: valueUSD = value * Rate / 1e18.
	Rate *big.Int
	// TokenPrice is the USD price of one whole token, 18-decimal fixed point.
	TokenPrice *big.Int
	// HardCapUSD bounds the cumulative USD raised.
	HardCapUSD *big.Int
	Decimals   uint8
	// Inventory holds the tokens the sale hands out.
	Inventory common.Address
	// Custody receives the raw purchase value.
	Custody          common.Address
	RequireWhitelist bool
}

// Clone returns a deep copy of the parameters.
func (p Params) Clone() Params {
	clone := p
	clone.Rate = cloneBig(p.Rate)
	clone.TokenPrice = cloneBig(p.TokenPrice)
	clone.HardCapUSD = cloneBig(p.HardCapUSD)
	return clone
}

// Counters are the global sale totals. Both only grow.
type Counters struct {
	FundsRaisedUSD *big.Int
	TokensSold     *big.Int
}

// Investor tracks the tokens credited to one address.
type Investor struct {
	Address  common.Address
	Received *big.Int
}

// Allocation is the outcome of sizing an investment against the active stage.
type Allocation struct {
	Stage    Stage
	Tokens   *big.Int
	Bonus    *big.Int
	BonusBps uint32
}

// Total returns tokens plus bonus.
func (a Allocation) Total() *big.Int {
	return new(big.Int).Add(cloneBig(a.Tokens), cloneBig(a.Bonus))
}

// PurchaseRequest describes an incoming value-bearing purchase.
type PurchaseRequest struct {
	Buyer       common.Address
	Beneficiary common.Address
	Value       *big.Int
	Channel     string
}

// Receipt summarises a committed purchase.
type Receipt struct {
	Allocation
	ValueUSD     *big.Int
	Referrer     common.Address
	OwnerBonus   *big.Int
	InviteeBonus *big.Int
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
