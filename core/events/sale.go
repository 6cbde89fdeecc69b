package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	// TypeSalePurchase is emitted for every committed purchase.
	TypeSalePurchase = "sale.purchase"
	// TypeSaleReferralBonus is emitted when a referral bonus is credited as
	// part of a purchase.
	TypeSaleReferralBonus = "sale.referral.bonus"
	// TypeSaleDistribution is emitted for privileged manual credits.
	TypeSaleDistribution = "sale.distribution"
	// TypeSaleRateUpdated is emitted when the value to USD rate changes.
	TypeSaleRateUpdated = "sale.rate.updated"
	// TypeSaleStageConfigured is emitted when the final stage is rescheduled.
	TypeSaleStageConfigured = "sale.stage.configured"
	// TypeSaleUnsoldBurned is emitted when the remaining inventory is burned
	// after the sale closes.
	TypeSaleUnsoldBurned = "sale.unsold.burned"

	// ReferralRoleOwner marks a bonus paid to the owner of a referral link.
	ReferralRoleOwner = "owner"
	// ReferralRoleInvitee marks a bonus paid to the referred buyer.
	ReferralRoleInvitee = "invitee"
)

// SalePurchase captures the sizing of a committed purchase.
type SalePurchase struct {
	Buyer       common.Address
	Beneficiary common.Address
	Value       *big.Int
	ValueUSD    *big.Int
	Tokens      *big.Int
	Bonus       *big.Int
	StageID     uint64
	Channel     string
}

func (SalePurchase) EventType() string { return TypeSalePurchase }

// Event renders the purchase audit record.
func (e SalePurchase) Event() *types.Event {
	attrs := map[string]string{
		"buyer":       formatAddress(e.Buyer),
		"beneficiary": formatAddress(e.Beneficiary),
		"value":       formatAmount(e.Value),
		"valueUsd":    formatAmount(e.ValueUSD),
		"tokens":      formatAmount(e.Tokens),
		"bonus":       formatAmount(e.Bonus),
		"stage":       formatUint(e.StageID),
	}
	if channel := strings.TrimSpace(e.Channel); channel != "" {
		attrs["channel"] = channel
	}
	return &types.Event{Type: TypeSalePurchase, Attributes: attrs}
}

// SaleReferralBonus captures a secondary bonus credited during a purchase.
type SaleReferralBonus struct {
	Buyer     common.Address
	Recipient common.Address
	Role      string
	Source    string
	Amount    *big.Int
}

func (SaleReferralBonus) EventType() string { return TypeSaleReferralBonus }

// Event renders the referral bonus audit record.
func (e SaleReferralBonus) Event() *types.Event {
	attrs := map[string]string{
		"buyer":     formatAddress(e.Buyer),
		"recipient": formatAddress(e.Recipient),
		"role":      e.Role,
		"amount":    formatAmount(e.Amount),
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	return &types.Event{Type: TypeSaleReferralBonus, Attributes: attrs}
}

// SaleDistribution captures a manual credit that bypassed pricing.
type SaleDistribution struct {
	Operator    common.Address
	Beneficiary common.Address
	Amount      *big.Int
}

func (SaleDistribution) EventType() string { return TypeSaleDistribution }

// Event renders the manual distribution audit record.
func (e SaleDistribution) Event() *types.Event {
	return &types.Event{Type: TypeSaleDistribution, Attributes: map[string]string{
		"operator":    formatAddress(e.Operator),
		"beneficiary": formatAddress(e.Beneficiary),
		"amount":      formatAmount(e.Amount),
	}}
}

// SaleRateUpdated captures a rate change.
type SaleRateUpdated struct {
	Caller common.Address
	Old    *big.Int
	New    *big.Int
}

func (SaleRateUpdated) EventType() string { return TypeSaleRateUpdated }

// Event renders the rate update audit record.
func (e SaleRateUpdated) Event() *types.Event {
	return &types.Event{Type: TypeSaleRateUpdated, Attributes: map[string]string{
		"caller": formatAddress(e.Caller),
		"old":    formatAmount(e.Old),
		"new":    formatAmount(e.New),
	}}
}

// SaleStageConfigured captures a final stage reschedule.
type SaleStageConfigured struct {
	Caller    common.Address
	StageID   uint64
	Start     uint64
	End       uint64
	Bootstrap bool
}

func (SaleStageConfigured) EventType() string { return TypeSaleStageConfigured }

// Event renders the stage reschedule audit record.
func (e SaleStageConfigured) Event() *types.Event {
	attrs := map[string]string{
		"caller": formatAddress(e.Caller),
		"stage":  formatUint(e.StageID),
		"start":  formatUint(e.Start),
		"end":    formatUint(e.End),
	}
	if e.Bootstrap {
		attrs["bootstrap"] = "true"
	}
	return &types.Event{Type: TypeSaleStageConfigured, Attributes: attrs}
}

// SaleUnsoldBurned captures the burn of remaining inventory.
type SaleUnsoldBurned struct {
	Caller    common.Address
	Inventory common.Address
	Amount    *big.Int
}

func (SaleUnsoldBurned) EventType() string { return TypeSaleUnsoldBurned }

// Event renders the burn audit record.
func (e SaleUnsoldBurned) Event() *types.Event {
	return &types.Event{Type: TypeSaleUnsoldBurned, Attributes: map[string]string{
		"caller":    formatAddress(e.Caller),
		"inventory": formatAddress(e.Inventory),
		"amount":    formatAmount(e.Amount),
	}}
}
