package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MaxBps is the largest accepted percentage in basis points.
const MaxBps = 10_000

// ParseAmount parses a non-negative base-10 integer. The shorthand "<n>e<k>"
// expands to n*10^k so configs can write 300e18.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	mantissa, exp, hasExp := strings.Cut(strings.ToLower(trimmed), "e")
	value, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if hasExp {
		k, ok := new(big.Int).SetString(exp, 10)
		if !ok || k.Sign() < 0 || k.Cmp(big.NewInt(77)) > 0 {
			return nil, fmt.Errorf("invalid exponent in %q", raw)
		}
		value.Mul(value, new(big.Int).Exp(big.NewInt(10), k, nil))
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}

// ParseAddress parses a non-zero 0x-prefixed hex address.
func ParseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("zero address not allowed")
	}
	return addr, nil
}

func positive(field, raw string) error {
	v, err := ParseAmount(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if v.Sign() == 0 {
		return fmt.Errorf("%s: must be positive", field)
	}
	return nil
}

func address(field, raw string) error {
	if _, err := ParseAddress(raw); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// Validate checks every field that genesis or the node relies on.
func (c *Config) Validate() error {
	if c.Token.Decimals > 36 {
		return fmt.Errorf("token: decimals %d out of range", c.Token.Decimals)
	}
	for i, h := range c.Token.Holders {
		if err := address(fmt.Sprintf("token.holders[%d].address", i), h.Address); err != nil {
			return err
		}
		if err := positive(fmt.Sprintf("token.holders[%d].amount", i), h.Amount); err != nil {
			return err
		}
	}
	if err := c.validateSale(); err != nil {
		return err
	}
	groups := map[string][]string{"owners": c.Roles.Owners, "operators": c.Roles.Operators, "whitelisted": c.Roles.Whitelisted}
	for name, accounts := range groups {
		for i, raw := range accounts {
			if err := address(fmt.Sprintf("roles.%s[%d]", name, i), raw); err != nil {
				return err
			}
		}
	}
	if len(c.Roles.Owners) == 0 {
		return fmt.Errorf("roles: at least one owner required")
	}
	for i, l := range c.Referral.Links {
		if err := address(fmt.Sprintf("referral.links[%d].owner", i), l.Owner); err != nil {
			return err
		}
		if l.InviteeBps > MaxBps || l.OwnerBps > MaxBps {
			return fmt.Errorf("referral.links[%d]: bps above %d", i, MaxBps)
		}
	}
	for i, b := range c.Referral.Banners {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("referral.banners[%d]: id required", i)
		}
		if b.InviteeBps > MaxBps {
			return fmt.Errorf("referral.banners[%d]: bps above %d", i, MaxBps)
		}
	}
	return c.validateEscrows()
}

func (c *Config) validateSale() error {
	s := c.Sale
	for field, raw := range map[string]string{"sale.rate": s.Rate, "sale.token_price": s.TokenPrice, "sale.hard_cap_usd": s.HardCapUSD} {
		if err := positive(field, raw); err != nil {
			return err
		}
	}
	if err := address("sale.inventory", s.Inventory); err != nil {
		return err
	}
	if err := address("sale.custody", s.Custody); err != nil {
		return err
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("sale: at least one stage required")
	}
	ids := make(map[uint64]struct{}, len(s.Stages))
	for i, st := range s.Stages {
		if st.End <= st.Start {
			return fmt.Errorf("sale.stages[%d]: end must be after start", i)
		}
		if _, dup := ids[st.ID]; dup {
			return fmt.Errorf("sale.stages[%d]: duplicate id %d", i, st.ID)
		}
		ids[st.ID] = struct{}{}
		if _, err := ParseAmount(st.MinInvestment); err != nil {
			return fmt.Errorf("sale.stages[%d].min_investment: %w", i, err)
		}
		if err := positive(fmt.Sprintf("sale.stages[%d].supply_ceiling", i), st.SupplyCeiling); err != nil {
			return err
		}
	}
	for i, b := range s.Bonuses {
		if _, ok := ids[b.Stage]; !ok {
			return fmt.Errorf("sale.bonuses[%d]: unknown stage %d", i, b.Stage)
		}
		if b.Bps > MaxBps {
			return fmt.Errorf("sale.bonuses[%d]: bps above %d", i, MaxBps)
		}
		if _, err := ParseAmount(b.Threshold); err != nil {
			return fmt.Errorf("sale.bonuses[%d].threshold: %w", i, err)
		}
	}
	return nil
}

func (c *Config) validateEscrows() error {
	seen := make(map[string]struct{}, len(c.Escrows))
	for i, e := range c.Escrows {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("escrows[%d]: id required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("escrows[%d]: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		if err := address(fmt.Sprintf("escrows[%d].wallet", i), e.Wallet); err != nil {
			return err
		}
		if err := address(fmt.Sprintf("escrows[%d].default_recipient", i), e.DefaultRecipient); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(e.Wallet), strings.TrimSpace(e.DefaultRecipient)) {
			return fmt.Errorf("escrows[%d]: default recipient must differ from the escrow wallet", i)
		}
		if e.TotalIntervals == 0 || e.IntervalSeconds == 0 {
			return fmt.Errorf("escrows[%d]: intervals must be positive", i)
		}
	}
	return nil
}
