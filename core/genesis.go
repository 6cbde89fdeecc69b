package core

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/config"
	errs "tokensale/core/errors"
	"tokensale/native/access"
	nativecommon "tokensale/native/common"
	"tokensale/native/referral"
	"tokensale/native/sale"
	"tokensale/native/vesting"
)

var ErrGenesisApplied = errs.New(errs.ErrState, "genesis: already applied")

var genesisKey = []byte("genesis/applied")

// Allocation is a genesis token balance.
type Allocation struct {
	Address common.Address
	Amount  *big.Int
}

// RoleGrant is a genesis role assignment.
type RoleGrant struct {
	Role    access.Role
	Account common.Address
}

// Genesis is the parsed initial state of a sale.
type Genesis struct {
	TokenSymbol string
	Allocations []Allocation
	Params      sale.Params
	Stages      []sale.Stage
	Bonuses     []sale.VolumeBonus
	Roles       []RoleGrant
	Links       []referral.Link
	Banners     []referral.Banner
	Escrows     []vesting.Config
	// Activations maps escrow ids to activation times scheduled at genesis.
	Activations map[string]uint64
	Paused      []string
}

// GenesisFromConfig converts a validated configuration into a Genesis.
func GenesisFromConfig(cfg *config.Config) (*Genesis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("genesis: config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Genesis{TokenSymbol: strings.ToUpper(strings.TrimSpace(cfg.Token.Symbol)), Activations: map[string]uint64{}}

	for _, h := range cfg.Token.Holders {
		g.Allocations = append(g.Allocations, Allocation{Address: mustAddress(h.Address), Amount: mustAmount(h.Amount)})
	}
	g.Params = sale.Params{
		Rate:             mustAmount(cfg.Sale.Rate),
		TokenPrice:       mustAmount(cfg.Sale.TokenPrice),
		HardCapUSD:       mustAmount(cfg.Sale.HardCapUSD),
		Decimals:         cfg.Token.Decimals,
		Inventory:        mustAddress(cfg.Sale.Inventory),
		Custody:          mustAddress(cfg.Sale.Custody),
		RequireWhitelist: cfg.Sale.RequireWhitelist,
	}
	for _, st := range cfg.Sale.Stages {
		g.Stages = append(g.Stages, sale.Stage{
			ID:            st.ID,
			Start:         st.Start,
			End:           st.End,
			MinInvestment: mustAmount(st.MinInvestment),
			SupplyCeiling: mustAmount(st.SupplyCeiling),
		})
	}
	for _, b := range cfg.Sale.Bonuses {
		g.Bonuses = append(g.Bonuses, sale.VolumeBonus{StageID: b.Stage, Threshold: mustAmount(b.Threshold), Bps: b.Bps})
	}
	grants := []struct {
		role     access.Role
		accounts []string
	}{
		{access.RoleOwner, cfg.Roles.Owners},
		{access.RoleOperator, cfg.Roles.Operators},
		{access.RoleWhitelisted, cfg.Roles.Whitelisted},
	}
	for _, grant := range grants {
		for _, raw := range grant.accounts {
			g.Roles = append(g.Roles, RoleGrant{Role: grant.role, Account: mustAddress(raw)})
		}
	}
	for _, l := range cfg.Referral.Links {
		g.Links = append(g.Links, referral.Link{Owner: mustAddress(l.Owner), InviteeBps: l.InviteeBps, OwnerBps: l.OwnerBps})
	}
	for _, b := range cfg.Referral.Banners {
		g.Banners = append(g.Banners, referral.Banner{ID: strings.TrimSpace(b.ID), InviteeBps: b.InviteeBps})
	}
	for _, e := range cfg.Escrows {
		id := strings.TrimSpace(e.ID)
		g.Escrows = append(g.Escrows, vesting.Config{
			ID:                   id,
			Escrow:               mustAddress(e.Wallet),
			DefaultRecipient:     mustAddress(e.DefaultRecipient),
			TotalIntervals:       e.TotalIntervals,
			IntervalSeconds:      e.IntervalSeconds,
			IncludeFirstInterval: e.IncludeFirstInterval,
			FollowSaleEnd:        e.FollowSaleEnd,
		})
		if e.Activation != 0 {
			g.Activations[id] = e.Activation
		}
	}
	if cfg.Pauses.Sale {
		g.Paused = append(g.Paused, nativecommon.ModuleSale)
	}
	if cfg.Pauses.Vesting {
		g.Paused = append(g.Paused, nativecommon.ModuleVesting)
	}
	if cfg.Pauses.Referral {
		g.Paused = append(g.Paused, nativecommon.ModuleReferral)
	}
	return g, nil
}

// mustAddress and mustAmount are only used on values Validate accepted.
func mustAddress(raw string) common.Address {
	addr, err := config.ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

func mustAmount(raw string) *big.Int {
	v, err := config.ParseAmount(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Initialized reports whether genesis has been applied to the node's state.
func (n *Node) Initialized() (bool, error) {
	var ok bool
	err := n.view(func(e engines, _ uint64) error {
		var err error
		ok, err = e.tx.KVGet(genesisKey, nil)
		return err
	})
	return ok, err
}

// ApplyGenesis writes the initial state in one transaction. It fails once
// genesis has been applied.
func (n *Node) ApplyGenesis(ctx context.Context, g *Genesis) error {
	if g == nil {
		return fmt.Errorf("genesis: nil genesis")
	}
	return n.execute(ctx, "genesis", common.Address{}, func(e engines, now uint64) error {
		applied, err := e.tx.KVGet(genesisKey, nil)
		if err != nil {
			return err
		}
		if applied {
			return ErrGenesisApplied
		}
		for _, alloc := range g.Allocations {
			if err := e.token.Mint(alloc.Address, alloc.Amount); err != nil {
				return fmt.Errorf("genesis: mint %s: %w", alloc.Address.Hex(), err)
			}
		}
		if err := e.sale.SetParams(g.Params); err != nil {
			return fmt.Errorf("genesis: sale params: %w", err)
		}
		if err := e.sale.SetSchedule(g.Stages, g.Bonuses); err != nil {
			return fmt.Errorf("genesis: sale schedule: %w", err)
		}
		for _, grant := range g.Roles {
			if err := e.access.Bootstrap(grant.Role, grant.Account); err != nil {
				return fmt.Errorf("genesis: role %s: %w", grant.Role, err)
			}
		}
		for _, link := range g.Links {
			if err := e.referral.SetLink(link.Owner, link.InviteeBps, link.OwnerBps); err != nil {
				return fmt.Errorf("genesis: referral link: %w", err)
			}
		}
		for _, banner := range g.Banners {
			if err := e.referral.SetBanner(banner.ID, banner.InviteeBps); err != nil {
				return fmt.Errorf("genesis: referral banner: %w", err)
			}
		}
		for _, cfg := range n.escrows {
			start, ok := g.Activations[cfg.ID]
			if !ok {
				continue
			}
			if err := e.vesting(cfg).SetActivation(start, now); err != nil {
				return fmt.Errorf("genesis: escrow %s: %w", cfg.ID, err)
			}
		}
		for _, module := range g.Paused {
			if err := e.pauses.SetPaused(common.Address{}, module, true); err != nil {
				return fmt.Errorf("genesis: pause %s: %w", module, err)
			}
		}
		return e.tx.KVPut(genesisKey, true)
	})
}
