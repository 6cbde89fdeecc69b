package referral

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/state"
	"tokensale/storage"
)

var (
	owner   = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	buyer   = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	another = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

func newTestManager(t *testing.T) (*state.Manager, *events.Recorder) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	rec := events.NewRecorder()
	mgr.SetEmitter(rec)
	return mgr, rec
}

func update(t *testing.T, mgr *state.Manager, fn func(e *Engine) error) error {
	t.Helper()
	return mgr.Update(func(tx *state.Tx) error { return fn(NewEngine(tx)) })
}

func resolve(t *testing.T, mgr *state.Manager, addr common.Address, purchased int64) Attribution {
	t.Helper()
	var out Attribution
	err := mgr.View(func(tx *state.Tx) error {
		var err error
		out, err = NewEngine(tx).ResolveBonuses(addr, big.NewInt(purchased))
		return err
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return out
}

func TestBannerInviteRewardsBuyerOnly(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := update(t, mgr, func(e *Engine) error {
		if err := e.SetBanner("spring", 500); err != nil {
			return err
		}
		return e.AddBannerInvite("spring", buyer)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	attr := resolve(t, mgr, buyer, 1000)
	if attr.Source != SourceBanner {
		t.Fatalf("unexpected source %q", attr.Source)
	}
	if attr.InviteeBonus.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected 50 invitee bonus, got %s", attr.InviteeBonus)
	}
	if attr.Invitee != buyer || !attr.HasInvitee {
		t.Fatalf("invitee bonus must be credited to the buyer")
	}
	if attr.HasReferrer || attr.Referrer != (common.Address{}) || attr.OwnerBonus.Sign() != 0 {
		t.Fatalf("banner must not populate link fields: %+v", attr)
	}
}

func TestLinkInviteRewardsOwnerAndBuyer(t *testing.T) {
	mgr, rec := newTestManager(t)
	err := update(t, mgr, func(e *Engine) error {
		if err := e.SetLink(owner, 300, 700); err != nil {
			return err
		}
		return e.AddLinkInvite(owner, buyer)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	attr := resolve(t, mgr, buyer, 10_000)
	if attr.Source != SourceLink || attr.Referrer != owner {
		t.Fatalf("unexpected attribution %+v", attr)
	}
	if attr.OwnerBonus.Cmp(big.NewInt(700)) != 0 || attr.InviteeBonus.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected bonuses owner=%s invitee=%s", attr.OwnerBonus, attr.InviteeBonus)
	}

	// Percentages are read at resolution time, not snapshotted per invite.
	if err := update(t, mgr, func(e *Engine) error { return e.SetLink(owner, 0, 1000) }); err != nil {
		t.Fatalf("update link: %v", err)
	}
	attr = resolve(t, mgr, buyer, 10_000)
	if attr.OwnerBonus.Cmp(big.NewInt(1000)) != 0 || attr.InviteeBonus.Sign() != 0 {
		t.Fatalf("expected updated percentages, got owner=%s invitee=%s", attr.OwnerBonus, attr.InviteeBonus)
	}

	want := []string{events.TypeReferralLinkSet, events.TypeReferralLinkInvite, events.TypeReferralLinkSet}
	got := rec.Types()
	if len(got) != len(want) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestFirstBindingWins(t *testing.T) {
	mgr, rec := newTestManager(t)
	second := common.HexToAddress("0x0000000000000000000000000000000000000a02")
	err := update(t, mgr, func(e *Engine) error {
		if err := e.SetLink(owner, 100, 100); err != nil {
			return err
		}
		if err := e.SetLink(second, 100, 900); err != nil {
			return err
		}
		if err := e.AddLinkInvite(owner, buyer); err != nil {
			return err
		}
		return e.AddLinkInvite(second, buyer)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	attr := resolve(t, mgr, buyer, 1000)
	if attr.Referrer != owner {
		t.Fatalf("rebinding must not replace the first link, got %s", attr.Referrer.Hex())
	}
	invites := 0
	for _, typ := range rec.Types() {
		if typ == events.TypeReferralLinkInvite {
			invites++
		}
	}
	if invites != 1 {
		t.Fatalf("ignored rebinding must not emit, got %d invite events", invites)
	}
}

func TestLinkTakesPriorityOverBanner(t *testing.T) {
	mgr, _ := newTestManager(t)
	err := update(t, mgr, func(e *Engine) error {
		if err := e.SetBanner("b", 2000); err != nil {
			return err
		}
		if err := e.SetLink(owner, 100, 200); err != nil {
			return err
		}
		if err := e.AddBannerInvite("b", buyer); err != nil {
			return err
		}
		return e.AddLinkInvite(owner, buyer)
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	attr := resolve(t, mgr, buyer, 1000)
	if attr.Source != SourceLink || attr.InviteeBonus.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("link should win over banner: %+v", attr)
	}
	_ = mgr.View(func(tx *state.Tx) error {
		invite, err := NewEngine(tx).InviteOf(buyer)
		if err != nil {
			t.Fatalf("invite: %v", err)
		}
		if !invite.HasLink || !invite.HasBanner {
			t.Fatalf("both bindings should be recorded: %+v", invite)
		}
		return nil
	})
}

func TestNoInviteYieldsZero(t *testing.T) {
	mgr, _ := newTestManager(t)
	attr := resolve(t, mgr, another, 1000)
	if attr.Source != SourceNone || attr.OwnerBonus.Sign() != 0 || attr.InviteeBonus.Sign() != 0 {
		t.Fatalf("expected empty attribution, got %+v", attr)
	}
}

func TestValidation(t *testing.T) {
	mgr, rec := newTestManager(t)
	cases := []struct {
		name string
		fn   func(e *Engine) error
		want error
	}{
		{"zero owner", func(e *Engine) error { return e.SetLink(common.Address{}, 1, 1) }, ErrZeroAddress},
		{"bps too high", func(e *Engine) error { return e.SetLink(owner, 10_001, 1) }, ErrInvalidBps},
		{"empty banner", func(e *Engine) error { return e.SetBanner("  ", 1) }, ErrEmptyBannerID},
		{"unknown link", func(e *Engine) error { return e.AddLinkInvite(owner, buyer) }, ErrUnknownLink},
		{"unknown banner", func(e *Engine) error { return e.AddBannerInvite("nope", buyer) }, ErrUnknownBanner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := update(t, mgr, tc.fn)
			if !errors.Is(err, tc.want) || !errors.Is(err, errs.ErrValidation) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("rejected calls must not emit: %v", rec.Types())
	}
}
