package referral

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/types"
)

var (
	ErrZeroAddress   = errs.New(errs.ErrValidation, "referral: zero address")
	ErrInvalidBps    = errs.New(errs.ErrValidation, "referral: bps out of range")
	ErrEmptyBannerID = errs.New(errs.ErrValidation, "referral: banner id required")
	ErrUnknownLink   = errs.New(errs.ErrValidation, "referral: link not registered")
	ErrUnknownBanner = errs.New(errs.ErrValidation, "referral: banner not registered")
)

var (
	linkPrefix         = []byte("referral/link/")
	bannerPrefix       = []byte("referral/banner/")
	linkInvitePrefix   = []byte("referral/invite/link/")
	bannerInvitePrefix = []byte("referral/invite/banner/")
)

// State is the subset of the state manager the ledger needs.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	AppendEvent(evt *types.Event)
}

// Engine owns every referral source and invite record.
type Engine struct {
	state State
}

// NewEngine binds the ledger to st.
func NewEngine(st State) *Engine { return &Engine{state: st} }

func prefixed(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(suffix))
	buf = append(buf, prefix...)
	return append(buf, suffix...)
}

func normalizeBannerID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", ErrEmptyBannerID
	}
	return trimmed, nil
}

func checkBps(values ...uint32) error {
	for _, v := range values {
		if v > BasisPointsDenominator {
			return errs.Wrapf(ErrInvalidBps, "%d", v)
		}
	}
	return nil
}

// SetLink registers or overwrites the percentages of owner's link. Existing
// invites pick up the new percentages on their next resolution.
func (e *Engine) SetLink(owner common.Address, inviteeBps, ownerBps uint32) error {
	if owner == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := checkBps(inviteeBps, ownerBps); err != nil {
		return err
	}
	link := Link{Owner: owner, InviteeBps: inviteeBps, OwnerBps: ownerBps}
	if err := e.state.KVPut(prefixed(linkPrefix, owner[:]), link); err != nil {
		return err
	}
	e.state.AppendEvent(events.ReferralLinkSet{Owner: owner, InviteeBps: inviteeBps, OwnerBps: ownerBps}.Event())
	return nil
}

// SetBanner registers or overwrites a banner's invitee percentage.
func (e *Engine) SetBanner(bannerID string, inviteeBps uint32) error {
	id, err := normalizeBannerID(bannerID)
	if err != nil {
		return err
	}
	if err := checkBps(inviteeBps); err != nil {
		return err
	}
	if err := e.state.KVPut(prefixed(bannerPrefix, []byte(id)), Banner{ID: id, InviteeBps: inviteeBps}); err != nil {
		return err
	}
	e.state.AppendEvent(events.ReferralBannerSet{BannerID: id, InviteeBps: inviteeBps}.Event())
	return nil
}

// Link returns owner's link.
func (e *Engine) Link(owner common.Address) (Link, bool, error) {
	var link Link
	ok, err := e.state.KVGet(prefixed(linkPrefix, owner[:]), &link)
	if err != nil || !ok {
		return Link{}, false, err
	}
	return link, true, nil
}

// Banner returns the banner registered under id.
func (e *Engine) Banner(id string) (Banner, bool, error) {
	normalized, err := normalizeBannerID(id)
	if err != nil {
		return Banner{}, false, err
	}
	var banner Banner
	ok, err := e.state.KVGet(prefixed(bannerPrefix, []byte(normalized)), &banner)
	if err != nil || !ok {
		return Banner{}, false, err
	}
	return banner, true, nil
}

// AddLinkInvite binds invitee to owner's link. The first binding wins; a
// repeat call leaves state untouched.
func (e *Engine) AddLinkInvite(owner, invitee common.Address) error {
	if owner == (common.Address{}) || invitee == (common.Address{}) {
		return ErrZeroAddress
	}
	if _, ok, err := e.Link(owner); err != nil {
		return err
	} else if !ok {
		return errs.Wrapf(ErrUnknownLink, "%s", owner.Hex())
	}
	key := prefixed(linkInvitePrefix, invitee[:])
	exists, err := e.state.KVGet(key, nil)
	if err != nil || exists {
		return err
	}
	if err := e.state.KVPut(key, owner); err != nil {
		return err
	}
	e.state.AppendEvent(events.ReferralLinkInvite{Owner: owner, Invitee: invitee}.Event())
	return nil
}

// AddBannerInvite binds invitee to a banner. The first binding wins. A
// banner binding does not exclude a link binding for the same address.
func (e *Engine) AddBannerInvite(bannerID string, invitee common.Address) error {
	if invitee == (common.Address{}) {
		return ErrZeroAddress
	}
	banner, ok, err := e.Banner(bannerID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Wrapf(ErrUnknownBanner, "%q", bannerID)
	}
	key := prefixed(bannerInvitePrefix, invitee[:])
	exists, err := e.state.KVGet(key, nil)
	if err != nil || exists {
		return err
	}
	if err := e.state.KVPut(key, banner.ID); err != nil {
		return err
	}
	e.state.AppendEvent(events.ReferralBannerInvite{BannerID: banner.ID, Invitee: invitee}.Event())
	return nil
}

// InviteOf reports the bindings recorded for addr.
func (e *Engine) InviteOf(addr common.Address) (Invite, error) {
	var invite Invite
	var owner common.Address
	ok, err := e.state.KVGet(prefixed(linkInvitePrefix, addr[:]), &owner)
	if err != nil {
		return Invite{}, err
	}
	if ok {
		invite.LinkOwner = owner
		invite.HasLink = true
	}
	var bannerID string
	ok, err = e.state.KVGet(prefixed(bannerInvitePrefix, addr[:]), &bannerID)
	if err != nil {
		return Invite{}, err
	}
	if ok {
		invite.BannerID = bannerID
		invite.HasBanner = true
	}
	return invite, nil
}

// ResolveBonuses sizes the referral bonuses for a purchase of purchased
// tokens by buyer. A link binding takes priority over a banner binding. The
// invitee bonus is always attributed to the buyer.
func (e *Engine) ResolveBonuses(buyer common.Address, purchased *big.Int) (Attribution, error) {
	out := zeroAttribution()
	invite, err := e.InviteOf(buyer)
	if err != nil {
		return out, err
	}
	switch {
	case invite.HasLink:
		link, ok, err := e.Link(invite.LinkOwner)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out.Source = SourceLink
		out.Referrer = link.Owner
		out.HasReferrer = true
		out.OwnerBonus = applyBps(purchased, link.OwnerBps)
		out.Invitee = buyer
		out.HasInvitee = true
		out.InviteeBonus = applyBps(purchased, link.InviteeBps)
	case invite.HasBanner:
		banner, ok, err := e.Banner(invite.BannerID)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out.Source = SourceBanner
		out.Invitee = buyer
		out.HasInvitee = true
		out.InviteeBonus = applyBps(purchased, banner.InviteeBps)
	}
	return out, nil
}
