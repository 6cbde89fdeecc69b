package events

import (
	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	// TypeReferralLinkSet is emitted when a referral link is registered or
	// its percentages are overwritten.
	TypeReferralLinkSet = "referral.link.set"
	// TypeReferralBannerSet is emitted when a banner is registered or updated.
	TypeReferralBannerSet = "referral.banner.set"
	// TypeReferralLinkInvite is emitted when an invitee is bound to a link.
	TypeReferralLinkInvite = "referral.invite.link"
	// TypeReferralBannerInvite is emitted when an invitee is bound to a banner.
	TypeReferralBannerInvite = "referral.invite.banner"
)

// ReferralLinkSet captures the percentages attached to a link owner.
type ReferralLinkSet struct {
	Owner      common.Address
	InviteeBps uint32
	OwnerBps   uint32
}

func (ReferralLinkSet) EventType() string { return TypeReferralLinkSet }

func (e ReferralLinkSet) Event() *types.Event {
	return &types.Event{Type: TypeReferralLinkSet, Attributes: map[string]string{
		"owner":      formatAddress(e.Owner),
		"inviteeBps": formatBps(e.InviteeBps),
		"ownerBps":   formatBps(e.OwnerBps),
	}}
}

// ReferralBannerSet captures the invitee percentage attached to a banner.
type ReferralBannerSet struct {
	BannerID   string
	InviteeBps uint32
}

func (ReferralBannerSet) EventType() string { return TypeReferralBannerSet }

func (e ReferralBannerSet) Event() *types.Event {
	return &types.Event{Type: TypeReferralBannerSet, Attributes: map[string]string{
		"banner":     e.BannerID,
		"inviteeBps": formatBps(e.InviteeBps),
	}}
}

// ReferralLinkInvite binds an invitee to a link owner.
type ReferralLinkInvite struct {
	Owner   common.Address
	Invitee common.Address
}

func (ReferralLinkInvite) EventType() string { return TypeReferralLinkInvite }

func (e ReferralLinkInvite) Event() *types.Event {
	return &types.Event{Type: TypeReferralLinkInvite, Attributes: map[string]string{
		"owner":   formatAddress(e.Owner),
		"invitee": formatAddress(e.Invitee),
	}}
}

// ReferralBannerInvite binds an invitee to a banner.
type ReferralBannerInvite struct {
	BannerID string
	Invitee  common.Address
}

func (ReferralBannerInvite) EventType() string { return TypeReferralBannerInvite }

func (e ReferralBannerInvite) Event() *types.Event {
	return &types.Event{Type: TypeReferralBannerInvite, Attributes: map[string]string{
		"banner":  e.BannerID,
		"invitee": formatAddress(e.Invitee),
	}}
}
