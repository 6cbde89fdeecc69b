package referral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// BasisPointsDenominator is the scale of referral percentages.
	BasisPointsDenominator = 10_000

	SourceNone   = ""
	SourceLink   = "link"
	SourceBanner = "banner"
)

// Link is a referral source owned by an address. Both the owner and the
// invitee are rewarded.
type Link struct {
	Owner      common.Address
	InviteeBps uint32
	OwnerBps   uint32
}

// Banner is an anonymous referral source that rewards the invitee only.
type Banner struct {
	ID         string
	InviteeBps uint32
}

// Invite reports the sources an address is bound to. Both may be set.
type Invite struct {
	LinkOwner common.Address
	HasLink   bool
	BannerID  string
	HasBanner bool
}

// Attribution is the outcome of resolving a buyer's referral bonuses. The
// ledger only sizes the bonuses; crediting is the caller's job.
type Attribution struct {
	Source       string
	Referrer     common.Address
	HasReferrer  bool
	OwnerBonus   *big.Int
	Invitee      common.Address
	HasInvitee   bool
	InviteeBonus *big.Int
}

func zeroAttribution() Attribution {
	return Attribution{Source: SourceNone, OwnerBonus: big.NewInt(0), InviteeBonus: big.NewInt(0)}
}

func applyBps(amount *big.Int, bps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
	return out.Quo(out, big.NewInt(BasisPointsDenominator))
}
