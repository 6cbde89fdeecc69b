package sale

import "math/big"

// BonusBps walks the bonus table in configured order. For entries of the
// given stage it keeps the latest bps whose threshold the investment reaches
// and stops at the first such entry whose threshold it does not reach.
// Entries of other stages are skipped. Tables are not re-sorted.
func BonusBps(bonuses []VolumeBonus, stageID uint64, investmentUSD *big.Int) uint32 {
	var bps uint32
	for _, entry := range bonuses {
		if entry.StageID != stageID {
			continue
		}
		threshold := entry.Threshold
		if threshold == nil {
			threshold = new(big.Int)
		}
		if investmentUSD.Cmp(threshold) < 0 {
			break
		}
		bps = entry.Bps
	}
	return bps
}

// ComputeAllocation sizes an investment against the stage active at now. It
// does not mutate anything.
//
//	tokens = investmentUSD * 10^decimals / price
//	bonus  = tokens * bps / 10000
func ComputeAllocation(stages []Stage, bonuses []VolumeBonus, now uint64, investmentUSD, price, alreadySold *big.Int, decimals uint8) (Allocation, error) {
	if price == nil || price.Sign() <= 0 {
		return Allocation{}, ErrInvalidPrice
	}
	stage, ok := ResolveStage(stages, now)
	if !ok {
		return Allocation{}, ErrNoActiveStage
	}
	investment := cloneBig(investmentUSD)
	if investment.Cmp(cloneBig(stage.MinInvestment)) < 0 {
		return Allocation{}, ErrBelowMinimumInvestment
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	tokens := new(big.Int).Mul(investment, scale)
	tokens.Quo(tokens, price)

	bps := BonusBps(bonuses, stage.ID, investment)
	bonus := new(big.Int).Mul(tokens, big.NewInt(int64(bps)))
	bonus.Quo(bonus, big.NewInt(BasisPointsDenominator))

	projected := new(big.Int).Add(cloneBig(alreadySold), tokens)
	projected.Add(projected, bonus)
	if projected.Cmp(cloneBig(stage.SupplyCeiling)) > 0 {
		return Allocation{}, ErrStageSupplyExceeded
	}
	return Allocation{Stage: stage, Tokens: tokens, Bonus: bonus, BonusBps: bps}, nil
}

// ValidateBonuses checks bps ranges and that every entry refers to a known
// stage. Threshold order is not enforced.
func ValidateBonuses(stages []Stage, bonuses []VolumeBonus) error {
	known := make(map[uint64]struct{}, len(stages))
	for _, stage := range stages {
		known[stage.ID] = struct{}{}
	}
	for _, entry := range bonuses {
		if _, ok := known[entry.StageID]; !ok {
			return ErrInvalidBonus
		}
		if entry.Bps > BasisPointsDenominator {
			return ErrInvalidBonus
		}
		if entry.Threshold == nil || entry.Threshold.Sign() < 0 {
			return ErrInvalidBonus
		}
	}
	return nil
}
