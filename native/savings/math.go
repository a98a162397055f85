package savings

import (
	"fmt"
	"math/big"
)

var (
	basisPoints = big.NewInt(10_000)
	oneHundred  = big.NewInt(100)
)

// flatMultiplierBps is the multiplier applied when no tier matches.
const flatMultiplierBps = 10_000

// maxCompoundPeriods caps the exponent of the projection helper so a hostile
// year count cannot force unbounded big.Int growth.
const maxCompoundPeriods = 1_200

// rewardPoints computes floor(amount * ratePct / 100) scaled by the lock
// multiplier. All intermediates are big.Int so the maximum deposit times the
// maximum rate cannot wrap; a result outside the uint64 points range is
// rejected instead of truncated.
func rewardPoints(amount *big.Int, ratePct uint64, multiplierBps uint32) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 || ratePct == 0 {
		return 0, nil
	}
	points := new(big.Int).Mul(amount, new(big.Int).SetUint64(ratePct))
	points.Quo(points, oneHundred)
	if multiplierBps != flatMultiplierBps {
		points.Mul(points, new(big.Int).SetUint64(uint64(multiplierBps)))
		points.Quo(points, basisPoints)
	}
	if !points.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrPointsOverflow, points.String())
	}
	return points.Uint64(), nil
}

// penaltyAmount computes floor(amount * penaltyPct / 100).
func penaltyAmount(amount *big.Int, penaltyPct uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || penaltyPct == 0 {
		return big.NewInt(0)
	}
	penalty := new(big.Int).Mul(amount, new(big.Int).SetUint64(penaltyPct))
	penalty.Quo(penalty, oneHundred)
	return penalty
}

// ProjectCompound estimates the balance after compounding amount at ratePct
// per year, frequency times per year, over the given number of years:
//
//	amount * (100*f + r)^(f*y) / (100*f)^(f*y)
//
// The helper is read-only and never touches ledger state.
func ProjectCompound(amount *big.Int, ratePct, frequency, years uint64) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount must be non-negative", ErrInvalidParameter)
	}
	if frequency == 0 {
		return nil, fmt.Errorf("%w: compound frequency must be at least 1", ErrInvalidParameter)
	}
	periods := frequency * years
	if years != 0 && periods/years != frequency {
		return nil, fmt.Errorf("%w: projection horizon too large", ErrInvalidParameter)
	}
	if periods > maxCompoundPeriods {
		return nil, fmt.Errorf("%w: projection horizon too large", ErrInvalidParameter)
	}
	if periods == 0 || ratePct == 0 || amount.Sign() == 0 {
		return new(big.Int).Set(amount), nil
	}
	base := new(big.Int).SetUint64(100 * frequency)
	exp := new(big.Int).SetUint64(periods)
	numerator := new(big.Int).Add(base, new(big.Int).SetUint64(ratePct))
	numerator.Exp(numerator, exp, nil)
	denominator := new(big.Int).Exp(base, exp, nil)
	result := new(big.Int).Mul(amount, numerator)
	result.Quo(result, denominator)
	return result, nil
}
