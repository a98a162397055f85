package savings

import (
	"fmt"
	"math/big"
	"sort"
)

// Default parameter values applied at genesis or when no record exists yet.
const (
	DefaultRewardRate           = 10
	DefaultEarlyWithdrawPenalty = 20
	DefaultWithdrawCooldown     = 144
	DefaultCompoundFrequency    = 12
)

var (
	defaultMinimumDeposit    = big.NewInt(1_000_000)
	defaultMaxDepositPerUser = big.NewInt(100_000_000_000_000)
)

// Validation bounds enforced by the admin setters.
const (
	maxRewardRate        = 1_000
	maxPenaltyRate       = 100
	maxCompoundFrequency = 365
)

// MultiplierTier scales reward points for deposits locked at least
// MinLockBlocks. Tiers are kept sorted ascending by MinLockBlocks; the highest
// matching tier wins.
type MultiplierTier struct {
	MinLockBlocks uint64
	MultiplierBps uint32
}

// Parameters is the admin-owned singleton governing ledger economics. Every
// committed change bumps Version so readers always observe one consistent
// snapshot.
type Parameters struct {
	Version              uint64
	RewardRate           uint64
	MinimumDeposit       *big.Int
	MaxDepositPerUser    *big.Int
	EarlyWithdrawPenalty uint64
	WithdrawCooldown     uint64
	CompoundFrequency    uint64
	StreakWindow         uint64
	StrictLock           bool
	Paused               bool
	MultiplierTiers      []MultiplierTier
}

// DefaultParameters returns the genesis parameter set.
func DefaultParameters() *Parameters {
	return &Parameters{
		RewardRate:           DefaultRewardRate,
		MinimumDeposit:       new(big.Int).Set(defaultMinimumDeposit),
		MaxDepositPerUser:    new(big.Int).Set(defaultMaxDepositPerUser),
		EarlyWithdrawPenalty: DefaultEarlyWithdrawPenalty,
		WithdrawCooldown:     DefaultWithdrawCooldown,
		CompoundFrequency:    DefaultCompoundFrequency,
	}
}

// Clone produces a deep copy of the parameter record.
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	clone := &Parameters{
		Version:              p.Version,
		RewardRate:           p.RewardRate,
		EarlyWithdrawPenalty: p.EarlyWithdrawPenalty,
		WithdrawCooldown:     p.WithdrawCooldown,
		CompoundFrequency:    p.CompoundFrequency,
		StreakWindow:         p.StreakWindow,
		StrictLock:           p.StrictLock,
		Paused:               p.Paused,
	}
	if p.MinimumDeposit != nil {
		clone.MinimumDeposit = new(big.Int).Set(p.MinimumDeposit)
	}
	if p.MaxDepositPerUser != nil {
		clone.MaxDepositPerUser = new(big.Int).Set(p.MaxDepositPerUser)
	}
	if len(p.MultiplierTiers) > 0 {
		clone.MultiplierTiers = append([]MultiplierTier(nil), p.MultiplierTiers...)
	}
	return clone
}

// Normalize replaces nil pointer fields with defaults so callers can operate
// on the record without nil checks. The method returns the receiver to allow
// chaining.
func (p *Parameters) Normalize() *Parameters {
	if p == nil {
		return nil
	}
	if p.MinimumDeposit == nil {
		p.MinimumDeposit = new(big.Int).Set(defaultMinimumDeposit)
	}
	if p.MaxDepositPerUser == nil {
		p.MaxDepositPerUser = new(big.Int).Set(defaultMaxDepositPerUser)
	}
	if p.CompoundFrequency == 0 {
		p.CompoundFrequency = DefaultCompoundFrequency
	}
	return p
}

// Validate performs static validation of the parameter record.
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("savings: nil parameters")
	}
	if p.RewardRate > maxRewardRate {
		return fmt.Errorf("%w: reward rate %d exceeds %d", ErrInvalidParameter, p.RewardRate, maxRewardRate)
	}
	if p.EarlyWithdrawPenalty > maxPenaltyRate {
		return fmt.Errorf("%w: penalty %d exceeds %d", ErrInvalidParameter, p.EarlyWithdrawPenalty, maxPenaltyRate)
	}
	if p.CompoundFrequency < 1 || p.CompoundFrequency > maxCompoundFrequency {
		return fmt.Errorf("%w: compound frequency %d out of range", ErrInvalidParameter, p.CompoundFrequency)
	}
	if p.MinimumDeposit == nil || p.MinimumDeposit.Sign() <= 0 {
		return fmt.Errorf("%w: minimum deposit must be positive", ErrInvalidParameter)
	}
	if p.MaxDepositPerUser == nil || p.MaxDepositPerUser.Sign() <= 0 {
		return fmt.Errorf("%w: maximum deposit must be positive", ErrInvalidParameter)
	}
	if p.MaxDepositPerUser.Cmp(p.MinimumDeposit) < 0 {
		return fmt.Errorf("%w: maximum deposit below minimum", ErrInvalidParameter)
	}
	if err := validateTiers(p.MultiplierTiers); err != nil {
		return err
	}
	return nil
}

func validateTiers(tiers []MultiplierTier) error {
	for i, tier := range tiers {
		if tier.MultiplierBps == 0 {
			return fmt.Errorf("%w: tier %d multiplier must be positive", ErrInvalidParameter, i)
		}
		if i > 0 && tiers[i-1].MinLockBlocks >= tier.MinLockBlocks {
			return fmt.Errorf("%w: tiers must ascend by lock blocks", ErrInvalidParameter)
		}
	}
	return nil
}

// tierFor resolves the reward multiplier for the given lock duration. With no
// tiers configured the multiplier is flat 1x.
func tierFor(tiers []MultiplierTier, lockBlocks uint64) uint32 {
	selected := uint32(flatMultiplierBps)
	idx := sort.Search(len(tiers), func(i int) bool {
		return tiers[i].MinLockBlocks > lockBlocks
	})
	if idx > 0 {
		selected = tiers[idx-1].MultiplierBps
	}
	return selected
}
