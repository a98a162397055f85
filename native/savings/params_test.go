package savings

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParametersValid(t *testing.T) {
	params := DefaultParameters()
	require.NoError(t, params.Validate())
	require.False(t, params.Paused)
	require.False(t, params.StrictLock)
	require.Zero(t, params.StreakWindow)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Parameters)
	}{
		{"reward rate too high", func(p *Parameters) { p.RewardRate = maxRewardRate + 1 }},
		{"penalty above 100", func(p *Parameters) { p.EarlyWithdrawPenalty = 101 }},
		{"zero compound frequency", func(p *Parameters) { p.CompoundFrequency = 0 }},
		{"compound frequency too high", func(p *Parameters) { p.CompoundFrequency = maxCompoundFrequency + 1 }},
		{"zero minimum", func(p *Parameters) { p.MinimumDeposit = big.NewInt(0) }},
		{"nil maximum", func(p *Parameters) { p.MaxDepositPerUser = nil }},
		{"maximum below minimum", func(p *Parameters) {
			p.MinimumDeposit = big.NewInt(100)
			p.MaxDepositPerUser = big.NewInt(99)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			tc.mutate(params)
			require.ErrorIs(t, params.Validate(), ErrInvalidParameter)
		})
	}
}

func TestValidateTierOrdering(t *testing.T) {
	require.NoError(t, validateTiers(nil))
	require.NoError(t, validateTiers([]MultiplierTier{
		{MinLockBlocks: 10, MultiplierBps: 11_000},
		{MinLockBlocks: 100, MultiplierBps: 12_500},
	}))
	require.ErrorIs(t, validateTiers([]MultiplierTier{
		{MinLockBlocks: 100, MultiplierBps: 11_000},
		{MinLockBlocks: 10, MultiplierBps: 12_500},
	}), ErrInvalidParameter)
	require.ErrorIs(t, validateTiers([]MultiplierTier{
		{MinLockBlocks: 10, MultiplierBps: 0},
	}), ErrInvalidParameter)
}

func TestTierSelection(t *testing.T) {
	tiers := []MultiplierTier{
		{MinLockBlocks: 100, MultiplierBps: 12_000},
		{MinLockBlocks: 1_000, MultiplierBps: 15_000},
		{MinLockBlocks: 10_000, MultiplierBps: 20_000},
	}

	require.Equal(t, uint32(flatMultiplierBps), tierFor(tiers, 0))
	require.Equal(t, uint32(flatMultiplierBps), tierFor(tiers, 99))
	require.Equal(t, uint32(12_000), tierFor(tiers, 100))
	require.Equal(t, uint32(12_000), tierFor(tiers, 999))
	require.Equal(t, uint32(15_000), tierFor(tiers, 1_000))
	require.Equal(t, uint32(20_000), tierFor(tiers, 50_000))
	require.Equal(t, uint32(flatMultiplierBps), tierFor(nil, 50_000))
}

func TestParametersCloneIsDeep(t *testing.T) {
	params := DefaultParameters()
	params.MultiplierTiers = []MultiplierTier{{MinLockBlocks: 10, MultiplierBps: 11_000}}
	clone := params.Clone()

	clone.MinimumDeposit.SetInt64(1)
	clone.MultiplierTiers[0].MultiplierBps = 99

	require.Equal(t, int64(1_000_000), params.MinimumDeposit.Int64())
	require.Equal(t, uint32(11_000), params.MultiplierTiers[0].MultiplierBps)
}

func TestNormalizeFillsNilFields(t *testing.T) {
	params := (&Parameters{RewardRate: 5}).Normalize()
	require.NotNil(t, params.MinimumDeposit)
	require.NotNil(t, params.MaxDepositPerUser)
	require.Equal(t, uint64(DefaultCompoundFrequency), params.CompoundFrequency)
}
