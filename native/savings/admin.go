package savings

import (
	"fmt"
	"math/big"
	"strconv"

	"nestchain/core/events"
	"nestchain/crypto"
)

func (e *Engine) requireAdmin(caller crypto.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.admin.IsZero() || ownerID(caller) != ownerID(e.admin) {
		return ErrNotAuthorized
	}
	return nil
}

// commitParameters bumps the version, persists the record and appends the
// parameter-change audit event.
func (e *Engine) commitParameters(params *Parameters, name, oldValue, newValue string) error {
	params.Version++
	if err := e.storeParameters(params); err != nil {
		return err
	}
	evt := events.SavingsParameterSet{
		Name:     name,
		OldValue: oldValue,
		NewValue: newValue,
		Version:  params.Version,
		Height:   e.blockHeight,
	}
	if err := e.appendEvent(eventToRecord(evt.Event(), e.blockHeight)); err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

// SetRewardRate updates the reward rate percentage and appends a rate-change
// history entry alongside the audit event.
func (e *Engine) SetRewardRate(caller crypto.Address, rate uint64) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	if rate > maxRewardRate {
		return 0, fmt.Errorf("%w: reward rate %d exceeds %d", ErrInvalidParameter, rate, maxRewardRate)
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	oldRate := params.RewardRate
	params.RewardRate = rate

	rateLog, err := e.loadRateLog()
	if err != nil {
		return 0, err
	}
	rateLog.Append(RateChange{OldRate: oldRate, NewRate: rate, Height: e.blockHeight})
	if err := e.state.KVPut(rateLogKey, rateLog); err != nil {
		return 0, err
	}
	if err := e.commitParameters(params, "rewardRate", formatUint(oldRate), formatUint(rate)); err != nil {
		return 0, err
	}
	return rate, nil
}

// SetMinimumDeposit updates the deposit floor.
func (e *Engine) SetMinimumDeposit(caller crypto.Address, minimum *big.Int) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if minimum == nil || minimum.Sign() <= 0 {
		return nil, fmt.Errorf("%w: minimum deposit must be positive", ErrInvalidParameter)
	}
	params, err := e.loadParameters()
	if err != nil {
		return nil, err
	}
	if minimum.Cmp(params.MaxDepositPerUser) > 0 {
		return nil, fmt.Errorf("%w: minimum deposit above maximum", ErrInvalidParameter)
	}
	old := params.MinimumDeposit
	params.MinimumDeposit = new(big.Int).Set(minimum)
	if err := e.commitParameters(params, "minimumDeposit", old.String(), minimum.String()); err != nil {
		return nil, err
	}
	return new(big.Int).Set(minimum), nil
}

// SetMaxDepositPerUser updates the per-user deposit ceiling.
func (e *Engine) SetMaxDepositPerUser(caller crypto.Address, maximum *big.Int) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if maximum == nil || maximum.Sign() <= 0 {
		return nil, fmt.Errorf("%w: maximum deposit must be positive", ErrInvalidParameter)
	}
	params, err := e.loadParameters()
	if err != nil {
		return nil, err
	}
	if maximum.Cmp(params.MinimumDeposit) < 0 {
		return nil, fmt.Errorf("%w: maximum deposit below minimum", ErrInvalidParameter)
	}
	old := params.MaxDepositPerUser
	params.MaxDepositPerUser = new(big.Int).Set(maximum)
	if err := e.commitParameters(params, "maxDepositPerUser", old.String(), maximum.String()); err != nil {
		return nil, err
	}
	return new(big.Int).Set(maximum), nil
}

// SetEarlyWithdrawPenalty updates the early-withdrawal penalty percentage.
func (e *Engine) SetEarlyWithdrawPenalty(caller crypto.Address, penalty uint64) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	if penalty > maxPenaltyRate {
		return 0, fmt.Errorf("%w: penalty %d exceeds %d", ErrInvalidParameter, penalty, maxPenaltyRate)
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	old := params.EarlyWithdrawPenalty
	params.EarlyWithdrawPenalty = penalty
	if err := e.commitParameters(params, "earlyWithdrawPenalty", formatUint(old), formatUint(penalty)); err != nil {
		return 0, err
	}
	return penalty, nil
}

// SetWithdrawCooldown updates the block cooldown between withdrawals.
func (e *Engine) SetWithdrawCooldown(caller crypto.Address, blocks uint64) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	old := params.WithdrawCooldown
	params.WithdrawCooldown = blocks
	if err := e.commitParameters(params, "withdrawCooldown", formatUint(old), formatUint(blocks)); err != nil {
		return 0, err
	}
	return blocks, nil
}

// SetCompoundFrequency updates the projection compounding frequency.
func (e *Engine) SetCompoundFrequency(caller crypto.Address, frequency uint64) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	if frequency < 1 || frequency > maxCompoundFrequency {
		return 0, fmt.Errorf("%w: compound frequency %d out of range", ErrInvalidParameter, frequency)
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	old := params.CompoundFrequency
	params.CompoundFrequency = frequency
	if err := e.commitParameters(params, "compoundFrequency", formatUint(old), formatUint(frequency)); err != nil {
		return 0, err
	}
	return frequency, nil
}

// SetStreakWindow updates the streak-continuity window. Zero disables the
// continuity check so every mature cycle extends the streak.
func (e *Engine) SetStreakWindow(caller crypto.Address, blocks uint64) (uint64, error) {
	if err := e.requireAdmin(caller); err != nil {
		return 0, err
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	old := params.StreakWindow
	params.StreakWindow = blocks
	if err := e.commitParameters(params, "streakWindow", formatUint(old), formatUint(blocks)); err != nil {
		return 0, err
	}
	return blocks, nil
}

// SetStrictLock switches between the penalty policy (false) and outright
// rejection of pre-maturity withdrawals (true).
func (e *Engine) SetStrictLock(caller crypto.Address, strict bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	params, err := e.loadParameters()
	if err != nil {
		return err
	}
	old := params.StrictLock
	params.StrictLock = strict
	return e.commitParameters(params, "strictLock", strconv.FormatBool(old), strconv.FormatBool(strict))
}

// SetMultiplierTiers replaces the lock-duration reward multiplier schedule.
func (e *Engine) SetMultiplierTiers(caller crypto.Address, tiers []MultiplierTier) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := validateTiers(tiers); err != nil {
		return err
	}
	params, err := e.loadParameters()
	if err != nil {
		return err
	}
	old := len(params.MultiplierTiers)
	params.MultiplierTiers = append([]MultiplierTier(nil), tiers...)
	return e.commitParameters(params, "multiplierTiers", formatUint(uint64(old)), formatUint(uint64(len(tiers))))
}

// Pause halts new deposits. Withdrawals keep working during incidents.
func (e *Engine) Pause(caller crypto.Address) error {
	return e.setPaused(caller, true)
}

// Unpause re-enables deposits.
func (e *Engine) Unpause(caller crypto.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller crypto.Address, paused bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	params, err := e.loadParameters()
	if err != nil {
		return err
	}
	if params.Paused == paused {
		return nil
	}
	params.Paused = paused
	params.Version++
	if err := e.storeParameters(params); err != nil {
		return err
	}
	evt := events.SavingsPauseToggled{Paused: paused, Height: e.blockHeight}
	if err := e.appendEvent(eventToRecord(evt.Event(), e.blockHeight)); err != nil {
		return err
	}
	e.emit(evt)
	return nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
