package savings

import (
	"math/big"

	"nestchain/crypto"
)

// GetSavings returns the caller-visible snapshot of a principal's deposit
// record, claimed or not. The boolean reports whether a record exists.
func (e *Engine) GetSavings(owner crypto.Address) (*Account, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	account, found, err := e.loadSavings(ownerID(owner))
	if err != nil || !found {
		return nil, false, err
	}
	return account.Clone(), true, nil
}

// BatchGetSavings resolves one record per input principal, in input order. An
// absent account yields a nil entry rather than an error; there is no partial
// failure mode beyond storage errors.
func (e *Engine) BatchGetSavings(owners []crypto.Address) ([]*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	out := make([]*Account, len(owners))
	for i, owner := range owners {
		account, found, err := e.loadSavings(ownerID(owner))
		if err != nil {
			return nil, err
		}
		if found {
			out[i] = account.Clone()
		}
	}
	return out, nil
}

// GetReputation returns the reputation record for a principal. Principals with
// no mature withdrawal yet report a zero record.
func (e *Engine) GetReputation(owner crypto.Address) (*Reputation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	rep, _, err := e.loadReputation(ownerID(owner))
	if err != nil {
		return nil, err
	}
	return &Reputation{
		Points:             rep.Points,
		CurrentStreak:      rep.CurrentStreak,
		LongestStreak:      rep.LongestStreak,
		LastActivityHeight: rep.LastActivityHeight,
	}, nil
}

// GetDepositHistory returns at most limit deposit records for the principal,
// most recent first, plus the total number ever logged.
func (e *Engine) GetDepositHistory(owner crypto.Address, limit int) ([]DepositRecord, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	history, err := e.loadHistory(ownerID(owner))
	if err != nil {
		return nil, 0, err
	}
	entries, total := history.Latest(limit)
	return entries, total, nil
}

// GetEvents returns at most limit global audit events, most recent first,
// plus the total number ever logged.
func (e *Engine) GetEvents(limit int) ([]EventRecord, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	log, err := e.loadEventLog()
	if err != nil {
		return nil, 0, err
	}
	entries, total := log.Latest(limit)
	return entries, total, nil
}

// GetRateHistory returns at most limit reward-rate changes, most recent first,
// plus the total number ever logged.
func (e *Engine) GetRateHistory(limit int) ([]RateChange, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	log, err := e.loadRateLog()
	if err != nil {
		return nil, 0, err
	}
	entries, total := log.Latest(limit)
	return entries, total, nil
}

// GetParameters returns a consistent snapshot of the parameter record.
func (e *Engine) GetParameters() (*Parameters, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParameters()
	if err != nil {
		return nil, err
	}
	return params.Clone(), nil
}

// IsPaused reports the deposit pause switch.
func (e *Engine) IsPaused() (bool, error) {
	params, err := e.GetParameters()
	if err != nil {
		return false, err
	}
	return params.Paused, nil
}

// GetRewardRate returns the current reward rate percentage.
func (e *Engine) GetRewardRate() (uint64, error) {
	params, err := e.GetParameters()
	if err != nil {
		return 0, err
	}
	return params.RewardRate, nil
}

// GetMinimumDeposit returns the deposit floor.
func (e *Engine) GetMinimumDeposit() (*big.Int, error) {
	params, err := e.GetParameters()
	if err != nil {
		return nil, err
	}
	return params.MinimumDeposit, nil
}

// GetMaxDepositPerUser returns the per-user deposit ceiling.
func (e *Engine) GetMaxDepositPerUser() (*big.Int, error) {
	params, err := e.GetParameters()
	if err != nil {
		return nil, err
	}
	return params.MaxDepositPerUser, nil
}

// GetEarlyWithdrawPenalty returns the early-withdrawal penalty percentage.
func (e *Engine) GetEarlyWithdrawPenalty() (uint64, error) {
	params, err := e.GetParameters()
	if err != nil {
		return 0, err
	}
	return params.EarlyWithdrawPenalty, nil
}

// GetCompoundFrequency returns the compounding frequency used by projections.
func (e *Engine) GetCompoundFrequency() (uint64, error) {
	params, err := e.GetParameters()
	if err != nil {
		return 0, err
	}
	return params.CompoundFrequency, nil
}

// GetCooldownRemaining returns how many blocks remain before the principal may
// withdraw again. Zero means no cooldown is in force.
func (e *Engine) GetCooldownRemaining(owner crypto.Address) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	params, err := e.loadParameters()
	if err != nil {
		return 0, err
	}
	act, err := e.loadActivity(ownerID(owner))
	if err != nil {
		return 0, err
	}
	if act.WithdrawCount == 0 {
		return 0, nil
	}
	readyAt := act.LastWithdrawHeight + params.WithdrawCooldown
	if e.blockHeight >= readyAt {
		return 0, nil
	}
	return readyAt - e.blockHeight, nil
}

// ProjectYield estimates the compound growth of amount over the given number
// of years using the current reward rate and compounding frequency. Read-only.
func (e *Engine) ProjectYield(amount *big.Int, years uint64) (*big.Int, error) {
	params, err := e.GetParameters()
	if err != nil {
		return nil, err
	}
	return ProjectCompound(amount, params.RewardRate, params.CompoundFrequency, years)
}
