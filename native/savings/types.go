package savings

import "math/big"

// Goal captures an optional savings target attached at deposit time. Progress
// against the goal is always derived from the live amount, never stored.
type Goal struct {
	Amount      *big.Int
	Description string
}

// Account is the single active deposit record for one principal. A claimed
// account is terminal but retained for read access; the next deposit replaces
// it.
type Account struct {
	Owner         [20]byte
	Amount        *big.Int
	DepositHeight uint64
	UnlockHeight  uint64
	Claimed       bool
	Goal          *Goal `rlp:"nil"`
}

// Clone produces a deep copy safe to hand to callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{
		Owner:         a.Owner,
		DepositHeight: a.DepositHeight,
		UnlockHeight:  a.UnlockHeight,
		Claimed:       a.Claimed,
	}
	if a.Amount != nil {
		clone.Amount = new(big.Int).Set(a.Amount)
	}
	if a.Goal != nil {
		goal := &Goal{Description: a.Goal.Description}
		if a.Goal.Amount != nil {
			goal.Amount = new(big.Int).Set(a.Goal.Amount)
		}
		clone.Goal = goal
	}
	return clone
}

// GoalProgress derives the percentage of the goal covered by the locked
// amount. The second return reports whether a goal is attached.
func (a *Account) GoalProgress() (uint64, bool) {
	if a == nil || a.Goal == nil || a.Goal.Amount == nil || a.Goal.Amount.Sign() <= 0 {
		return 0, false
	}
	if a.Amount == nil {
		return 0, true
	}
	progress := new(big.Int).Mul(a.Amount, big.NewInt(100))
	progress.Quo(progress, a.Goal.Amount)
	if !progress.IsUint64() {
		return 0, true
	}
	return progress.Uint64(), true
}

// Reputation tracks the reward points and streak bookkeeping for a principal.
// Points and LongestStreak only ever grow.
type Reputation struct {
	Points             uint64
	CurrentStreak      uint64
	LongestStreak      uint64
	LastActivityHeight uint64
}

// activity records per-principal withdrawal timing used for cooldown and
// streak-continuity checks. It is tracked separately from Reputation because
// early withdrawals never create a reputation record.
type activity struct {
	LastWithdrawHeight uint64
	WithdrawCount      uint64
}

// WithdrawReceipt summarises a settled withdrawal.
type WithdrawReceipt struct {
	Withdrawn    *big.Int
	Penalty      *big.Int
	Early        bool
	EarnedPoints uint64
}
