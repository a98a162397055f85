package savings

import "errors"

var (
	// ErrPaused rejects new deposits while the ledger pause switch is on.
	ErrPaused = errors.New("savings: contract paused")
	// ErrActiveDeposit marks a deposit attempt while an unclaimed account exists.
	ErrActiveDeposit = errors.New("savings: active deposit exists")
	// ErrInvalidAmount marks a zero or negative deposit amount.
	ErrInvalidAmount = errors.New("savings: amount must be positive")
	// ErrBelowMinimum marks a deposit under the configured minimum.
	ErrBelowMinimum = errors.New("savings: amount below minimum deposit")
	// ErrAboveMaximum marks a deposit over the configured per-user maximum.
	ErrAboveMaximum = errors.New("savings: amount exceeds maximum deposit")
	// ErrInsufficientBalance marks a depositor without the funds to lock.
	ErrInsufficientBalance = errors.New("savings: insufficient balance")
	// ErrNoDeposit marks a withdrawal with no account on record.
	ErrNoDeposit = errors.New("savings: no deposit found")
	// ErrAlreadyWithdrawn marks a second withdrawal on a claimed account.
	ErrAlreadyWithdrawn = errors.New("savings: deposit already withdrawn")
	// ErrCooldownActive marks a withdrawal before the cooldown since the
	// caller's previous withdrawal has elapsed.
	ErrCooldownActive = errors.New("savings: withdrawal cooldown active")
	// ErrLockActive marks a pre-maturity withdrawal under the strict-lock policy.
	ErrLockActive = errors.New("savings: lock period active")
	// ErrNotAuthorized marks a parameter mutation from a non-admin caller.
	ErrNotAuthorized = errors.New("savings: not authorized")
	// ErrInvalidParameter marks an admin setter value outside its bounds.
	ErrInvalidParameter = errors.New("savings: invalid parameter")
	// ErrInvalidGoal marks a goal deposit without a positive goal amount.
	ErrInvalidGoal = errors.New("savings: invalid savings goal")
	// ErrPointsOverflow marks reward arithmetic that would exceed the points
	// range. The offending input is rejected rather than wrapped around.
	ErrPointsOverflow = errors.New("savings: reward points overflow")
)
