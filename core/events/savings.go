package events

import (
	"math/big"
	"strconv"

	"nestchain/core/types"
	"nestchain/crypto"
)

const (
	TypeSavingsDeposited       = "savings.deposited"
	TypeSavingsWithdrawn       = "savings.withdrawn"
	TypeSavingsParameterSet    = "savings.parameterSet"
	TypeSavingsPaused          = "savings.paused"
	TypeSavingsUnpaused        = "savings.unpaused"
	TypeSavingsBadgeMinted     = "savings.badgeMinted"
	TypeSavingsBadgeMintFailed = "savings.badgeMintFailed"
)

// SavingsDeposited is emitted after a deposit settles into custody.
type SavingsDeposited struct {
	Owner      crypto.Address
	Amount     *big.Int
	LockPeriod uint64
	Unlock     uint64
	Height     uint64
}

func (SavingsDeposited) EventType() string { return TypeSavingsDeposited }

func (e SavingsDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeSavingsDeposited,
		Attributes: map[string]string{
			"owner":        e.Owner.String(),
			"amount":       formatAmount(e.Amount),
			"lockPeriod":   strconv.FormatUint(e.LockPeriod, 10),
			"unlockHeight": strconv.FormatUint(e.Unlock, 10),
			"height":       strconv.FormatUint(e.Height, 10),
		},
	}
}

// SavingsWithdrawn is emitted after a withdrawal settles, mature or early.
type SavingsWithdrawn struct {
	Owner        crypto.Address
	Withdrawn    *big.Int
	Penalty      *big.Int
	Early        bool
	EarnedPoints uint64
	Height       uint64
}

func (SavingsWithdrawn) EventType() string { return TypeSavingsWithdrawn }

func (e SavingsWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeSavingsWithdrawn,
		Attributes: map[string]string{
			"owner":        e.Owner.String(),
			"withdrawn":    formatAmount(e.Withdrawn),
			"penalty":      formatAmount(e.Penalty),
			"early":        strconv.FormatBool(e.Early),
			"earnedPoints": strconv.FormatUint(e.EarnedPoints, 10),
			"height":       strconv.FormatUint(e.Height, 10),
		},
	}
}

// SavingsParameterSet is emitted whenever an admin commits a parameter change.
type SavingsParameterSet struct {
	Name     string
	OldValue string
	NewValue string
	Version  uint64
	Height   uint64
}

func (SavingsParameterSet) EventType() string { return TypeSavingsParameterSet }

func (e SavingsParameterSet) Event() *types.Event {
	return &types.Event{
		Type: TypeSavingsParameterSet,
		Attributes: map[string]string{
			"name":     e.Name,
			"oldValue": e.OldValue,
			"newValue": e.NewValue,
			"version":  strconv.FormatUint(e.Version, 10),
			"height":   strconv.FormatUint(e.Height, 10),
		},
	}
}

// SavingsPauseToggled is emitted when the admin pauses or unpauses deposits.
type SavingsPauseToggled struct {
	Paused bool
	Height uint64
}

func (e SavingsPauseToggled) EventType() string {
	if e.Paused {
		return TypeSavingsPaused
	}
	return TypeSavingsUnpaused
}

func (e SavingsPauseToggled) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"height": strconv.FormatUint(e.Height, 10),
		},
	}
}

// SavingsBadgeMinted records an opportunistic certificate mint after a
// qualifying withdrawal.
type SavingsBadgeMinted struct {
	Owner   crypto.Address
	TokenID uint64
	Points  uint64
	Height  uint64
}

func (SavingsBadgeMinted) EventType() string { return TypeSavingsBadgeMinted }

func (e SavingsBadgeMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeSavingsBadgeMinted,
		Attributes: map[string]string{
			"owner":   e.Owner.String(),
			"tokenId": strconv.FormatUint(e.TokenID, 10),
			"points":  strconv.FormatUint(e.Points, 10),
			"height":  strconv.FormatUint(e.Height, 10),
		},
	}
}

// SavingsBadgeMintFailed records a collaborator mint failure. The withdrawal
// that triggered the mint has already committed and is not unwound.
type SavingsBadgeMintFailed struct {
	Owner  crypto.Address
	Points uint64
	Reason string
	Height uint64
}

func (SavingsBadgeMintFailed) EventType() string { return TypeSavingsBadgeMintFailed }

func (e SavingsBadgeMintFailed) Event() *types.Event {
	return &types.Event{
		Type: TypeSavingsBadgeMintFailed,
		Attributes: map[string]string{
			"owner":  e.Owner.String(),
			"points": strconv.FormatUint(e.Points, 10),
			"reason": e.Reason,
			"height": strconv.FormatUint(e.Height, 10),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
