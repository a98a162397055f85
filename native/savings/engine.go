package savings

import (
	"errors"
	"math"
	"math/big"
	"strings"

	"nestchain/core/events"
	"nestchain/crypto"
	nativecommon "nestchain/native/common"
)

var (
	errNilState = errors.New("savings engine: state not configured")
)

const moduleName = "savings"

// BadgeMinter is the collaborator contract invoked opportunistically after a
// qualifying withdrawal. Mint failures are isolated: the withdrawal that
// triggered them has already committed.
type BadgeMinter interface {
	Mint(recipient crypto.Address, metadata string) (uint64, error)
}

// Engine orchestrates the savings ledger state transitions: deposit admission,
// withdrawal settlement and the reputation/audit bookkeeping around them.
type Engine struct {
	state          engineState
	emitter        events.Emitter
	custody        crypto.Address
	admin          crypto.Address
	badge          BadgeMinter
	badgeThreshold uint64
	blockHeight    uint64
	historyCap     uint32
	eventCap       uint32
	rateCap        uint32
	pauses         nativecommon.PauseView
}

// NewEngine constructs a savings engine bound to the module custody address
// and the admin principal allowed to tune parameters.
func NewEngine(custody, admin crypto.Address) *Engine {
	return &Engine{
		custody:    custody,
		admin:      admin,
		emitter:    events.NoopEmitter{},
		historyCap: DefaultDepositHistoryCap,
		eventCap:   DefaultEventLogCap,
		rateCap:    DefaultRateHistoryCap,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetBlockHeight records the height used for lock, cooldown and audit
// bookkeeping. The environment advances it; the engine never reads a clock.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// BlockHeight returns the height the engine currently settles against.
func (e *Engine) BlockHeight() uint64 {
	if e == nil {
		return 0
	}
	return e.blockHeight
}

// SetBadgeMinter wires the badge collaborator and the points threshold that
// triggers an opportunistic mint.
func (e *Engine) SetBadgeMinter(minter BadgeMinter, threshold uint64) {
	if e == nil {
		return
	}
	e.badge = minter
	e.badgeThreshold = threshold
}

// SetPauses wires the operator-level module pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogCapacities overrides the audit log ring capacities. Zero values keep
// the defaults. Capacities apply to rings created after the call.
func (e *Engine) SetLogCapacities(history, event, rate uint32) {
	if e == nil {
		return
	}
	if history > 0 {
		e.historyCap = history
	}
	if event > 0 {
		e.eventCap = event
	}
	if rate > 0 {
		e.rateCap = rate
	}
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func ownerID(addr crypto.Address) [20]byte {
	var id [20]byte
	copy(id[:], addr.Bytes())
	return id
}

func ownerAddress(id [20]byte) crypto.Address {
	return crypto.NewAddress(crypto.NestPrefix, id[:])
}

// --- record loading helpers ---

func (e *Engine) loadParameters() (*Parameters, error) {
	params := &Parameters{}
	ok, err := e.state.KVGet(paramsKey, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultParameters(), nil
	}
	return params.Normalize(), nil
}

func (e *Engine) storeParameters(params *Parameters) error {
	return e.state.KVPut(paramsKey, params)
}

func (e *Engine) loadSavings(owner [20]byte) (*Account, bool, error) {
	account := &Account{}
	ok, err := e.state.KVGet(accountKey(owner), account)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if account.Amount == nil {
		account.Amount = big.NewInt(0)
	}
	return account, true, nil
}

func (e *Engine) loadReputation(owner [20]byte) (*Reputation, bool, error) {
	rep := &Reputation{}
	ok, err := e.state.KVGet(reputationKey(owner), rep)
	if err != nil {
		return nil, false, err
	}
	return rep, ok, nil
}

func (e *Engine) loadActivity(owner [20]byte) (*activity, error) {
	act := &activity{}
	if _, err := e.state.KVGet(activityKey(owner), act); err != nil {
		return nil, err
	}
	return act, nil
}

func (e *Engine) loadHistory(owner [20]byte) (*DepositLog, error) {
	log := &DepositLog{}
	ok, err := e.state.KVGet(historyKey(owner), log)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newDepositLog(e.historyCap), nil
	}
	return log, nil
}

func (e *Engine) loadEventLog() (*EventLog, error) {
	log := &EventLog{}
	ok, err := e.state.KVGet(eventLogKey, log)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newEventLog(e.eventCap), nil
	}
	return log, nil
}

func (e *Engine) loadRateLog() (*RateLog, error) {
	log := &RateLog{}
	ok, err := e.state.KVGet(rateLogKey, log)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newRateLog(e.rateCap), nil
	}
	return log, nil
}

func (e *Engine) appendEvent(record EventRecord) error {
	log, err := e.loadEventLog()
	if err != nil {
		return err
	}
	log.Append(record)
	return e.state.KVPut(eventLogKey, log)
}

// --- deposits ---

// Deposit locks amount from the caller's balance for lockPeriod blocks. A
// lock period of zero makes the deposit immediately withdrawable without
// penalty.
func (e *Engine) Deposit(caller crypto.Address, amount *big.Int, lockPeriod uint64) (*Account, error) {
	return e.deposit(caller, amount, lockPeriod, nil)
}

// DepositWithGoal behaves like Deposit and additionally attaches a savings
// goal. Goal progress is always derived from the live amount at read time.
func (e *Engine) DepositWithGoal(caller crypto.Address, amount *big.Int, lockPeriod uint64, goalAmount *big.Int, description string) (*Account, error) {
	if goalAmount == nil || goalAmount.Sign() <= 0 {
		return nil, ErrInvalidGoal
	}
	goal := &Goal{
		Amount:      new(big.Int).Set(goalAmount),
		Description: strings.TrimSpace(description),
	}
	return e.deposit(caller, amount, lockPeriod, goal)
}

func (e *Engine) deposit(caller crypto.Address, amount *big.Int, lockPeriod uint64, goal *Goal) (*Account, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	params, err := e.loadParameters()
	if err != nil {
		return nil, err
	}
	if params.Paused {
		return nil, ErrPaused
	}

	owner := ownerID(caller)
	existing, found, err := e.loadSavings(owner)
	if err != nil {
		return nil, err
	}
	if found && !existing.Claimed {
		return nil, ErrActiveDeposit
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount.Cmp(params.MinimumDeposit) < 0 {
		return nil, ErrBelowMinimum
	}
	if amount.Cmp(params.MaxDepositPerUser) > 0 {
		return nil, ErrAboveMaximum
	}
	if lockPeriod > math.MaxUint64-e.blockHeight {
		return nil, ErrInvalidParameter
	}

	callerAcc, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if callerAcc.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	custodyAcc, err := e.state.GetAccount(e.custody)
	if err != nil {
		return nil, err
	}

	// All preconditions hold; move funds into custody and write the record.
	callerAcc.Balance = new(big.Int).Sub(callerAcc.Balance, amount)
	custodyAcc.Balance = new(big.Int).Add(custodyAcc.Balance, amount)
	if err := e.state.PutAccount(caller, callerAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.custody, custodyAcc); err != nil {
		return nil, err
	}

	account := &Account{
		Owner:         owner,
		Amount:        new(big.Int).Set(amount),
		DepositHeight: e.blockHeight,
		UnlockHeight:  e.blockHeight + lockPeriod,
		Goal:          goal,
	}
	if err := e.state.KVPut(accountKey(owner), account); err != nil {
		return nil, err
	}

	history, err := e.loadHistory(owner)
	if err != nil {
		return nil, err
	}
	history.Append(DepositRecord{
		Amount:     new(big.Int).Set(amount),
		LockPeriod: lockPeriod,
		Height:     e.blockHeight,
	})
	if err := e.state.KVPut(historyKey(owner), history); err != nil {
		return nil, err
	}

	evt := events.SavingsDeposited{
		Owner:      caller,
		Amount:     new(big.Int).Set(amount),
		LockPeriod: lockPeriod,
		Unlock:     account.UnlockHeight,
		Height:     e.blockHeight,
	}
	if err := e.appendEvent(eventToRecord(evt.Event(), e.blockHeight)); err != nil {
		return nil, err
	}
	e.emit(evt)

	return account.Clone(), nil
}

// --- withdrawal ---

// Withdraw settles the caller's deposit. At or after the unlock height the
// full amount returns with reward points and a streak increment; before it,
// either the penalty policy applies or, under strict lock, the call is
// rejected outright.
func (e *Engine) Withdraw(caller crypto.Address) (*WithdrawReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	params, err := e.loadParameters()
	if err != nil {
		return nil, err
	}

	owner := ownerID(caller)
	account, found, err := e.loadSavings(owner)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoDeposit
	}
	if account.Claimed {
		return nil, ErrAlreadyWithdrawn
	}

	act, err := e.loadActivity(owner)
	if err != nil {
		return nil, err
	}
	if act.WithdrawCount > 0 && e.blockHeight < act.LastWithdrawHeight+params.WithdrawCooldown {
		return nil, ErrCooldownActive
	}

	mature := e.blockHeight >= account.UnlockHeight
	if !mature && params.StrictLock {
		return nil, ErrLockActive
	}

	rep, hasRep, err := e.loadReputation(owner)
	if err != nil {
		return nil, err
	}

	receipt := &WithdrawReceipt{Penalty: big.NewInt(0)}
	if mature {
		lockPeriod := account.UnlockHeight - account.DepositHeight
		points, err := rewardPoints(account.Amount, params.RewardRate, tierFor(params.MultiplierTiers, lockPeriod))
		if err != nil {
			return nil, err
		}
		if rep.Points > math.MaxUint64-points {
			return nil, ErrPointsOverflow
		}
		receipt.Withdrawn = new(big.Int).Set(account.Amount)
		receipt.EarnedPoints = points

		pointsBefore := rep.Points
		rep.Points += points
		if e.streakBroken(params, act, account) {
			rep.CurrentStreak = 1
		} else {
			rep.CurrentStreak++
		}
		if rep.CurrentStreak > rep.LongestStreak {
			rep.LongestStreak = rep.CurrentStreak
		}
		rep.LastActivityHeight = e.blockHeight
		if err := e.state.KVPut(reputationKey(owner), rep); err != nil {
			return nil, err
		}
		if err := e.maybeMintBadge(caller, pointsBefore, rep.Points); err != nil {
			return nil, err
		}
	} else {
		receipt.Early = true
		receipt.Penalty = penaltyAmount(account.Amount, params.EarlyWithdrawPenalty)
		receipt.Withdrawn = new(big.Int).Sub(account.Amount, receipt.Penalty)
		// Breaking the streak only touches an existing reputation record;
		// early exits never create one.
		if hasRep {
			rep.CurrentStreak = 0
			rep.LastActivityHeight = e.blockHeight
			if err := e.state.KVPut(reputationKey(owner), rep); err != nil {
				return nil, err
			}
		}
	}

	account.Claimed = true
	if err := e.state.KVPut(accountKey(owner), account); err != nil {
		return nil, err
	}

	act.LastWithdrawHeight = e.blockHeight
	act.WithdrawCount++
	if err := e.state.KVPut(activityKey(owner), act); err != nil {
		return nil, err
	}

	// The penalty stays in module custody; only the net withdrawn amount
	// moves back to the caller.
	custodyAcc, err := e.state.GetAccount(e.custody)
	if err != nil {
		return nil, err
	}
	callerAcc, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	custodyAcc.Balance = new(big.Int).Sub(custodyAcc.Balance, receipt.Withdrawn)
	callerAcc.Balance = new(big.Int).Add(callerAcc.Balance, receipt.Withdrawn)
	if err := e.state.PutAccount(e.custody, custodyAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(caller, callerAcc); err != nil {
		return nil, err
	}

	evt := events.SavingsWithdrawn{
		Owner:        caller,
		Withdrawn:    new(big.Int).Set(receipt.Withdrawn),
		Penalty:      new(big.Int).Set(receipt.Penalty),
		Early:        receipt.Early,
		EarnedPoints: receipt.EarnedPoints,
		Height:       e.blockHeight,
	}
	if err := e.appendEvent(eventToRecord(evt.Event(), e.blockHeight)); err != nil {
		return nil, err
	}
	e.emit(evt)

	return receipt, nil
}

// streakBroken reports whether the gap between the caller's previous claim and
// the current cycle's deposit exceeded the continuity window. A zero window
// disables the check.
func (e *Engine) streakBroken(params *Parameters, act *activity, account *Account) bool {
	if params.StreakWindow == 0 || act.WithdrawCount == 0 {
		return false
	}
	if account.DepositHeight < act.LastWithdrawHeight {
		return false
	}
	return account.DepositHeight-act.LastWithdrawHeight > params.StreakWindow
}

// maybeMintBadge invokes the badge collaborator when points cross the
// threshold. The mint is opportunistic: a collaborator failure is logged as an
// event and never unwinds the withdrawal.
func (e *Engine) maybeMintBadge(recipient crypto.Address, before, after uint64) error {
	if e.badge == nil || e.badgeThreshold == 0 {
		return nil
	}
	if before >= e.badgeThreshold || after < e.badgeThreshold {
		return nil
	}
	tokenID, err := e.badge.Mint(recipient, "savings-milestone")
	if err != nil {
		failed := events.SavingsBadgeMintFailed{
			Owner:  recipient,
			Points: after,
			Reason: err.Error(),
			Height: e.blockHeight,
		}
		if appendErr := e.appendEvent(eventToRecord(failed.Event(), e.blockHeight)); appendErr != nil {
			return appendErr
		}
		e.emit(failed)
		return nil
	}
	minted := events.SavingsBadgeMinted{
		Owner:   recipient,
		TokenID: tokenID,
		Points:  after,
		Height:  e.blockHeight,
	}
	if err := e.appendEvent(eventToRecord(minted.Event(), e.blockHeight)); err != nil {
		return err
	}
	e.emit(minted)
	return nil
}
