package rpc

import (
	"errors"
	"math/big"
	"net/http"

	"nestchain/crypto"
	"nestchain/native/badge"
	"nestchain/native/referral"
	"nestchain/native/savings"
	"nestchain/native/upgrade"
)

// settle runs fn as one serialized settlement call, advancing the ledger
// height by one block slot first.
func (s *Server) settle(fn func() error) error {
	return s.manager.Settle(func() error {
		height, err := s.manager.AdvanceHeight()
		if err != nil {
			return err
		}
		s.engine.SetBlockHeight(height)
		s.badges.SetBlockHeight(height)
		return fn()
	})
}

// view runs fn serialized against the current height without advancing it.
func (s *Server) view(fn func() error) error {
	return s.manager.Settle(func() error {
		height, err := s.manager.CurrentHeight()
		if err != nil {
			return err
		}
		s.engine.SetBlockHeight(height)
		return fn()
	})
}

func errorCode(err error) (int, int) {
	switch {
	case errors.Is(err, savings.ErrNotAuthorized),
		errors.Is(err, badge.ErrNotAuthorized),
		errors.Is(err, referral.ErrNotAuthorized),
		errors.Is(err, upgrade.ErrNotAuthorized):
		return http.StatusForbidden, codeUnauthorized
	case errors.Is(err, savings.ErrInvalidAmount),
		errors.Is(err, savings.ErrBelowMinimum),
		errors.Is(err, savings.ErrAboveMaximum),
		errors.Is(err, savings.ErrInvalidGoal),
		errors.Is(err, savings.ErrInvalidParameter),
		errors.Is(err, savings.ErrPointsOverflow),
		errors.Is(err, referral.ErrInvalidRate):
		return http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, savings.ErrPaused),
		errors.Is(err, savings.ErrActiveDeposit),
		errors.Is(err, savings.ErrNoDeposit),
		errors.Is(err, savings.ErrAlreadyWithdrawn),
		errors.Is(err, savings.ErrCooldownActive),
		errors.Is(err, savings.ErrLockActive),
		errors.Is(err, savings.ErrInsufficientBalance),
		errors.Is(err, referral.ErrSelfReferral),
		errors.Is(err, referral.ErrAlreadyRegistered),
		errors.Is(err, badge.ErrNotTokenOwner),
		errors.Is(err, badge.ErrTokenNotFound):
		return http.StatusConflict, codeServerError
	default:
		return http.StatusInternalServerError, codeServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status, code := errorCode(err)
	writeError(w, status, id, code, err.Error(), nil)
}

func parseAddress(raw string) (crypto.Address, error) {
	return crypto.DecodeAddress(raw)
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid deposit params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	var account *savings.Account
	err = s.settle(func() error {
		var depositErr error
		account, depositErr = s.engine.Deposit(caller, params.Amount, params.LockPeriod)
		return depositErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, savingsToResult(account, params.Caller))
}

func (s *Server) handleDepositWithGoal(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid deposit params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	var account *savings.Account
	err = s.settle(func() error {
		var depositErr error
		account, depositErr = s.engine.DepositWithGoal(caller, params.Amount, params.LockPeriod, params.GoalAmount, params.Description)
		return depositErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, savingsToResult(account, params.Caller))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params adminCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid withdraw params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	var receipt *savings.WithdrawReceipt
	err = s.settle(func() error {
		var withdrawErr error
		receipt, withdrawErr = s.engine.Withdraw(caller)
		return withdrawErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &withdrawResult{
		Withdrawn:    receipt.Withdrawn,
		Penalty:      receipt.Penalty,
		Early:        receipt.Early,
		EarnedPoints: receipt.EarnedPoints,
	})
}

func (s *Server) handleGetSavings(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	owner, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	var account *savings.Account
	var found bool
	err = s.view(func() error {
		var queryErr error
		account, found, queryErr = s.engine.GetSavings(owner)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	if !found {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, savingsToResult(account, params.Address))
}

func (s *Server) handleBatchGetSavings(w http.ResponseWriter, req *RPCRequest) {
	var params batchParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	owners := make([]crypto.Address, 0, len(params.Addresses))
	for _, raw := range params.Addresses {
		owner, err := parseAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address "+raw, nil)
			return
		}
		owners = append(owners, owner)
	}
	var accounts []*savings.Account
	err := s.view(func() error {
		var queryErr error
		accounts, queryErr = s.engine.BatchGetSavings(owners)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	results := make([]*savingsResult, len(accounts))
	for i, account := range accounts {
		if account != nil {
			results[i] = savingsToResult(account, params.Addresses[i])
		}
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleGetReputation(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	owner, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	var rep *savings.Reputation
	err = s.view(func() error {
		var queryErr error
		rep, queryErr = s.engine.GetReputation(owner)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &reputationResult{
		Points:             rep.Points,
		CurrentStreak:      rep.CurrentStreak,
		LongestStreak:      rep.LongestStreak,
		LastActivityHeight: rep.LastActivityHeight,
	})
}

func (s *Server) handleGetDepositHistory(w http.ResponseWriter, req *RPCRequest) {
	var params historyParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	owner, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	var entries []savings.DepositRecord
	var total uint64
	err = s.view(func() error {
		var queryErr error
		entries, total, queryErr = s.engine.GetDepositHistory(owner, params.Limit)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	result := &depositHistoryResult{Total: total, Entries: make([]depositEntryResult, 0, len(entries))}
	for _, entry := range entries {
		result.Entries = append(result.Entries, depositEntryResult{
			Amount:     entry.Amount,
			LockPeriod: entry.LockPeriod,
			Height:     entry.Height,
		})
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	var params limitParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var entries []savings.EventRecord
	var total uint64
	err := s.view(func() error {
		var queryErr error
		entries, total, queryErr = s.engine.GetEvents(params.Limit)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	result := &eventsResult{Total: total, Entries: make([]eventEntryResult, 0, len(entries))}
	for _, entry := range entries {
		result.Entries = append(result.Entries, eventEntryResult{
			Kind:    entry.Kind,
			Payload: entry.Payload,
			Height:  entry.Height,
		})
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetRateHistory(w http.ResponseWriter, req *RPCRequest) {
	var params limitParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var entries []savings.RateChange
	var total uint64
	err := s.view(func() error {
		var queryErr error
		entries, total, queryErr = s.engine.GetRateHistory(params.Limit)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	result := &rateHistoryResult{Total: total, Entries: make([]rateEntryResult, 0, len(entries))}
	for _, entry := range entries {
		result.Entries = append(result.Entries, rateEntryResult{
			OldRate: entry.OldRate,
			NewRate: entry.NewRate,
			Height:  entry.Height,
		})
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleGetParameters(w http.ResponseWriter, req *RPCRequest) {
	var params *savings.Parameters
	err := s.view(func() error {
		var queryErr error
		params, queryErr = s.engine.GetParameters()
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, params)
}

func (s *Server) handleCooldownRemaining(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	owner, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	var remaining uint64
	err = s.view(func() error {
		var queryErr error
		remaining, queryErr = s.engine.GetCooldownRemaining(owner)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"remaining": remaining})
}

func (s *Server) handleProjectYield(w http.ResponseWriter, req *RPCRequest) {
	var params projectionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var projected *big.Int
	err := s.view(func() error {
		var queryErr error
		projected, queryErr = s.engine.ProjectYield(params.Amount, params.Years)
		return queryErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]*big.Int{"projected": projected})
}
