package rpc

import (
	"encoding/json"
	"math/big"

	"nestchain/native/savings"
)

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type depositParams struct {
	Caller      string   `json:"caller"`
	Amount      *big.Int `json:"amount"`
	LockPeriod  uint64   `json:"lockPeriod"`
	GoalAmount  *big.Int `json:"goalAmount,omitempty"`
	Description string   `json:"description,omitempty"`
}

type addressParams struct {
	Address string `json:"address"`
}

type batchParams struct {
	Addresses []string `json:"addresses"`
}

type limitParams struct {
	Limit int `json:"limit"`
}

type historyParams struct {
	Address string `json:"address"`
	Limit   int    `json:"limit"`
}

type projectionParams struct {
	Amount *big.Int `json:"amount"`
	Years  uint64   `json:"years"`
}

type adminUintParams struct {
	Caller string `json:"caller"`
	Value  uint64 `json:"value"`
}

type adminAmountParams struct {
	Caller string   `json:"caller"`
	Value  *big.Int `json:"value"`
}

type adminBoolParams struct {
	Caller string `json:"caller"`
	Value  bool   `json:"value"`
}

type adminTiersParams struct {
	Caller string                   `json:"caller"`
	Tiers  []savings.MultiplierTier `json:"tiers"`
}

type adminCallerParams struct {
	Caller string `json:"caller"`
}

type savingsResult struct {
	Owner         string   `json:"owner"`
	Amount        *big.Int `json:"amount"`
	DepositHeight uint64   `json:"depositHeight"`
	UnlockHeight  uint64   `json:"unlockHeight"`
	Claimed       bool     `json:"claimed"`
	GoalAmount    *big.Int `json:"goalAmount,omitempty"`
	GoalProgress  uint64   `json:"goalProgress,omitempty"`
	GoalNote      string   `json:"goalNote,omitempty"`
}

type withdrawResult struct {
	Withdrawn    *big.Int `json:"withdrawn"`
	Penalty      *big.Int `json:"penalty"`
	Early        bool     `json:"early"`
	EarnedPoints uint64   `json:"earnedPoints"`
}

type reputationResult struct {
	Points             uint64 `json:"points"`
	CurrentStreak      uint64 `json:"currentStreak"`
	LongestStreak      uint64 `json:"longestStreak"`
	LastActivityHeight uint64 `json:"lastActivityHeight"`
}

type depositHistoryResult struct {
	Entries []depositEntryResult `json:"entries"`
	Total   uint64               `json:"total"`
}

type depositEntryResult struct {
	Amount     *big.Int `json:"amount"`
	LockPeriod uint64   `json:"lockPeriod"`
	Height     uint64   `json:"height"`
}

type eventsResult struct {
	Entries []eventEntryResult `json:"entries"`
	Total   uint64             `json:"total"`
}

type eventEntryResult struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
	Height  uint64 `json:"height"`
}

type rateHistoryResult struct {
	Entries []rateEntryResult `json:"entries"`
	Total   uint64            `json:"total"`
}

type rateEntryResult struct {
	OldRate uint64 `json:"oldRate"`
	NewRate uint64 `json:"newRate"`
	Height  uint64 `json:"height"`
}

func savingsToResult(account *savings.Account, owner string) *savingsResult {
	if account == nil {
		return nil
	}
	result := &savingsResult{
		Owner:         owner,
		Amount:        account.Amount,
		DepositHeight: account.DepositHeight,
		UnlockHeight:  account.UnlockHeight,
		Claimed:       account.Claimed,
	}
	if account.Goal != nil {
		result.GoalAmount = account.Goal.Amount
		result.GoalNote = account.Goal.Description
		if progress, ok := account.GoalProgress(); ok {
			result.GoalProgress = progress
		}
	}
	return result
}
