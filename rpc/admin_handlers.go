package rpc

import (
	"math/big"
	"net/http"
)

func (s *Server) adminCall(w http.ResponseWriter, req *RPCRequest, caller string, fn func() (interface{}, error)) {
	if _, err := parseAddress(caller); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	var result interface{}
	err := s.settle(func() error {
		var callErr error
		result, callErr = fn()
		return callErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleSetRewardRate(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetRewardRate(caller, params.Value)
	})
}

func (s *Server) handleSetMinimumDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params adminAmountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetMinimumDeposit(caller, params.Value)
	})
}

func (s *Server) handleSetMaxDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params adminAmountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetMaxDepositPerUser(caller, params.Value)
	})
}

func (s *Server) handleSetPenalty(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetEarlyWithdrawPenalty(caller, params.Value)
	})
}

func (s *Server) handleSetCooldown(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetWithdrawCooldown(caller, params.Value)
	})
}

func (s *Server) handleSetCompoundFrequency(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetCompoundFrequency(caller, params.Value)
	})
}

func (s *Server) handleSetStreakWindow(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.engine.SetStreakWindow(caller, params.Value)
	})
}

func (s *Server) handleSetStrictLock(w http.ResponseWriter, req *RPCRequest) {
	var params adminBoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return params.Value, s.engine.SetStrictLock(caller, params.Value)
	})
}

func (s *Server) handleSetMultiplierTiers(w http.ResponseWriter, req *RPCRequest) {
	var params adminTiersParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return len(params.Tiers), s.engine.SetMultiplierTiers(caller, params.Tiers)
	})
}

func (s *Server) handlePause(w http.ResponseWriter, req *RPCRequest) {
	var params adminCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return true, s.engine.Pause(caller)
	})
}

func (s *Server) handleUnpause(w http.ResponseWriter, req *RPCRequest) {
	var params adminCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return false, s.engine.Unpause(caller)
	})
}

// --- collaborator registries ---

type referralRegisterParams struct {
	User     string `json:"user"`
	Referrer string `json:"referrer"`
}

func (s *Server) handleReferralRegister(w http.ResponseWriter, req *RPCRequest) {
	var params referralRegisterParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	user, err := parseAddress(params.User)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid user address", nil)
		return
	}
	referrer, err := parseAddress(params.Referrer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid referrer address", nil)
		return
	}
	err = s.settle(func() error {
		return s.referral.RegisterReferral(user, referrer)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleReferralGet(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	user, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", nil)
		return
	}
	var result interface{}
	err = s.view(func() error {
		referrer, found, lookupErr := s.referral.GetReferrer(user)
		if lookupErr != nil {
			return lookupErr
		}
		if found {
			result = referrer.String()
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleReferralBonusRate(w http.ResponseWriter, req *RPCRequest) {
	var rate uint64
	err := s.view(func() error {
		var lookupErr error
		rate, lookupErr = s.referral.BonusRate()
		return lookupErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, rate)
}

type calculateBonusParams struct {
	Amount *big.Int `json:"amount"`
}

func (s *Server) handleReferralCalculateBonus(w http.ResponseWriter, req *RPCRequest) {
	var params calculateBonusParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var bonus *big.Int
	err := s.view(func() error {
		var calcErr error
		bonus, calcErr = s.referral.CalculateBonus(params.Amount)
		return calcErr
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, bonus)
}

func (s *Server) handleReferralSetBonusRate(w http.ResponseWriter, req *RPCRequest) {
	var params adminUintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	s.adminCall(w, req, params.Caller, func() (interface{}, error) {
		caller, _ := parseAddress(params.Caller)
		return s.referral.SetBonusRate(caller, params.Value)
	})
}

type badgeTokenParams struct {
	TokenID uint64 `json:"tokenId"`
}

type badgeTransferParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	To      string `json:"to"`
}

func (s *Server) handleBadgeGet(w http.ResponseWriter, req *RPCRequest) {
	var params badgeTokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var result interface{}
	err := s.view(func() error {
		cert, lookupErr := s.badges.Get(params.TokenID)
		if lookupErr != nil {
			return lookupErr
		}
		result = map[string]interface{}{
			"tokenId":  cert.TokenID,
			"metadata": cert.Metadata,
			"mintedAt": cert.MintedAt,
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleBadgeOwnerOf(w http.ResponseWriter, req *RPCRequest) {
	var params badgeTokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	var owner string
	err := s.view(func() error {
		addr, lookupErr := s.badges.OwnerOf(params.TokenID)
		if lookupErr != nil {
			return lookupErr
		}
		owner = addr.String()
		return nil
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, owner)
}

func (s *Server) handleBadgeTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params badgeTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", nil)
		return
	}
	err = s.settle(func() error {
		return s.badges.Transfer(caller, params.TokenID, to)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleBadgeBurn(w http.ResponseWriter, req *RPCRequest) {
	var params badgeTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	err = s.settle(func() error {
		return s.badges.Burn(caller, params.TokenID)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type badgeMinterParams struct {
	Caller string `json:"caller"`
	Minter string `json:"minter"`
}

func (s *Server) handleBadgeSetMinter(w http.ResponseWriter, req *RPCRequest) {
	var params badgeMinterParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	minter, err := parseAddress(params.Minter)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid minter address", nil)
		return
	}
	err = s.settle(func() error {
		return s.badges.SetAuthorizedMinter(caller, minter)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type upgradeEnableParams struct {
	Caller     string `json:"caller"`
	NewAddress string `json:"newAddress"`
}

func (s *Server) handleUpgradeEnable(w http.ResponseWriter, req *RPCRequest) {
	var params upgradeEnableParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	newAddr, err := parseAddress(params.NewAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid new address", nil)
		return
	}
	err = s.settle(func() error {
		return s.upgrade.EnableUpgrade(caller, newAddr)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleUpgradeDisable(w http.ResponseWriter, req *RPCRequest) {
	var params adminCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", nil)
		return
	}
	err = s.settle(func() error {
		return s.upgrade.DisableUpgrade(caller)
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleUpgradeStatus(w http.ResponseWriter, req *RPCRequest) {
	var result map[string]interface{}
	err := s.view(func() error {
		enabled, statusErr := s.upgrade.IsEnabled()
		if statusErr != nil {
			return statusErr
		}
		result = map[string]interface{}{"enabled": enabled}
		if enabled {
			addr, found, addrErr := s.upgrade.NewAddress()
			if addrErr != nil {
				return addrErr
			}
			if found {
				result["newAddress"] = addr.String()
			}
		}
		return nil
	})
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, result)
}
