package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"nestchain/core/state"
	"nestchain/native/badge"
	"nestchain/native/referral"
	"nestchain/native/savings"
	"nestchain/native/upgrade"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Server exposes the ledger's read and write surface over JSON-RPC. Settlement
// calls run serialized through the state manager; every write advances the
// ledger height by one before executing.
type Server struct {
	manager  *state.Manager
	engine   *savings.Engine
	badges   *badge.Registry
	referral *referral.Registry
	upgrade  *upgrade.Registry

	log       *slog.Logger
	metrics   *metrics
	authToken string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer wires the RPC surface. The admin auth token is read from
// NEST_RPC_TOKEN; when unset, admin methods are refused.
func NewServer(manager *state.Manager, engine *savings.Engine, badges *badge.Registry, referrals *referral.Registry, upgrades *upgrade.Registry, log *slog.Logger, reg prometheus.Registerer) *Server {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		manager:   manager,
		engine:    engine,
		badges:    badges,
		referral:  referrals,
		upgrade:   upgrades,
		log:       log,
		metrics:   newMetrics(reg),
		authToken: strings.TrimSpace(os.Getenv("NEST_RPC_TOKEN")),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/", s.handle)
	return r
}

// Start serves the router until the listener fails.
func (s *Server) Start(addr string, gatherer prometheus.Gatherer) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, s.Router(gatherer))
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(remote string) *rate.Limiter {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(20), 40)
		s.limiters[host] = limiter
	}
	return limiter
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeResult encodes a success response. A success response always carries
// the result member, so a nil result is written as an explicit JSON null.
func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	if result == nil {
		result = json.RawMessage("null")
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.limiterFor(r.RemoteAddr).Allow() {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", nil)
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.methods()[method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+method, nil)
		return
	}
	if handler.admin && !s.authorized(r) {
		s.metrics.observe(method, "unauthorized", 0)
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "admin token required", nil)
		return
	}

	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	handler.fn(rec, &req)
	outcome := "ok"
	if rec.status >= http.StatusBadRequest {
		outcome = "error"
	}
	s.metrics.observe(method, outcome, time.Since(started).Seconds())
}

// statusRecorder captures the status a handler wrote so the request counter's
// outcome label reflects error responses.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type methodHandler struct {
	fn    func(http.ResponseWriter, *RPCRequest)
	admin bool
}

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"savings_deposit":            {fn: s.handleDeposit},
		"savings_depositWithGoal":    {fn: s.handleDepositWithGoal},
		"savings_withdraw":           {fn: s.handleWithdraw},
		"savings_getSavings":         {fn: s.handleGetSavings},
		"savings_batchGetSavings":    {fn: s.handleBatchGetSavings},
		"savings_getReputation":      {fn: s.handleGetReputation},
		"savings_getDepositHistory":  {fn: s.handleGetDepositHistory},
		"savings_getEvents":          {fn: s.handleGetEvents},
		"savings_getRateHistory":     {fn: s.handleGetRateHistory},
		"savings_getParameters":      {fn: s.handleGetParameters},
		"savings_cooldownRemaining":  {fn: s.handleCooldownRemaining},
		"savings_projectYield":       {fn: s.handleProjectYield},
		"savings_setRewardRate":      {fn: s.handleSetRewardRate, admin: true},
		"savings_setMinimumDeposit":  {fn: s.handleSetMinimumDeposit, admin: true},
		"savings_setMaxDeposit":      {fn: s.handleSetMaxDeposit, admin: true},
		"savings_setPenalty":         {fn: s.handleSetPenalty, admin: true},
		"savings_setCooldown":        {fn: s.handleSetCooldown, admin: true},
		"savings_setCompoundFreq":    {fn: s.handleSetCompoundFrequency, admin: true},
		"savings_setStreakWindow":    {fn: s.handleSetStreakWindow, admin: true},
		"savings_setStrictLock":      {fn: s.handleSetStrictLock, admin: true},
		"savings_setMultiplierTiers": {fn: s.handleSetMultiplierTiers, admin: true},
		"savings_pause":              {fn: s.handlePause, admin: true},
		"savings_unpause":            {fn: s.handleUnpause, admin: true},
		"referral_register":          {fn: s.handleReferralRegister},
		"referral_getReferrer":       {fn: s.handleReferralGet},
		"referral_bonusRate":         {fn: s.handleReferralBonusRate},
		"referral_calculateBonus":    {fn: s.handleReferralCalculateBonus},
		"referral_setBonusRate":      {fn: s.handleReferralSetBonusRate, admin: true},
		"badge_get":                  {fn: s.handleBadgeGet},
		"badge_ownerOf":              {fn: s.handleBadgeOwnerOf},
		"badge_transfer":             {fn: s.handleBadgeTransfer},
		"badge_burn":                 {fn: s.handleBadgeBurn},
		"badge_setMinter":            {fn: s.handleBadgeSetMinter, admin: true},
		"upgrade_enable":             {fn: s.handleUpgradeEnable, admin: true},
		"upgrade_disable":            {fn: s.handleUpgradeDisable, admin: true},
		"upgrade_status":             {fn: s.handleUpgradeStatus},
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params[0], out)
}
