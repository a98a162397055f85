package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"nestchain/core/state"
	coretypes "nestchain/core/types"
	"nestchain/crypto"
	"nestchain/native/badge"
	"nestchain/native/referral"
	"nestchain/native/savings"
	"nestchain/native/upgrade"
	"nestchain/storage"
)

const testToken = "test-admin-token"

func testAddress(seed byte) crypto.Address {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = seed
	}
	return crypto.NewAddress(crypto.NestPrefix, raw)
}

type testServer struct {
	http    *httptest.Server
	manager *state.Manager
	admin   crypto.Address
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("NEST_RPC_TOKEN", testToken)

	manager := state.NewManager(storage.NewMemDB())
	admin := testAddress(0xAA)
	custody := crypto.ModuleAddress("savings")

	engine := savings.NewEngine(custody, admin)
	engine.SetState(manager)
	badges := badge.NewRegistry(admin)
	badges.SetState(manager)
	referrals := referral.NewRegistry(admin)
	referrals.SetState(manager)
	upgrades := upgrade.NewRegistry(admin)
	upgrades.SetState(manager)

	registry := prometheus.NewRegistry()
	server := NewServer(manager, engine, badges, referrals, upgrades, slog.New(slog.NewTextHandler(io.Discard, nil)), registry)

	ts := httptest.NewServer(server.Router(registry))
	t.Cleanup(ts.Close)
	return &testServer{http: ts, manager: manager, admin: admin}
}

func (ts *testServer) fund(t *testing.T, addr crypto.Address, amount int64) {
	t.Helper()
	require.NoError(t, ts.manager.PutAccount(addr, &coretypes.Account{Balance: big.NewInt(amount)}))
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (ts *testServer) call(t *testing.T, method string, params interface{}, token string) (*http.Response, *rawResponse) {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.http.URL+"/", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	decoded := &rawResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(decoded))
	return resp, decoded
}

func TestDepositWithdrawOverRPC(t *testing.T) {
	ts := newTestServer(t)
	saver := testAddress(0x01)
	ts.fund(t, saver, 5_000_000)

	resp, rpcResp := ts.call(t, "savings_deposit", map[string]interface{}{
		"caller":     saver.String(),
		"amount":     5_000_000,
		"lockPeriod": 0,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)

	var account savingsResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &account))
	require.Equal(t, saver.String(), account.Owner)
	require.Equal(t, "5000000", account.Amount.String())
	require.False(t, account.Claimed)

	resp, rpcResp = ts.call(t, "savings_withdraw", map[string]interface{}{
		"caller": saver.String(),
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)

	var receipt withdrawResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &receipt))
	require.False(t, receipt.Early)
	require.Equal(t, "5000000", receipt.Withdrawn.String())
	require.Equal(t, uint64(500_000), receipt.EarnedPoints)
}

func TestDepositErrorsMapToRPCCodes(t *testing.T) {
	ts := newTestServer(t)
	saver := testAddress(0x02)
	ts.fund(t, saver, 10_000_000)

	// Below the minimum.
	resp, rpcResp := ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 10,
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, codeInvalidParams, rpcResp.Error.Code)

	// Duplicate active deposit is a state conflict.
	_, rpcResp = ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 2_000_000,
	}, "")
	require.Nil(t, rpcResp.Error)
	resp, rpcResp = ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 2_000_000,
	}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, codeServerError, rpcResp.Error.Code)
}

func TestGetSavingsMissingReturnsNull(t *testing.T) {
	ts := newTestServer(t)

	resp, rpcResp := ts.call(t, "savings_getSavings", map[string]interface{}{
		"address": testAddress(0x03).String(),
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)
	require.Equal(t, "null", string(bytes.TrimSpace(rpcResp.Result)))
}

func TestSuccessResponseAlwaysCarriesResult(t *testing.T) {
	ts := newTestServer(t)

	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      7,
		"method":  "savings_getSavings",
		"params": []interface{}{map[string]interface{}{
			"address": testAddress(0x08).String(),
		}},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.http.URL+"/", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The result member must be present even when the lookup resolves to
	// nothing; a success response without it is malformed.
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	value, present := raw["result"]
	require.True(t, present)
	require.Equal(t, "null", string(bytes.TrimSpace(value)))
	_, hasError := raw["error"]
	require.False(t, hasError)
}

func TestAdminMethodsRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp, rpcResp := ts.call(t, "savings_setRewardRate", map[string]interface{}{
		"caller": ts.admin.String(),
		"value":  15,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, codeUnauthorized, rpcResp.Error.Code)

	resp, rpcResp = ts.call(t, "savings_setRewardRate", map[string]interface{}{
		"caller": ts.admin.String(),
		"value":  15,
	}, "wrong-token")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, rpcResp = ts.call(t, "savings_setRewardRate", map[string]interface{}{
		"caller": ts.admin.String(),
		"value":  15,
	}, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, rpcResp.Error)
}

func TestAdminCallerStillCheckedOnLedger(t *testing.T) {
	ts := newTestServer(t)

	// A valid token does not bypass the on-ledger admin check.
	resp, rpcResp := ts.call(t, "savings_setRewardRate", map[string]interface{}{
		"caller": testAddress(0x04).String(),
		"value":  15,
	}, testToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, codeUnauthorized, rpcResp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)
	resp, rpcResp := ts.call(t, "savings_notAMethod", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, codeMethodNotFound, rpcResp.Error.Code)
}

func TestMalformedJSONRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.http.URL+"/", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	decoded := &rawResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(decoded))
	require.Equal(t, codeParseError, decoded.Error.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	ts := newTestServer(t)
	resp, rpcResp := ts.call(t, "savings_getSavings", map[string]interface{}{
		"address": "not-a-bech32-address",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeInvalidParams, rpcResp.Error.Code)
}

func TestReferralFlowOverRPC(t *testing.T) {
	ts := newTestServer(t)
	alice := testAddress(0x05)
	bob := testAddress(0x06)

	_, rpcResp := ts.call(t, "referral_register", map[string]interface{}{
		"user":     alice.String(),
		"referrer": bob.String(),
	}, "")
	require.Nil(t, rpcResp.Error)

	_, rpcResp = ts.call(t, "referral_getReferrer", map[string]interface{}{
		"address": alice.String(),
	}, "")
	require.Nil(t, rpcResp.Error)
	var referrer string
	require.NoError(t, json.Unmarshal(rpcResp.Result, &referrer))
	require.Equal(t, bob.String(), referrer)

	// Unreferred principals resolve to null.
	_, rpcResp = ts.call(t, "referral_getReferrer", map[string]interface{}{
		"address": testAddress(0x07).String(),
	}, "")
	require.Nil(t, rpcResp.Error)
	require.Equal(t, "null", string(bytes.TrimSpace(rpcResp.Result)))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Drive one request so a counter exists, then scrape.
	ts.call(t, "savings_getEvents", map[string]interface{}{"limit": 5}, "")

	metricsResp, err := http.Get(ts.http.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	require.Equal(t, http.StatusOK, metricsResp.StatusCode)
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "nestd_rpc_requests_total")
}

func TestRequestCounterRecordsErrorOutcome(t *testing.T) {
	ts := newTestServer(t)
	saver := testAddress(0x09)
	ts.fund(t, saver, 10_000_000)

	// One failing call (below minimum) and one succeeding call.
	resp, _ := ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 10,
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 2_000_000,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.http.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	scrape := string(body)
	require.Contains(t, scrape, `nestd_rpc_requests_total{method="savings_deposit",outcome="error"} 1`)
	require.Contains(t, scrape, `nestd_rpc_requests_total{method="savings_deposit",outcome="ok"} 1`)
}

func TestEachWriteAdvancesHeight(t *testing.T) {
	ts := newTestServer(t)
	saver := testAddress(0x07)
	ts.fund(t, saver, 10_000_000)

	before, err := ts.manager.CurrentHeight()
	require.NoError(t, err)

	_, rpcResp := ts.call(t, "savings_deposit", map[string]interface{}{
		"caller": saver.String(),
		"amount": 2_000_000,
	}, "")
	require.Nil(t, rpcResp.Error)

	after, err := ts.manager.CurrentHeight()
	require.NoError(t, err)
	require.Equal(t, before+1, after)
}

func TestProjectYieldOverRPC(t *testing.T) {
	ts := newTestServer(t)

	_, rpcResp := ts.call(t, "savings_projectYield", map[string]interface{}{
		"amount": 1_000_000,
		"years":  1,
	}, "")
	require.Nil(t, rpcResp.Error)
	var result map[string]*big.Int
	require.NoError(t, json.Unmarshal(rpcResp.Result, &result))
	require.NotNil(t, result["projected"])
	require.True(t, result["projected"].Cmp(big.NewInt(1_000_000)) > 0,
		fmt.Sprintf("projection must grow, got %s", result["projected"]))
}
