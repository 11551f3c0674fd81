package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"splitpay/core"
	"splitpay/core/events"
	"splitpay/core/genesis"
	"splitpay/core/state"
	"splitpay/core/types"
	"splitpay/crypto"
	"splitpay/native/splitpay"
	"splitpay/observability/journal"
	"splitpay/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	ownerAddr   = crypto.AddressFromArray([20]byte{0x01})
	aliceAddr   = crypto.AddressFromArray([20]byte{0xa1})
	bobAddr     = crypto.AddressFromArray([20]byte{0xb0})
	payerAddr   = crypto.AddressFromArray([20]byte{0xc0})
	spenderAddr = crypto.AddressFromArray([20]byte{0xd0})
)

type testEnv struct {
	server  *Server
	runtime *core.Runtime
	hub     *events.Hub
	journal *journal.Journal
}

func newTestEnv(t *testing.T, limit RateLimit) *testEnv {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr := state.NewManager(db)
	spec, err := genesis.ParseGenesisSpec([]byte(fmt.Sprintf(`
owner: %s
beneficiaries:
  - account: %s
    share: 60
  - account: %s
    share: 40
alloc:
  %s: "10000"
`, ownerAddr, aliceAddr, bobAddr, payerAddr)))
	require.NoError(t, err)
	_, err = genesis.Apply(spec, mgr)
	require.NoError(t, err)

	gdb, err := journal.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	j, err := journal.New(context.Background(), gdb, nil)
	require.NoError(t, err)

	hub := events.NewHub()
	rt := core.NewRuntime(mgr)
	rt.SetMetrics(nil)
	rt.SetEmitter(events.MultiEmitter{hub, j})
	rt.EnableFaucet(true)

	srv := New(Config{
		Runtime:   rt,
		Hub:       hub,
		Journal:   j,
		Auth:      AuthConfig{HMACSecret: testSecret, Issuer: "splitpay", Audience: "splitpay-api"},
		RateLimit: limit,
	})
	return &testEnv{server: srv, runtime: rt, hub: hub, journal: j}
}

func token(t *testing.T, who crypto.Address) string {
	t.Helper()
	tok, err := IssueToken(testSecret, "splitpay", "splitpay-api", who, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, who *crypto.Address, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *who))
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestQueriesAreAnonymous(t *testing.T) {
	env := newTestEnv(t, RateLimit{})

	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/v1/owner", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var owner map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&owner))
	require.Equal(t, ownerAddr.String(), owner["owner"])

	rec = env.do(t, http.MethodGet, "/v1/beneficiaries", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []BeneficiaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 2)
	require.Equal(t, aliceAddr.String(), list[0].Account)
	require.Equal(t, uint8(60), list[0].SharePercentage)

	rec = env.do(t, http.MethodGet, "/v1/shares", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"totalShares":100}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/beneficiaries/"+spenderAddr.String(), nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/beneficiaries/not-an-address", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeInvalidRequest, decodeError(t, rec).Code)
}

func TestMutationsRequireToken(t *testing.T) {
	env := newTestEnv(t, RateLimit{})

	rec := env.do(t, http.MethodPost, "/v1/pause", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthenticated, decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/pause", nil)
	forged, err := IssueToken("another-secret-of-enough-length", "splitpay", "splitpay-api", ownerAddr, time.Hour, time.Now())
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+forged)
	out := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(out, req)
	require.Equal(t, http.StatusUnauthorized, out.Code)

	expired, err := IssueToken(testSecret, "splitpay", "splitpay-api", ownerAddr, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/v1/pause", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	out = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(out, req)
	require.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestPaymentWithdrawalFlow(t *testing.T) {
	env := newTestEnv(t, RateLimit{})

	rec := env.do(t, http.MethodPost, "/v1/payments", &payerAddr, AmountRequest{Amount: "1000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/beneficiaries/"+aliceAddr.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var alice BeneficiaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&alice))
	require.Equal(t, "600", alice.PendingBalance)

	expiry := uint64(time.Now().Add(time.Hour).Unix())
	rec = env.do(t, http.MethodPost, "/v1/approvals", &aliceAddr, ApprovalRequest{Spender: spenderAddr.String(), Amount: "250", ExpiresAt: &expiry})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/v1/withdrawals/delegated", &spenderAddr, DelegatedWithdrawalRequest{Owner: aliceAddr.String(), Amount: "200"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/approvals/"+aliceAddr.String()+"/"+spenderAddr.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var approval ApprovalResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&approval))
	require.Equal(t, "50", approval.Allowance)
	require.True(t, approval.Live)

	rec = env.do(t, http.MethodPost, "/v1/withdrawals/delegated", &spenderAddr, DelegatedWithdrawalRequest{Owner: aliceAddr.String(), Amount: "100"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, splitpay.CodeInsufficientAllowance, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/withdrawals", &aliceAddr, AmountRequest{Amount: "100"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/withdrawals/all", &aliceAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/withdrawals/all", &aliceAddr, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, splitpay.CodeNoFundsAvailable, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/v1/accounts/"+aliceAddr.String()+"/balance", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&balance))
	require.Equal(t, "400", balance["balance"])

	rec = env.do(t, http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Equal(t, "1000", stats.TotalReceived)
	require.Equal(t, "400", stats.ContractBalance)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	env := newTestEnv(t, RateLimit{})

	rec := env.do(t, http.MethodPost, "/v1/beneficiaries", &aliceAddr, BeneficiaryRequest{Account: spenderAddr.String(), Share: 1})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, splitpay.CodeUnauthorized, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/beneficiaries", &ownerAddr, BeneficiaryRequest{Account: spenderAddr.String(), Share: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, splitpay.CodeInvalidShare, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/v1/beneficiaries/"+spenderAddr.String(), &ownerAddr, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, splitpay.CodeBeneficiaryNotFound, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/pause", &ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/payments", &payerAddr, AmountRequest{Amount: "10"})
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Equal(t, splitpay.CodeContractPaused, decodeError(t, rec).Code)
	rec = env.do(t, http.MethodGet, "/v1/paused", nil, nil)
	require.JSONEq(t, `{"paused":true}`, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/v1/unpause", &ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/payments", &payerAddr, AmountRequest{Amount: "99999"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, core.CodeInsufficientFunds, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/v1/payments", &payerAddr, AmountRequest{Amount: "-5"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/payments", &payerAddr, map[string]string{"amount": "1", "extra": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleEndpoints(t *testing.T) {
	env := newTestEnv(t, RateLimit{})
	manager := crypto.AddressFromArray([20]byte{0x0a})

	rec := env.do(t, http.MethodPost, "/v1/managers", &ownerAddr, AccountRequest{Account: manager.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/managers/"+manager.String(), nil, nil)
	require.Contains(t, rec.Body.String(), `"manager":true`)

	rec = env.do(t, http.MethodDelete, "/v1/beneficiaries/"+bobAddr.String(), &manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/managers/"+manager.String(), &ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/owner", &ownerAddr, OwnerRequest{Owner: aliceAddr.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/pause", &ownerAddr, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/faucet", &spenderAddr, FaucetRequest{Amount: "42"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/accounts/"+spenderAddr.String()+"/balance", nil, nil)
	require.Contains(t, rec.Body.String(), `"balance":"42"`)
}

func TestJournalEndpoint(t *testing.T) {
	env := newTestEnv(t, RateLimit{})
	rec := env.do(t, http.MethodPost, "/v1/payments", &payerAddr, AmountRequest{Amount: "100"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/events?type="+splitpay.EventTypeFundsReceived, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []JournalEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	require.Equal(t, "100", entries[0].Attributes["amount"])

	rec = env.do(t, http.MethodGet, "/v1/events?after=x", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, RateLimit{})
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events/ws?types=" + splitpay.EventTypeFundsDistributed
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return env.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, env.runtime.Pay(ctx, payerAddr.Array(), mustAmount(t, "500")))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, splitpay.EventTypeFundsDistributed, evt.Type)
	require.Equal(t, "500", evt.Attributes["amount"])
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 0.001, Burst: 1})
	rec := env.do(t, http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, codeRateLimited, decodeError(t, rec).Code)
}

func mustAmount(t *testing.T, raw string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(raw)
	require.NoError(t, err)
	return v
}
