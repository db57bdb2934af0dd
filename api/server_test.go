package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

type ServerTestSuite struct {
	suite.Suite

	config  *Config
	service *LedgerService
	server  *Server
	handler http.Handler
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.config = DefaultConfig()
	s.config.Authority = testAuthority
	s.config.EnableFaucet = true
	s.config.DisableRateLimit = true

	var err error
	s.service, err = NewLedgerService(LedgerServiceConfig{
		Authority:    s.config.Authority,
		Denom:        s.config.Denom,
		EnableFaucet: s.config.EnableFaucet,
	}, nil, nil, log.NewNopLogger())
	s.Require().NoError(err)

	s.server = NewServerWithService(s.config, s.service, nil, nil, log.NewNopLogger())
	s.handler = s.server.Router()
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.rateLimiter.Stop()
	s.Require().NoError(s.service.Shutdown())
}

func (s *ServerTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decode(rec *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
}

func (s *ServerTestSuite) requireError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Require().Equal(status, rec.Code, rec.Body.String())
	var body map[string]string
	s.decode(rec, &body)
	s.Require().Equal(code, body["error"])
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body map[string]interface{}
	s.decode(rec, &body)
	s.Require().Equal("healthy", body["status"])
	s.Require().Equal(true, body["initialized"])
}

func (s *ServerTestSuite) TestFullFlow() {
	rec := s.do(http.MethodPost, "/v1/stake", map[string]interface{}{"owner": testAlice, "amount": "1000"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/enter", map[string]string{"staker": testAlice})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var entered rewardstypes.MsgEnterResponse
	s.decode(rec, &entered)
	s.Require().Equal("1000", entered.Principal)
	s.Require().Equal("1000000000000000000", entered.Shares)

	rec = s.do(http.MethodPost, "/v1/fund", map[string]interface{}{"address": testPayer, "amount": 500})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/add-fee", map[string]interface{}{"payer": testPayer, "amount": 500})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var added rewardstypes.MsgAddFeeResponse
	s.decode(rec, &added)
	s.Require().Equal("666666666666666", added.Rate)

	rec = s.do(http.MethodGet, "/v1/claimable/"+testAlice, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var claimable rewardstypes.QueryClaimableResponse
	s.decode(rec, &claimable)
	s.Require().Equal("500", claimable.Earned)

	rec = s.do(http.MethodGet, "/v1/entries/"+testAlice, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/v1/claim", map[string]string{"staker": testAlice})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var claimed rewardstypes.MsgClaimResponse
	s.decode(rec, &claimed)
	s.Require().Equal("500", claimed.Earned)

	rec = s.do(http.MethodGet, "/v1/balances/"+testAlice, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var bal map[string]string
	s.decode(rec, &bal)
	s.Require().Equal("500", bal["amount"])

	rec = s.do(http.MethodGet, "/v1/pool", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var pool rewardstypes.QueryPoolResponse
	s.decode(rec, &pool)
	s.Require().True(pool.Pool.ShareTotal.IsZero())
}

func (s *ServerTestSuite) TestErrorMapping() {
	s.requireError(s.do(http.MethodGet, "/v1/entries/bogus", nil), http.StatusBadRequest, "invalid_address")
	s.requireError(s.do(http.MethodGet, "/v1/entries/"+testAlice, nil), http.StatusNotFound, "entry_not_found")
	s.requireError(s.do(http.MethodPost, "/v1/enter", map[string]string{"staker": testAlice}), http.StatusNotFound, "stake_not_found")
	s.requireError(s.do(http.MethodPost, "/v1/add-fee", map[string]interface{}{"payer": testPayer, "amount": 0}), http.StatusBadRequest, "invalid_amount")
	s.requireError(s.do(http.MethodPost, "/v1/add-fee", map[string]interface{}{"payer": testPayer, "amount": 7}), http.StatusConflict, "insufficient_funds")

	s.do(http.MethodPost, "/v1/stake", map[string]interface{}{"owner": testAlice, "amount": "1000"})
	s.do(http.MethodPost, "/v1/enter", map[string]string{"staker": testAlice})
	s.requireError(s.do(http.MethodPost, "/v1/enter", map[string]string{"staker": testAlice}), http.StatusConflict, "duplicate_entry")
	s.requireError(s.do(http.MethodPost, "/v1/close", map[string]string{"authority": testBob, "owner": testAlice}), http.StatusForbidden, "unauthorized")

	s.do(http.MethodPost, "/v1/stake", map[string]interface{}{"owner": testAlice, "amount": "999"})
	s.requireError(s.do(http.MethodPost, "/v1/claim", map[string]string{"staker": testAlice}), http.StatusConflict, "principal_decreased")

	req := httptest.NewRequest(http.MethodPost, "/v1/claim", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.requireError(rec, http.StatusBadRequest, "invalid_json")
}

func (s *ServerTestSuite) TestMethodNotAllowed() {
	rec := s.do(http.MethodGet, "/v1/enter", nil)
	s.Require().Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	rec := s.do(http.MethodGet, "/metrics", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/v1/enter", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusNoContent, rec.Code)
	s.Require().Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMutationRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Authority = testAuthority
	cfg.RateLimit.MutationsPerSecond = 1
	cfg.RateLimit.MutationBurst = 1

	service, err := NewLedgerService(LedgerServiceConfig{Authority: cfg.Authority}, nil, nil, log.NewNopLogger())
	require.NoError(t, err)
	server := NewServerWithService(cfg, service, nil, nil, log.NewNopLogger())
	defer server.rateLimiter.Stop()
	handler := server.Router()

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/claim", bytes.NewBufferString(`{"staker":"`+testAlice+`"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNotFound, post().Code)
	rec := post()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited per signer
	req := httptest.NewRequest(http.MethodGet, "/v1/pool", nil)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)
}
