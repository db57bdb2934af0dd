package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/nos-rewards/api"
)

func startGateway(t *testing.T) *httptest.Server {
	t.Helper()
	authority := sdk.AccAddress(bytes.Repeat([]byte{0xaa}, 20)).String()

	cfg := api.DefaultConfig()
	cfg.Authority = authority
	cfg.EnableFaucet = true
	cfg.DisableRateLimit = true

	service, err := api.NewLedgerService(api.LedgerServiceConfig{
		Authority:    authority,
		EnableFaucet: true,
	}, nil, nil, log.NewNopLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServerWithService(cfg, service, nil, nil, log.NewNopLogger()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestParticipantAddressIsStable(t *testing.T) {
	a := participantAddress(3, 7)
	require.Equal(t, a, participantAddress(3, 7))
	require.NotEqual(t, a, participantAddress(7, 3))

	_, err := sdk.AccAddressFromBech32(a)
	require.NoError(t, err)
}

func TestLoadTestAgainstGateway(t *testing.T) {
	srv := startGateway(t)

	results, err := NewLoadTester(&Config{
		BaseURL:      srv.URL,
		Concurrency:  3,
		Duration:     300 * time.Millisecond,
		Participants: 4,
		FeeAmount:    1000,
		FeeRatio:     0.3,
	}, log.NewNopLogger()).Run()
	require.NoError(t, err)

	require.Positive(t, results.TotalRequests)
	require.Zero(t, results.FailedRequests, "errors: %v", results.Errors)
	require.Equal(t, int64(12), results.Operations["stake"])
	require.Positive(t, results.Operations["enter"])
	require.LessOrEqual(t, results.Percentile(0.5), results.Percentile(0.99))

	report := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, results.SaveReport(report))
	require.FileExists(t, report)
}

func TestRunFailsWithoutGateway(t *testing.T) {
	srv := startGateway(t)
	srv.Close()

	_, err := NewLoadTester(&Config{BaseURL: srv.URL, Concurrency: 1, Participants: 1, FeeAmount: 1}, log.NewNopLogger()).Run()
	require.Error(t, err)
}
