package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `
port: 9090
authority: ` + testAuthority + `
enable_faucet: true
allowed_origins: ["https://app.example"]
rate_limit:
  mutations_per_second: 2
  mutations_per_day: 10
hub:
  pool_interval: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, testAuthority, cfg.Authority)
	require.True(t, cfg.EnableFaucet)
	require.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
	require.Equal(t, 2, cfg.RateLimit.MutationsPerSecond)
	require.Equal(t, 10, cfg.RateLimit.MutationsPerDay)
	require.Equal(t, time.Second, cfg.Hub.PoolInterval)

	// Unset keys keep their defaults
	def := DefaultConfig()
	require.Equal(t, def.Host, cfg.Host)
	require.Equal(t, def.Denom, cfg.Denom)
	require.Equal(t, def.RateLimit.IPBurst, cfg.RateLimit.IPBurst)
	require.Equal(t, def.Hub.MaxSubscriptions, cfg.Hub.MaxSubscriptions)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REWARDS_API_AUTHORITY", testAuthority)
	t.Setenv("REWARDS_API_PORT", "7070")
	t.Setenv("REWARDS_API_DENOM", "ufee")
	t.Setenv("REWARDS_API_RATE_LIMIT_IP_BURST", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Port)
	require.Equal(t, "ufee", cfg.Denom)
	require.Equal(t, 3, cfg.RateLimit.IPBurst)
}

func TestLoadConfigValidation(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"missing authority", map[string]string{}},
		{"bad authority", map[string]string{"REWARDS_API_AUTHORITY": "cosmos1nope"}},
		{"bad port", map[string]string{"REWARDS_API_AUTHORITY": testAuthority, "REWARDS_API_PORT": "70000"}},
		{"bad denom", map[string]string{"REWARDS_API_AUTHORITY": testAuthority, "REWARDS_API_DENOM": "1"}},
		{"zero mutation rate", map[string]string{"REWARDS_API_AUTHORITY": testAuthority, "REWARDS_API_RATE_LIMIT_MUTATIONS_PER_SECOND": "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
