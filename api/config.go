package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/openalpha/nos-rewards/api/middleware"
	"github.com/openalpha/nos-rewards/api/websocket"
	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// EnvPrefix prefixes every environment override, e.g. REWARDS_API_PORT
const EnvPrefix = "REWARDS_API"

// Config contains server configuration
type Config struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Authority initializes the pool and is the module authority
	Authority string `mapstructure:"authority"`
	Denom     string `mapstructure:"denom"`

	// DataDir persists the ledger across restarts. Empty keeps it in memory.
	DataDir string `mapstructure:"data_dir"`

	EnableFaucet     bool     `mapstructure:"enable_faucet"`
	DisableRateLimit bool     `mapstructure:"disable_rate_limit"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	LogLevel         string   `mapstructure:"log_level"`

	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`
	Hub       websocket.HubConfig        `mapstructure:"hub"`
}

// DefaultConfig returns default configuration. Authority is left empty and
// must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		Denom:          rewardstypes.DefaultDenom,
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		RateLimit:      *middleware.DefaultRateLimitConfig(),
		Hub:            *websocket.DefaultHubConfig(),
	}
}

// LoadConfig reads configuration from path, if set, then the environment
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	defaults := map[string]interface{}{
		"host":                              def.Host,
		"port":                              def.Port,
		"read_timeout":                      def.ReadTimeout,
		"write_timeout":                     def.WriteTimeout,
		"authority":                         def.Authority,
		"denom":                             def.Denom,
		"data_dir":                          def.DataDir,
		"enable_faucet":                     def.EnableFaucet,
		"disable_rate_limit":                def.DisableRateLimit,
		"allowed_origins":                   def.AllowedOrigins,
		"log_level":                         def.LogLevel,
		"rate_limit.ip_requests_per_second": def.RateLimit.IPRequestsPerSecond,
		"rate_limit.ip_burst":               def.RateLimit.IPBurst,
		"rate_limit.mutations_per_second":   def.RateLimit.MutationsPerSecond,
		"rate_limit.mutation_burst":         def.RateLimit.MutationBurst,
		"rate_limit.mutations_per_day":      def.RateLimit.MutationsPerDay,
		"rate_limit.cleanup_interval":       def.RateLimit.CleanupInterval,
		"rate_limit.bucket_ttl":             def.RateLimit.BucketTTL,
		"hub.pool_interval":                 def.Hub.PoolInterval,
		"hub.max_subscriptions":             def.Hub.MaxSubscriptions,
		"hub.message_rate_limit":            def.Hub.MessageRateLimit,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Authority == "" {
		return errors.New("missing authority in configuration")
	}
	if _, err := sdk.AccAddressFromBech32(c.Authority); err != nil {
		return fmt.Errorf("invalid authority: %w", err)
	}
	if err := (rewardstypes.Params{Denom: c.Denom}).Validate(); err != nil {
		return err
	}
	if c.RateLimit.IPRequestsPerSecond <= 0 || c.RateLimit.MutationsPerSecond <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.RateLimit.MutationsPerDay <= 0 {
		return errors.New("invalid rate_limit.mutations_per_day")
	}
	if c.Hub.PoolInterval <= 0 {
		return errors.New("invalid hub.pool_interval")
	}
	return nil
}
