package cmd

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"cosmossdk.io/log"
	confixcmd "cosmossdk.io/tools/confix/cmd"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/config"
	"github.com/cosmos/cosmos-sdk/client/debug"
	"github.com/cosmos/cosmos-sdk/client/keys"
	"github.com/cosmos/cosmos-sdk/client/pruning"
	"github.com/cosmos/cosmos-sdk/client/snapshot"
	"github.com/cosmos/cosmos-sdk/server"
	serverconfig "github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	authcli "github.com/cosmos/cosmos-sdk/x/auth/client/cli"
	"github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/crisis"
	genutilcli "github.com/cosmos/cosmos-sdk/x/genutil/client/cli"
	"github.com/spf13/cobra"

	tmcfg "github.com/cometbft/cometbft/config"

	"github.com/openalpha/nos-rewards/app"
	rewardscli "github.com/openalpha/nos-rewards/x/rewards/client/cli"
	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// NewRootCmd creates a new root command for rewardsd
func NewRootCmd() *cobra.Command {
	tempApp := app.NewApp(
		log.NewNopLogger(),
		dbm.NewMemDB(),
		nil,
		false,
		nil,
	)
	encodingConfig := app.MakeEncodingConfig()

	initClientCtx := client.Context{}.
		WithCodec(encodingConfig.Codec).
		WithInterfaceRegistry(encodingConfig.InterfaceRegistry).
		WithTxConfig(encodingConfig.TxConfig).
		WithLegacyAmino(encodingConfig.Amino).
		WithInput(os.Stdin).
		WithAccountRetriever(types.AccountRetriever{}).
		WithHomeDir(app.DefaultNodeHome).
		WithViper("REWARDS")

	rootCmd := &cobra.Command{
		Use:   "rewardsd",
		Short: "NOS rewards - proportional fee distribution to stakers",
		Long: `rewardsd runs a Cosmos SDK chain whose rewards module shares fee income
among stakers in proportion to their stake, in constant time per operation.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			initClientCtx = initClientCtx.WithCmdContext(cmd.Context())
			initClientCtx, err := client.ReadPersistentCommandFlags(initClientCtx, cmd.Flags())
			if err != nil {
				return err
			}

			initClientCtx, err = config.ReadFromClientConfig(initClientCtx)
			if err != nil {
				return err
			}

			if err := client.SetCmdClientContextHandler(initClientCtx, cmd); err != nil {
				return err
			}

			customAppTemplate, customAppConfig := initAppConfig()
			customCMTConfig := initCometBFTConfig()

			return server.InterceptConfigsPreRunHandler(cmd, customAppTemplate, customAppConfig, customCMTConfig)
		},
	}

	initRootCmd(rootCmd, encodingConfig, tempApp.BasicModuleManager)

	return rootCmd
}

func initRootCmd(rootCmd *cobra.Command, encodingConfig app.EncodingConfig, basicManager module.BasicManager) {
	rootCmd.AddCommand(
		genutilcli.InitCmd(basicManager, app.DefaultNodeHome),
		debug.Cmd(),
		confixcmd.ConfigCommand(),
		pruning.Cmd(newApp, app.DefaultNodeHome),
		snapshot.Cmd(newApp),
	)

	server.AddCommands(rootCmd, app.DefaultNodeHome, newApp, appExport, addModuleInitFlags)

	genesisCmd := genutilcli.Commands(encodingConfig.TxConfig, basicManager, app.DefaultNodeHome)
	rootCmd.AddCommand(genesisCmd)

	queryCmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	queryCmd.AddCommand(
		authcli.QueryTxsByEventsCmd(),
		authcli.QueryTxCmd(),
		rewardscli.GetQueryCmd(),
	)
	rootCmd.AddCommand(queryCmd)

	txCmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Transactions subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	txCmd.AddCommand(
		authcli.GetSignCommand(),
		authcli.GetBroadcastCommand(),
		rewardscli.GetTxCmd(),
	)
	rootCmd.AddCommand(txCmd)

	rootCmd.AddCommand(
		keys.Commands(),
		VersionCmd(),
	)
}

func addModuleInitFlags(startCmd *cobra.Command) {
	crisis.AddModuleInitFlags(startCmd)
}

// newApp creates a new Cosmos SDK app
func newApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	appOpts servertypes.AppOptions,
) servertypes.Application {
	baseappOptions := server.DefaultBaseappOptions(appOpts)

	return app.NewApp(
		logger,
		db,
		traceStore,
		true,
		appOpts,
		baseappOptions...,
	)
}

// appExport exports the rewards ledger at the given height
func appExport(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	height int64,
	forZeroHeight bool,
	jailAllowedAddrs []string,
	appOpts servertypes.AppOptions,
	modulesToExport []string,
) (servertypes.ExportedApp, error) {
	rewardsApp := app.NewApp(
		logger,
		db,
		traceStore,
		false,
		appOpts,
	)

	if height != -1 {
		if err := rewardsApp.LoadHeight(height); err != nil {
			return servertypes.ExportedApp{}, err
		}
	} else if err := rewardsApp.LoadLatestVersion(); err != nil {
		return servertypes.ExportedApp{}, err
	}

	ctx := rewardsApp.NewContextLegacy(true, cmtproto.Header{Height: rewardsApp.LastBlockHeight()})

	rewardsGenesis, err := rewardsApp.ExportRewardsGenesis(ctx)
	if err != nil {
		return servertypes.ExportedApp{}, err
	}
	appState, err := json.MarshalIndent(map[string]json.RawMessage{
		rewardstypes.ModuleName: rewardsGenesis,
	}, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	return servertypes.ExportedApp{
		AppState:        appState,
		Height:          rewardsApp.LastBlockHeight(),
		ConsensusParams: rewardsApp.GetConsensusParams(ctx),
	}, nil
}

// initAppConfig returns custom app config template and config
func initAppConfig() (string, interface{}) {
	type CustomAppConfig struct {
		serverconfig.Config
	}

	customAppConfig := CustomAppConfig{
		Config: *serverconfig.DefaultConfig(),
	}
	customAppConfig.MinGasPrices = "0" + rewardstypes.DefaultDenom

	customAppTemplate := serverconfig.DefaultConfigTemplate

	return customAppTemplate, customAppConfig
}

// initCometBFTConfig returns the CometBFT config. Fee and claim traffic is
// light, so blocks follow the stock cadence with a shorter commit timeout.
func initCometBFTConfig() *tmcfg.Config {
	cfg := tmcfg.DefaultConfig()

	cfg.Consensus.TimeoutCommit = 2 * time.Second
	cfg.Consensus.SkipTimeoutCommit = false

	cfg.Mempool.Size = 5000

	return cfg
}

// VersionCmd returns a command to print the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("rewardsd v0.1.0")
		},
	}
}
