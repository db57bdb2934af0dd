package app

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/baseapp"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	nodeservice "github.com/cosmos/cosmos-sdk/client/grpc/node"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/server"
	"github.com/cosmos/cosmos-sdk/server/api"
	"github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/cosmos/cosmos-sdk/x/auth"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/bank"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/cosmos-sdk/x/consensus"
	consensusparamkeeper "github.com/cosmos/cosmos-sdk/x/consensus/keeper"
	consensusparamtypes "github.com/cosmos/cosmos-sdk/x/consensus/types"
	"github.com/cosmos/cosmos-sdk/x/genutil"
	genutiltypes "github.com/cosmos/cosmos-sdk/x/genutil/types"
	"github.com/cosmos/cosmos-sdk/x/staking"
	stakingkeeper "github.com/cosmos/cosmos-sdk/x/staking/keeper"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	gogoprotograpc "github.com/cosmos/gogoproto/grpc"
	"github.com/spf13/cast"

	"github.com/openalpha/nos-rewards/x/rewards"
	rewardskeeper "github.com/openalpha/nos-rewards/x/rewards/keeper"
	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

const (
	Name = "nosrewards"
)

var (
	// DefaultNodeHome default home directories for the application daemon
	DefaultNodeHome string

	// ModuleBasics defines the module BasicManager used for codec registration
	ModuleBasics = module.NewBasicManager(
		auth.AppModuleBasic{},
		bank.AppModuleBasic{},
		staking.AppModuleBasic{},
		genutil.NewAppModuleBasic(genutiltypes.DefaultMessageValidator),
		consensus.AppModuleBasic{},
		rewards.AppModuleBasic{},
	)
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".nosrewards")
}

// App extends an ABCI application
type App struct {
	*baseapp.BaseApp

	legacyAmino       *codec.LegacyAmino
	appCodec          codec.Codec
	interfaceRegistry codectypes.InterfaceRegistry
	txConfig          client.TxConfig

	// Keys
	keys    map[string]*storetypes.KVStoreKey
	tkeys   map[string]*storetypes.TransientStoreKey
	memKeys map[string]*storetypes.MemoryStoreKey

	// SDK Keepers
	ConsensusParamsKeeper consensusparamkeeper.Keeper
	AccountKeeper         authkeeper.AccountKeeper
	BankKeeper            bankkeeper.BaseKeeper
	StakingKeeper         *stakingkeeper.Keeper

	// Custom module keepers
	RewardsKeeper *rewardskeeper.Keeper

	rewardsModule        rewards.AppModule
	invariantCheckPeriod uint

	// Module Manager
	BasicModuleManager module.BasicManager
}

// NewApp returns a new App instance
func NewApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	loadLatest bool,
	appOpts servertypes.AppOptions,
	baseAppOptions ...func(*baseapp.BaseApp),
) *App {
	// Create codec
	encodingConfig := MakeEncodingConfig()
	appCodec := encodingConfig.Codec
	legacyAmino := encodingConfig.Amino
	interfaceRegistry := encodingConfig.InterfaceRegistry

	// Create base app
	bApp := baseapp.NewBaseApp(Name, logger, db, encodingConfig.TxConfig.TxDecoder(), baseAppOptions...)
	bApp.SetCommitMultiStoreTracer(traceStore)
	bApp.SetInterfaceRegistry(interfaceRegistry)

	// Define store keys
	keys := storetypes.NewKVStoreKeys(
		authtypes.StoreKey,
		banktypes.StoreKey,
		stakingtypes.StoreKey,
		rewardstypes.StoreKey,
		consensusparamtypes.StoreKey,
	)
	tkeys := storetypes.NewTransientStoreKeys()
	memKeys := storetypes.NewMemoryStoreKeys()

	var invCheckPeriod uint
	if appOpts != nil {
		invCheckPeriod = cast.ToUint(appOpts.Get(server.FlagInvCheckPeriod))
	}

	app := &App{
		BaseApp:              bApp,
		legacyAmino:          legacyAmino,
		appCodec:             appCodec,
		interfaceRegistry:    interfaceRegistry,
		txConfig:             encodingConfig.TxConfig,
		keys:                 keys,
		tkeys:                tkeys,
		memKeys:              memKeys,
		invariantCheckPeriod: invCheckPeriod,
		BasicModuleManager:   ModuleBasics,
	}

	govAuthority := authtypes.NewModuleAddress("gov").String()

	// Initialize consensus params keeper
	app.ConsensusParamsKeeper = consensusparamkeeper.NewKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[consensusparamtypes.StoreKey]),
		govAuthority,
		runtime.EventService{},
	)
	bApp.SetParamStore(app.ConsensusParamsKeeper.ParamsStore)

	// Module account permissions. The rewards vault only holds and pays out
	// fee income, it never mints or burns.
	maccPerms := map[string][]string{
		authtypes.FeeCollectorName:     nil,
		stakingtypes.BondedPoolName:    {authtypes.Burner, authtypes.Staking},
		stakingtypes.NotBondedPoolName: {authtypes.Burner, authtypes.Staking},
		rewardstypes.VaultName:         nil,
	}

	sdkConfig := sdk.GetConfig()
	addrCodec, valAddrCodec, consAddrCodec := addressCodecs()

	// Initialize account keeper
	app.AccountKeeper = authkeeper.NewAccountKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		addrCodec,
		sdkConfig.GetBech32AccountAddrPrefix(),
		govAuthority,
	)

	// Initialize bank keeper
	app.BankKeeper = bankkeeper.NewBaseKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		app.AccountKeeper,
		BlockedModuleAccountAddrs(maccPerms),
		govAuthority,
		logger,
	)

	// Initialize staking keeper; its delegations are the principal the
	// rewards ledger accounts against
	app.StakingKeeper = stakingkeeper.NewKeeper(
		appCodec,
		runtime.NewKVStoreService(keys[stakingtypes.StoreKey]),
		app.AccountKeeper,
		app.BankKeeper,
		govAuthority,
		valAddrCodec,
		consAddrCodec,
	)

	// Initialize custom keepers
	app.RewardsKeeper = rewardskeeper.NewKeeper(
		keys[rewardstypes.StoreKey],
		newRewardsStakingAdapter(app.StakingKeeper),
		app.BankKeeper,
		govAuthority,
		logger,
	)
	app.rewardsModule = rewards.NewAppModule(app.RewardsKeeper)

	// Register MsgServers and QueryServers for SDK modules
	stakingtypes.RegisterMsgServer(bApp.MsgServiceRouter(), stakingkeeper.NewMsgServerImpl(app.StakingKeeper))
	banktypes.RegisterMsgServer(bApp.MsgServiceRouter(), bankkeeper.NewMsgServerImpl(app.BankKeeper))
	authtypes.RegisterQueryServer(bApp.GRPCQueryRouter(), authkeeper.NewQueryServer(app.AccountKeeper))
	banktypes.RegisterQueryServer(bApp.GRPCQueryRouter(), bankkeeper.NewQuerier(&app.BankKeeper))
	stakingtypes.RegisterQueryServer(bApp.GRPCQueryRouter(), stakingkeeper.NewQuerier(app.StakingKeeper))

	// Mount stores
	app.MountKVStores(keys)
	app.MountTransientStores(tkeys)
	app.MountMemoryStores(memKeys)

	// Initialize and finalize
	app.SetInitChainer(app.InitChainer)
	app.SetBeginBlocker(app.BeginBlocker)
	app.SetEndBlocker(app.EndBlocker)

	if loadLatest {
		if err := app.LoadLatestVersion(); err != nil {
			panic(err)
		}
	}

	return app
}

// Name returns the name of the App
func (app *App) Name() string { return app.BaseApp.Name() }

// BeginBlocker executes begin block logic
func (app *App) BeginBlocker(ctx sdk.Context) (sdk.BeginBlock, error) {
	return sdk.BeginBlock{}, app.StakingKeeper.BeginBlocker(ctx)
}

// EndBlocker matures unbondings and periodically audits the rewards ledger
func (app *App) EndBlocker(ctx sdk.Context) (sdk.EndBlock, error) {
	logger := app.Logger()
	start := time.Now()

	updates, err := app.StakingKeeper.EndBlocker(ctx)
	if err != nil {
		return sdk.EndBlock{}, err
	}

	if app.invariantCheckPeriod > 0 && ctx.BlockHeight()%int64(app.invariantCheckPeriod) == 0 {
		msg, broken := rewardskeeper.AllInvariants(app.RewardsKeeper)(ctx)
		if broken {
			logger.Error("Rewards invariant broken", "block", ctx.BlockHeight(), "details", msg)
		}
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		logger.Warn("EndBlocker exceeded latency threshold",
			"block", ctx.BlockHeight(),
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", 100,
		)
	}

	return sdk.EndBlock{ValidatorUpdates: updates}, nil
}

// GenutilGenesisState represents the genutil module's genesis state
type GenutilGenesisState struct {
	GenTxs []json.RawMessage `json:"gen_txs"`
}

// GenTx represents a genesis transaction
type GenTx struct {
	Body struct {
		Messages []json.RawMessage `json:"messages"`
	} `json:"body"`
}

// MsgCreateValidator represents the create validator message
type MsgCreateValidator struct {
	Type   string `json:"@type"`
	Pubkey struct {
		Type string `json:"@type"`
		Key  string `json:"key"`
	} `json:"pubkey"`
}

// InitChainer initializes the chain
func (app *App) InitChainer(ctx sdk.Context, req *abci.RequestInitChain) (*abci.ResponseInitChain, error) {
	var genesisState map[string]json.RawMessage
	if err := json.Unmarshal(req.AppStateBytes, &genesisState); err != nil {
		return nil, err
	}

	if raw, ok := genesisState[authtypes.ModuleName]; ok {
		var authGenesis authtypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(raw, &authGenesis); err != nil {
			return nil, err
		}
		app.AccountKeeper.InitGenesis(ctx, authGenesis)
	}
	if raw, ok := genesisState[banktypes.ModuleName]; ok {
		var bankGenesis banktypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(raw, &bankGenesis); err != nil {
			return nil, err
		}
		app.BankKeeper.InitGenesis(ctx, &bankGenesis)
	}

	var validators []abci.ValidatorUpdate
	if raw, ok := genesisState[stakingtypes.ModuleName]; ok {
		var stakingGenesis stakingtypes.GenesisState
		if err := app.appCodec.UnmarshalJSON(raw, &stakingGenesis); err != nil {
			return nil, err
		}
		validators = app.StakingKeeper.InitGenesis(ctx, &stakingGenesis)
	}

	if err := app.rewardsModule.InitGenesis(ctx, genesisState[rewardstypes.ModuleName]); err != nil {
		return nil, err
	}

	// If validators are provided in request, use them
	if len(req.Validators) > 0 {
		return &abci.ResponseInitChain{
			Validators: req.Validators,
		}, nil
	}

	// If staking genesis had no bonded validators, take them from the gentxs
	if len(validators) == 0 {
		validators = validatorsFromGenTxs(genesisState)
	}

	return &abci.ResponseInitChain{
		Validators: validators,
	}, nil
}

func validatorsFromGenTxs(genesisState map[string]json.RawMessage) []abci.ValidatorUpdate {
	genutilGenesis, ok := genesisState[genutiltypes.ModuleName]
	if !ok {
		return nil
	}
	var genutilState GenutilGenesisState
	if err := json.Unmarshal(genutilGenesis, &genutilState); err != nil {
		return nil
	}

	var validators []abci.ValidatorUpdate
	for _, genTxRaw := range genutilState.GenTxs {
		var genTx GenTx
		if err := json.Unmarshal(genTxRaw, &genTx); err != nil {
			continue
		}
		for _, msgRaw := range genTx.Body.Messages {
			var msg MsgCreateValidator
			if err := json.Unmarshal(msgRaw, &msg); err != nil {
				continue
			}
			if msg.Type != "/cosmos.staking.v1beta1.MsgCreateValidator" {
				continue
			}
			pubKeyBytes, err := base64.StdEncoding.DecodeString(msg.Pubkey.Key)
			if err != nil {
				continue
			}
			validators = append(validators, abci.ValidatorUpdate{
				PubKey: cmtcrypto.PublicKey{
					Sum: &cmtcrypto.PublicKey_Ed25519{
						Ed25519: pubKeyBytes,
					},
				},
				Power: 100,
			})
		}
	}
	return validators
}

// ExportRewardsGenesis exports the rewards ledger as JSON
func (app *App) ExportRewardsGenesis(ctx sdk.Context) (json.RawMessage, error) {
	return app.rewardsModule.ExportGenesis(ctx)
}

// LoadHeight loads a particular height
func (app *App) LoadHeight(height int64) error {
	return app.LoadVersion(height)
}

// LegacyAmino returns the legacy amino codec
func (app *App) LegacyAmino() *codec.LegacyAmino {
	return app.legacyAmino
}

// AppCodec returns the app codec
func (app *App) AppCodec() codec.Codec {
	return app.appCodec
}

// InterfaceRegistry returns the InterfaceRegistry
func (app *App) InterfaceRegistry() codectypes.InterfaceRegistry {
	return app.interfaceRegistry
}

// RegisterAPIRoutes registers all application module routes
func (app *App) RegisterAPIRoutes(apiSvr *api.Server, apiConfig config.APIConfig) {
	clientCtx := apiSvr.ClientCtx
	ModuleBasics.RegisterGRPCGatewayRoutes(clientCtx, apiSvr.GRPCGatewayRouter)
}

// GetKey returns a store key
func (app *App) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// GetTKey returns a transient store key
func (app *App) GetTKey(storeKey string) *storetypes.TransientStoreKey {
	return app.tkeys[storeKey]
}

// GetMemKey returns a memory store key
func (app *App) GetMemKey(storeKey string) *storetypes.MemoryStoreKey {
	return app.memKeys[storeKey]
}

// TxConfig returns the transaction config
func (app *App) TxConfig() client.TxConfig {
	return app.txConfig
}

// AutoCliOpts returns the autocli options for the app
func (app *App) AutoCliOpts() map[string]appmodule.AppModule {
	return map[string]appmodule.AppModule{}
}

// RegisterTxService implements the Application.RegisterTxService method
func (app *App) RegisterTxService(clientCtx client.Context) {
	authtx.RegisterTxService(app.BaseApp.GRPCQueryRouter(), clientCtx, app.BaseApp.Simulate, app.interfaceRegistry)
}

// RegisterTendermintService implements the Application.RegisterTendermintService method
func (app *App) RegisterTendermintService(clientCtx client.Context) {
	cmtservice.RegisterTendermintService(
		clientCtx,
		app.BaseApp.GRPCQueryRouter(),
		app.interfaceRegistry,
		app.Query,
	)
}

// RegisterNodeService implements the Application.RegisterNodeService method
func (app *App) RegisterNodeService(clientCtx client.Context, cfg config.Config) {
	nodeservice.RegisterNodeService(clientCtx, app.BaseApp.GRPCQueryRouter(), cfg)
}

// RegisterGRPCServer registers the app's gRPC services
func (app *App) RegisterGRPCServer(server gogoprotograpc.Server) {
	// SDK services are registered on the routers in NewApp
}

// SimulationManager returns the app's simulation manager
func (app *App) SimulationManager() *module.SimulationManager {
	return nil
}

// BlockedModuleAccountAddrs returns module account addresses that should not
// receive coins directly. Fee income reaches the rewards vault only through
// the ledger, so it stays blocked too.
func BlockedModuleAccountAddrs(maccPerms map[string][]string) map[string]bool {
	blockedAddrs := make(map[string]bool)
	for acc := range maccPerms {
		blockedAddrs[authtypes.NewModuleAddress(acc).String()] = true
	}
	return blockedAddrs
}
