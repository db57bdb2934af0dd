package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	pruningtypes "cosmossdk.io/store/pruning/types"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/api/types"
	"github.com/openalpha/nos-rewards/api/websocket"
	"github.com/openalpha/nos-rewards/metrics"
	"github.com/openalpha/nos-rewards/x/rewards/keeper"
	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// Publisher receives ledger updates for streaming
type Publisher interface {
	PublishPool(pool *websocket.PoolMessage)
	PublishEntry(entry *websocket.EntryMessage)
}

// LedgerServiceConfig configures the in-process ledger
type LedgerServiceConfig struct {
	Authority    string
	Denom        string
	EnableFaucet bool

	// DataDir keeps the ledger in a goleveldb database there. Empty runs in memory.
	DataDir string
}

// LedgerService implements types.LedgerService by running the rewards keeper
// in-process on IAVL stores. One mutex serializes every call, so each
// operation sees the state left by the previous one. Successful mutations are
// committed as a new store version.
type LedgerService struct {
	keeper      *keeper.Keeper
	msgServer   *keeper.MsgServer
	queryServer *keeper.QueryServer
	bank        *storeBank
	staking     *stakeBook

	db         dbm.DB
	stateStore storetypes.CommitMultiStore
	ctx        sdk.Context
	mu         sync.Mutex

	config    LedgerServiceConfig
	publisher Publisher
	metrics   *metrics.Collector
	logger    log.Logger
}

// NewLedgerService opens the ledger and initializes its pool, or resumes the
// pool found in DataDir. publisher and collector may be nil.
func NewLedgerService(config LedgerServiceConfig, publisher Publisher, collector *metrics.Collector, logger log.Logger) (*LedgerService, error) {
	if _, err := sdk.AccAddressFromBech32(config.Authority); err != nil {
		return nil, errorsmod.Wrapf(rewardstypes.ErrInvalidAddress, "authority %q: %s", config.Authority, err)
	}
	if config.Denom == "" {
		config.Denom = rewardstypes.DefaultDenom
	}
	params := rewardstypes.Params{Denom: config.Denom}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	db, err := openDB(config.DataDir)
	if err != nil {
		return nil, err
	}

	rewardsKey := storetypes.NewKVStoreKey(rewardstypes.StoreKey)
	bankKey := storetypes.NewKVStoreKey("bank")
	stakingKey := storetypes.NewKVStoreKey("staking")
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	stateStore.SetPruning(pruningtypes.NewPruningOptions(pruningtypes.PruningEverything))
	for _, key := range []*storetypes.KVStoreKey{rewardsKey, bankKey, stakingKey} {
		stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := stateStore.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	height := stateStore.LastCommitID().Version
	if height < 1 {
		height = 1
	}
	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: height,
	}, false, logger)

	bank := newStoreBank(bankKey)
	staking := newStakeBook(stakingKey)
	k := keeper.NewKeeper(rewardsKey, staking, bank, config.Authority, logger)

	s := &LedgerService{
		keeper:      k,
		msgServer:   keeper.NewMsgServerImpl(k),
		queryServer: keeper.NewQueryServerImpl(k),
		bank:        bank,
		staking:     staking,
		db:          db,
		stateStore:  stateStore,
		ctx:         ctx,
		config:      config,
		publisher:   publisher,
		metrics:     collector,
		logger:      logger.With("service", "ledger"),
	}

	if pool := k.GetPool(ctx); pool != nil {
		stored := k.GetParams(ctx)
		if stored.Denom != config.Denom {
			db.Close()
			return nil, fmt.Errorf("ledger in %s uses denom %s, configured %s", config.DataDir, stored.Denom, config.Denom)
		}
		s.logger.Info("Resuming ledger", "version", height, "share_total", pool.ShareTotal.String(), "principal_total", pool.PrincipalTotal.String())
	} else {
		k.SetParams(ctx, params)
		if _, err := s.msgServer.Init(ctx, &rewardstypes.MsgInit{Authority: config.Authority}); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize pool: %w", err)
		}
		s.commit()
	}
	s.publishPool()
	return s, nil
}

func openDB(dir string) (dbm.DB, error) {
	if dir == "" {
		return dbm.NewMemDB(), nil
	}
	db, err := dbm.NewDB("ledger", dbm.GoLevelDBBackend, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database in %s: %w", dir, err)
	}
	return db, nil
}

// commit must be called with s.mu held
func (s *LedgerService) commit() {
	id := s.stateStore.Commit()
	s.logger.Debug("Committed ledger", "version", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
}

// Shutdown closes the ledger database
func (s *LedgerService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// execute runs one mutation in a fresh block context
func (s *LedgerService) execute(op string, fn func(ctx sdk.Context) error) error {
	timer := metrics.NewTimer()
	s.ctx = s.ctx.
		WithBlockHeight(s.ctx.BlockHeight() + 1).
		WithBlockTime(time.Now()).
		WithEventManager(sdk.NewEventManager())

	err := fn(s.ctx)
	if s.metrics != nil {
		s.metrics.RecordOperation(op, err, timer.ElapsedMs())
		if rewardstypes.IsInternal(err) {
			s.metrics.RecordViolation(op)
		}
	}
	if err != nil {
		return err
	}

	for _, event := range s.ctx.EventManager().Events() {
		s.logger.Debug("Ledger event", "type", event.Type, "height", s.ctx.BlockHeight())
	}
	s.commit()
	s.publishPool()
	return nil
}

// publishPool must be called with s.mu held
func (s *LedgerService) publishPool() {
	pool := s.keeper.GetPool(s.ctx)
	if pool == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordPool(pool.ShareTotal, pool.PrincipalTotal, pool.Rate)
	}
	if s.publisher != nil {
		s.publisher.PublishPool(&websocket.PoolMessage{
			ShareTotal:     pool.ShareTotal.String(),
			PrincipalTotal: pool.PrincipalTotal.String(),
			Rate:           pool.Rate.String(),
			Height:         s.ctx.BlockHeight(),
			Timestamp:      s.ctx.BlockTime().Unix(),
		})
	}
}

func (s *LedgerService) publishEntry(msg *websocket.EntryMessage) {
	if s.publisher == nil {
		return
	}
	msg.Timestamp = s.ctx.BlockTime().Unix()
	s.publisher.PublishEntry(msg)
}

// ============================================================================
// Queries
// ============================================================================

// Pool returns the pool snapshot
func (s *LedgerService) Pool(ctx context.Context) (*rewardstypes.QueryPoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryServer.Pool(s.ctx)
}

// Entry returns owner's entry
func (s *LedgerService) Entry(ctx context.Context, owner string) (*rewardstypes.QueryEntryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryServer.Entry(s.ctx, owner)
}

// Claimable previews owner's claim
func (s *LedgerService) Claimable(ctx context.Context, owner string) (*rewardstypes.QueryClaimableResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryServer.Claimable(s.ctx, owner)
}

// Balance returns address's fee-token balance
func (s *LedgerService) Balance(ctx context.Context, address string) (*types.BalanceResponse, error) {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, errorsmod.Wrapf(rewardstypes.ErrInvalidAddress, "address %q: %s", address, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance(addr), nil
}

func (s *LedgerService) balance(addr sdk.AccAddress) *types.BalanceResponse {
	return &types.BalanceResponse{
		Address: addr.String(),
		Denom:   s.config.Denom,
		Amount:  s.bank.Balance(s.ctx, addr).AmountOf(s.config.Denom).String(),
	}
}

// VaultBalance returns the fee tokens held for unclaimed income
func (s *LedgerService) VaultBalance() math.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank.ModuleBalance(s.ctx, rewardstypes.VaultName).AmountOf(s.config.Denom)
}

// Health reports liveness
func (s *LedgerService) Health(ctx context.Context) *types.HealthResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &types.HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().Unix(),
		Initialized: s.keeper.GetPool(s.ctx) != nil,
		Height:      s.ctx.BlockHeight(),
	}
}

// ============================================================================
// Ledger operations
// ============================================================================

// Enter opens an entry for the staker's current stake
func (s *LedgerService) Enter(ctx context.Context, req *types.EnterRequest) (*rewardstypes.MsgEnterResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp *rewardstypes.MsgEnterResponse
	err := s.execute(rewardstypes.TypeMsgEnter, func(ctx sdk.Context) error {
		var err error
		resp, err = s.msgServer.Enter(ctx, &rewardstypes.MsgEnter{Staker: req.Staker})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntries(1)
	}
	s.publishEntry(&websocket.EntryMessage{
		Owner:     req.Staker,
		Event:     rewardstypes.TypeMsgEnter,
		Principal: resp.Principal,
		Shares:    resp.Shares,
	})
	return resp, nil
}

// AddFee pays fee income into the pool
func (s *LedgerService) AddFee(ctx context.Context, req *types.AddFeeRequest) (*rewardstypes.MsgAddFeeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp *rewardstypes.MsgAddFeeResponse
	err := s.execute(rewardstypes.TypeMsgAddFee, func(ctx sdk.Context) error {
		var err error
		resp, err = s.msgServer.AddFee(ctx, &rewardstypes.MsgAddFee{Payer: req.Payer, Amount: req.Amount})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordFeeAdded(req.Amount)
	}
	return resp, nil
}

// Claim pays out the staker's accrued fees
func (s *LedgerService) Claim(ctx context.Context, req *types.ClaimRequest) (*rewardstypes.MsgClaimResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp *rewardstypes.MsgClaimResponse
	err := s.execute(rewardstypes.TypeMsgClaim, func(ctx sdk.Context) error {
		var err error
		resp, err = s.msgServer.Claim(ctx, &rewardstypes.MsgClaim{Staker: req.Staker})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntries(-1)
		s.metrics.RecordClaim(mustNewIntFromString(resp.Earned))
	}
	s.publishEntry(&websocket.EntryMessage{
		Owner:  req.Staker,
		Event:  rewardstypes.TypeMsgClaim,
		Amount: resp.Earned,
	})
	return resp, nil
}

// Close removes an entry without paying out
func (s *LedgerService) Close(ctx context.Context, req *types.CloseRequest) (*rewardstypes.MsgCloseResponse, error) {
	authority := req.Authority
	if authority == "" {
		authority = req.Owner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var resp *rewardstypes.MsgCloseResponse
	err := s.execute(rewardstypes.TypeMsgClose, func(ctx sdk.Context) error {
		var err error
		resp, err = s.msgServer.Close(ctx, &rewardstypes.MsgClose{Authority: authority, Owner: req.Owner})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntries(-1)
		s.metrics.RecordForfeit(mustNewIntFromString(resp.Forfeited))
	}
	s.publishEntry(&websocket.EntryMessage{
		Owner:  req.Owner,
		Event:  rewardstypes.TypeMsgClose,
		Amount: resp.Forfeited,
	})
	return resp, nil
}

// ============================================================================
// Staking and funding
// ============================================================================

// SetStake records a participant's stake in the gateway's staking book
func (s *LedgerService) SetStake(ctx context.Context, req *types.StakeRequest) (*types.StakeResponse, error) {
	owner, err := sdk.AccAddressFromBech32(req.Owner)
	if err != nil {
		return nil, errorsmod.Wrapf(rewardstypes.ErrInvalidAddress, "owner %q: %s", req.Owner, err)
	}
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || amount.IsNegative() || amount.GT(rewardstypes.MaxUint128) {
		return nil, errorsmod.Wrapf(rewardstypes.ErrInvalidAmount, "stake amount %q", req.Amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stake := s.staking.Set(s.ctx.WithBlockTime(time.Now()), owner, amount, req.Unstaking)
	s.commit()
	s.logger.Info("Stake updated", "owner", req.Owner, "amount", stake.Amount.String(), "time_unstake", stake.TimeUnstake)
	return &types.StakeResponse{
		Owner:       owner.String(),
		Amount:      stake.Amount.String(),
		TimeUnstake: stake.TimeUnstake,
	}, nil
}

// Fund credits fee tokens to an account so it can pay fees
func (s *LedgerService) Fund(ctx context.Context, req *types.FundRequest) (*types.BalanceResponse, error) {
	if !s.config.EnableFaucet {
		return nil, errorsmod.Wrap(rewardstypes.ErrUnauthorized, "faucet is disabled")
	}
	addr, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		return nil, errorsmod.Wrapf(rewardstypes.ErrInvalidAddress, "address %q: %s", req.Address, err)
	}
	if req.Amount == 0 {
		return nil, errorsmod.Wrap(rewardstypes.ErrInvalidAmount, "fund amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coins := sdk.NewCoins(sdk.NewCoin(s.config.Denom, math.NewIntFromUint64(req.Amount)))
	s.bank.Mint(s.ctx, addr, coins)
	s.commit()
	s.logger.Info("Account funded", "address", req.Address, "amount", coins.String())
	return s.balance(addr), nil
}

var _ types.LedgerService = (*LedgerService)(nil)

// mustNewIntFromString parses a base-10 integer string, panicking if it is invalid
func mustNewIntFromString(s string) math.Int {
	v, ok := math.NewIntFromString(s)
	if !ok {
		panic(fmt.Sprintf("invalid integer string %q", s))
	}
	return v
}
