package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// Keeper manages the rewards module state
type Keeper struct {
	storeKey      storetypes.StoreKey
	stakingKeeper types.StakingKeeper
	bankKeeper    types.BankKeeper
	logger        log.Logger
	authority     string
}

// NewKeeper creates a new rewards keeper
func NewKeeper(
	storeKey storetypes.StoreKey,
	stakingKeeper types.StakingKeeper,
	bankKeeper types.BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		storeKey:      storeKey,
		stakingKeeper: stakingKeeper,
		bankKeeper:    bankKeeper,
		authority:     authority,
		logger:        logger.With("module", "x/"+types.ModuleName),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the address allowed to initialize the pool
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool ============

// SetPool saves the pool
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	bz, err := json.Marshal(pool)
	if err != nil {
		panic(err)
	}
	k.GetStore(ctx).Set(types.PoolKey, bz)
}

// GetPool returns the pool, or nil before initialization
func (k *Keeper) GetPool(ctx sdk.Context) *types.Pool {
	bz := k.GetStore(ctx).Get(types.PoolKey)
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		k.logger.Error("Failed to unmarshal pool", "error", err)
		return nil
	}
	return &pool
}

func (k *Keeper) mustGetPool(ctx sdk.Context) (*types.Pool, error) {
	pool := k.GetPool(ctx)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	return pool, nil
}

// ============ Params ============

// SetParams saves the module parameters
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) {
	bz, err := json.Marshal(params)
	if err != nil {
		panic(err)
	}
	k.GetStore(ctx).Set(types.ParamsKey, bz)
}

// GetParams returns the module parameters, falling back to the defaults
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := k.GetStore(ctx).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		k.logger.Error("Failed to unmarshal params", "error", err)
		return types.DefaultParams()
	}
	return params
}

// ============ Entries ============

// SetEntry saves a participant's entry
func (k *Keeper) SetEntry(ctx sdk.Context, owner sdk.AccAddress, entry *types.ParticipantShare) {
	bz, err := json.Marshal(entry)
	if err != nil {
		panic(err)
	}
	k.GetStore(ctx).Set(types.EntryKey(owner), bz)
}

// GetEntry returns owner's entry, or nil if they have none
func (k *Keeper) GetEntry(ctx sdk.Context, owner sdk.AccAddress) *types.ParticipantShare {
	bz := k.GetStore(ctx).Get(types.EntryKey(owner))
	if bz == nil {
		return nil
	}
	var entry types.ParticipantShare
	if err := json.Unmarshal(bz, &entry); err != nil {
		k.logger.Error("Failed to unmarshal entry", "owner", owner.String(), "error", err)
		return nil
	}
	return &entry
}

// HasEntry reports whether owner has a live entry
func (k *Keeper) HasEntry(ctx sdk.Context, owner sdk.AccAddress) bool {
	return k.GetStore(ctx).Has(types.EntryKey(owner))
}

// DeleteEntry removes owner's entry
func (k *Keeper) DeleteEntry(ctx sdk.Context, owner sdk.AccAddress) {
	k.GetStore(ctx).Delete(types.EntryKey(owner))
}

// IterateEntries walks every live entry. Ledger operations never call it;
// it backs genesis export and the invariant checks.
func (k *Keeper) IterateEntries(ctx sdk.Context, cb func(entry *types.ParticipantShare) (stop bool)) {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), types.EntryKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var entry types.ParticipantShare
		if err := json.Unmarshal(iterator.Value(), &entry); err != nil {
			k.logger.Error("Failed to unmarshal entry", "key", iterator.Key(), "error", err)
			continue
		}
		if cb(&entry) {
			return
		}
	}
}

// atomically runs fn against a cached view of the store and commits only if fn
// succeeds, so a failing operation leaves no partial state behind
func (k *Keeper) atomically(ctx sdk.Context, op string, fn func(cacheCtx sdk.Context) error) error {
	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		if types.IsInternal(err) {
			k.logger.Error("Ledger consistency violation", "op", op, "error", err)
		}
		return err
	}
	write()
	return nil
}
