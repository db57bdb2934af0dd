package api

import (
	"context"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

var (
	accountBalancePrefix = []byte{0x01}
	moduleBalancePrefix  = []byte{0x02}
)

// storeBank keeps fee-token balances in its own KVStore so bank transfers
// commit or roll back together with the ledger's cached context
type storeBank struct {
	storeKey storetypes.StoreKey
}

func newStoreBank(storeKey storetypes.StoreKey) *storeBank {
	return &storeBank{storeKey: storeKey}
}

func (b *storeBank) store(ctx context.Context, p []byte) prefix.Store {
	return prefix.NewStore(sdk.UnwrapSDKContext(ctx).KVStore(b.storeKey), p)
}

func (b *storeBank) get(ctx context.Context, p, key []byte) sdk.Coins {
	bz := b.store(ctx, p).Get(key)
	if bz == nil {
		return sdk.NewCoins()
	}
	var coins sdk.Coins
	if err := json.Unmarshal(bz, &coins); err != nil {
		panic(err)
	}
	return coins
}

func (b *storeBank) set(ctx context.Context, p, key []byte, coins sdk.Coins) {
	bz, err := json.Marshal(coins)
	if err != nil {
		panic(err)
	}
	b.store(ctx, p).Set(key, bz)
}

// Balance returns addr's holdings
func (b *storeBank) Balance(ctx context.Context, addr sdk.AccAddress) sdk.Coins {
	return b.get(ctx, accountBalancePrefix, addr)
}

// ModuleBalance returns a module account's holdings
func (b *storeBank) ModuleBalance(ctx context.Context, module string) sdk.Coins {
	return b.get(ctx, moduleBalancePrefix, []byte(module))
}

// Mint credits coins to addr
func (b *storeBank) Mint(ctx context.Context, addr sdk.AccAddress, coins sdk.Coins) {
	b.set(ctx, accountBalancePrefix, addr, b.Balance(ctx, addr).Add(coins...))
}

// SendCoinsFromAccountToModule implements the rewards BankKeeper
func (b *storeBank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	balance := b.Balance(ctx, senderAddr)
	remaining, negative := balance.SafeSub(amt...)
	if negative {
		return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", balance, amt)
	}
	b.set(ctx, accountBalancePrefix, senderAddr, remaining)
	b.set(ctx, moduleBalancePrefix, []byte(recipientModule), b.ModuleBalance(ctx, recipientModule).Add(amt...))
	return nil
}

// SendCoinsFromModuleToAccount implements the rewards BankKeeper
func (b *storeBank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	balance := b.ModuleBalance(ctx, senderModule)
	remaining, negative := balance.SafeSub(amt...)
	if negative {
		return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "module %s holds %s, needs %s", senderModule, balance, amt)
	}
	b.set(ctx, moduleBalancePrefix, []byte(senderModule), remaining)
	b.Mint(ctx, recipientAddr, amt)
	return nil
}

// stakeBook stands in for the staking program. Stakes are set through the
// gateway, kept in their own KVStore and read by the keeper.
type stakeBook struct {
	storeKey storetypes.StoreKey
}

func newStakeBook(storeKey storetypes.StoreKey) *stakeBook {
	return &stakeBook{storeKey: storeKey}
}

// GetStake implements the rewards StakingKeeper
func (b *stakeBook) GetStake(ctx context.Context, staker sdk.AccAddress) (rewardstypes.Stake, bool) {
	bz := sdk.UnwrapSDKContext(ctx).KVStore(b.storeKey).Get(staker)
	if bz == nil {
		return rewardstypes.Stake{}, false
	}
	var stake rewardstypes.Stake
	if err := json.Unmarshal(bz, &stake); err != nil {
		panic(err)
	}
	return stake, true
}

// Set records owner's stake. A zero amount removes it. Unstaking keeps an
// existing unstake time so repeated calls don't move it.
func (b *stakeBook) Set(ctx sdk.Context, owner sdk.AccAddress, amount math.Int, unstaking bool) rewardstypes.Stake {
	store := ctx.KVStore(b.storeKey)
	if amount.IsZero() {
		store.Delete(owner)
		return rewardstypes.Stake{Amount: math.ZeroInt()}
	}

	stake := rewardstypes.Stake{Amount: amount}
	if unstaking {
		stake.TimeUnstake = ctx.BlockTime().Unix()
		if prev, ok := b.GetStake(ctx, owner); ok && prev.IsWithdrawing() {
			stake.TimeUnstake = prev.TimeUnstake
		}
	}
	bz, err := json.Marshal(stake)
	if err != nil {
		panic(err)
	}
	store.Set(owner, bz)
	return stake
}
