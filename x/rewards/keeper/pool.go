package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// Init creates the reward pool. Only the module authority may call it, once.
func (k *Keeper) Init(goCtx context.Context, authority string) (*types.Pool, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if authority != k.authority {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "expected %s, got %s", k.authority, authority)
	}
	if k.GetPool(ctx) != nil {
		return nil, types.ErrAlreadyInitialized
	}

	pool := types.NewPool()
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInit,
			sdk.NewAttribute(types.AttributeKeyRate, pool.Rate.String()),
		),
	)

	k.logger.Info("Reward pool initialized", "rate", pool.Rate.String())
	return pool, nil
}

// AddFee moves amount of the fee denom from payer into the vault and credits
// it to the pool without minting shares. Every holder's claimable value rises
// in proportion to their shares.
func (k *Keeper) AddFee(goCtx context.Context, payer sdk.AccAddress, amount uint64) (*types.Pool, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	if amount == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidAmount, "fee amount must be positive")
	}

	var pool *types.Pool
	err := k.atomically(ctx, types.TypeMsgAddFee, func(ctx sdk.Context) error {
		var err error
		if pool, err = k.mustGetPool(ctx); err != nil {
			return err
		}

		fee := math.NewIntFromUint64(amount)
		if err := pool.Deposit(fee); err != nil {
			return err
		}

		coins := sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).Denom, fee))
		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, payer, types.VaultName, coins); err != nil {
			return errorsmod.Wrapf(err, "transfer %s from %s to vault", coins, payer)
		}

		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeAddFee,
				sdk.NewAttribute(types.AttributeKeyPayer, payer.String()),
				sdk.NewAttribute(types.AttributeKeyAmount, fee.String()),
				sdk.NewAttribute(types.AttributeKeyRate, pool.Rate.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Fee added",
		"payer", payer.String(),
		"amount", amount,
		"principal_total", pool.PrincipalTotal.String(),
		"rate", pool.Rate.String(),
	)
	return pool, nil
}
