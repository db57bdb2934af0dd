package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// Claim pays staker the fees their entry has earned and removes the entry.
// The entry's whole current value leaves the pool; only the earned excess is
// transferred since the entered principal stays backed by the stake itself.
func (k *Keeper) Claim(goCtx context.Context, staker sdk.AccAddress) (math.Int, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	var earned math.Int
	err := k.atomically(ctx, types.TypeMsgClaim, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		entry := k.GetEntry(ctx, staker)
		if entry == nil {
			return errorsmod.Wrapf(types.ErrEntryNotFound, "staker %s", staker)
		}

		stake, found := k.stakingKeeper.GetStake(ctx, staker)
		if !found {
			return errorsmod.Wrapf(types.ErrStakeNotFound, "staker %s", staker)
		}
		if stake.IsWithdrawing() {
			return errorsmod.Wrapf(types.ErrAlreadyWithdrawing, "staker %s unstaked at %d", staker, stake.TimeUnstake)
		}
		// TODO: weigh the guard by xNOS once the staking view exposes it
		if stake.Amount.IsNil() || stake.Amount.LT(entry.PrincipalOwned) {
			return errorsmod.Wrapf(types.ErrPrincipalDecreased, "staked %s, entered with %s", stake.Amount, entry.PrincipalOwned)
		}

		var value math.Int
		if value, earned, err = entry.Earned(pool); err != nil {
			return err
		}
		// the vault only backs fees, so the entry's principal always leaves
		if err := pool.Burn(entry.ShareOwned, math.MaxInt(value, entry.PrincipalOwned)); err != nil {
			return err
		}
		if !earned.IsUint64() {
			return errorsmod.Wrapf(types.ErrOverflow, "earned %s exceeds a token amount", earned)
		}

		if earned.IsPositive() {
			coins := sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).Denom, earned))
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.VaultName, staker, coins); err != nil {
				return errorsmod.Wrapf(err, "transfer %s from vault to %s", coins, staker)
			}
		}

		k.SetPool(ctx, pool)
		k.DeleteEntry(ctx, staker)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeClaim,
				sdk.NewAttribute(types.AttributeKeyOwner, entry.Owner),
				sdk.NewAttribute(types.AttributeKeyPrincipal, entry.PrincipalOwned.String()),
				sdk.NewAttribute(types.AttributeKeyShares, entry.ShareOwned.String()),
				sdk.NewAttribute(types.AttributeKeyEarned, earned.String()),
				sdk.NewAttribute(types.AttributeKeyRate, pool.Rate.String()),
			),
		)
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}

	k.logger.Info("Fees claimed", "owner", staker.String(), "earned", earned.String())
	return earned, nil
}
