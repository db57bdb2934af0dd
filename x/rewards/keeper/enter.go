package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// Enter opens a reward entry for staker's current stake. The shares are minted
// at the rate prevailing before the entry, so existing holders' claimable
// values are unchanged.
func (k *Keeper) Enter(goCtx context.Context, staker sdk.AccAddress) (*types.ParticipantShare, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	var entry *types.ParticipantShare
	err := k.atomically(ctx, types.TypeMsgEnter, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		if k.HasEntry(ctx, staker) {
			return errorsmod.Wrapf(types.ErrDuplicateEntry, "staker %s", staker)
		}

		stake, found := k.stakingKeeper.GetStake(ctx, staker)
		if !found {
			return errorsmod.Wrapf(types.ErrStakeNotFound, "staker %s", staker)
		}
		if stake.IsWithdrawing() {
			return errorsmod.Wrapf(types.ErrAlreadyWithdrawing, "staker %s unstaked at %d", staker, stake.TimeUnstake)
		}
		if stake.Amount.IsNil() || !stake.Amount.IsPositive() {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "staker %s has no stake", staker)
		}

		shares, err := pool.Mint(stake.Amount)
		if err != nil {
			return err
		}

		entry = types.NewParticipantShare(staker.String(), stake.Amount, shares, ctx.BlockHeight())
		k.SetEntry(ctx, staker, entry)
		k.SetPool(ctx, pool)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeEnter,
				sdk.NewAttribute(types.AttributeKeyOwner, entry.Owner),
				sdk.NewAttribute(types.AttributeKeyPrincipal, entry.PrincipalOwned.String()),
				sdk.NewAttribute(types.AttributeKeyShares, entry.ShareOwned.String()),
				sdk.NewAttribute(types.AttributeKeyRate, pool.Rate.String()),
			),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.logger.Info("Entry created",
		"owner", entry.Owner,
		"principal", entry.PrincipalOwned.String(),
		"shares", entry.ShareOwned.String(),
	)
	return entry, nil
}
