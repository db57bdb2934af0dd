package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// Close removes owner's entry without paying anything. Only the entered
// principal leaves the pool, so unclaimed fees stay behind for the remaining
// holders. The owner may close at any time; anyone else only once the owner's
// stake is withdrawing or no longer exists.
func (k *Keeper) Close(goCtx context.Context, authority, owner sdk.AccAddress) (math.Int, error) {
	ctx := sdk.UnwrapSDKContext(goCtx)

	var forfeited math.Int
	err := k.atomically(ctx, types.TypeMsgClose, func(ctx sdk.Context) error {
		pool, err := k.mustGetPool(ctx)
		if err != nil {
			return err
		}
		entry := k.GetEntry(ctx, owner)
		if entry == nil {
			return errorsmod.Wrapf(types.ErrEntryNotFound, "owner %s", owner)
		}

		if !authority.Equals(owner) {
			stake, found := k.stakingKeeper.GetStake(ctx, owner)
			if found && !stake.IsWithdrawing() {
				return errorsmod.Wrapf(types.ErrUnauthorized, "%s cannot close the active entry of %s", authority, owner)
			}
		}

		if _, forfeited, err = entry.Earned(pool); err != nil {
			return err
		}
		if err := pool.Burn(entry.ShareOwned, entry.PrincipalOwned); err != nil {
			return err
		}

		k.SetPool(ctx, pool)
		k.DeleteEntry(ctx, owner)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeClose,
				sdk.NewAttribute(types.AttributeKeyOwner, entry.Owner),
				sdk.NewAttribute(types.AttributeKeyCloser, authority.String()),
				sdk.NewAttribute(types.AttributeKeyPrincipal, entry.PrincipalOwned.String()),
				sdk.NewAttribute(types.AttributeKeyShares, entry.ShareOwned.String()),
				sdk.NewAttribute(types.AttributeKeyForfeited, forfeited.String()),
				sdk.NewAttribute(types.AttributeKeyRate, pool.Rate.String()),
			),
		)
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}

	k.logger.Info("Entry closed",
		"owner", owner.String(),
		"closer", authority.String(),
		"forfeited", forfeited.String(),
	)
	return forfeited, nil
}
