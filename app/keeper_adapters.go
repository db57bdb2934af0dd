package app

import (
	"context"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	stakingkeeper "github.com/cosmos/cosmos-sdk/x/staking/keeper"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// maxUnbondingScan bounds how many unbonding records are read per lookup
const maxUnbondingScan = 16

// rewardsStakingAdapter presents SDK delegations as the rewards ledger's stake
// view. The principal is the delegator's bonded tokens; a stake is withdrawing
// from the moment its earliest pending unbonding started.
type rewardsStakingAdapter struct {
	keeper *stakingkeeper.Keeper
}

func newRewardsStakingAdapter(keeper *stakingkeeper.Keeper) rewardstypes.StakingKeeper {
	return rewardsStakingAdapter{keeper: keeper}
}

func (a rewardsStakingAdapter) GetStake(ctx context.Context, staker sdk.AccAddress) (rewardstypes.Stake, bool) {
	if a.keeper == nil {
		return rewardstypes.Stake{}, false
	}

	bonded, err := a.keeper.GetDelegatorBonded(ctx, staker)
	if err != nil {
		return rewardstypes.Stake{}, false
	}
	ubds, err := a.keeper.GetUnbondingDelegations(ctx, staker, maxUnbondingScan)
	if err != nil {
		return rewardstypes.Stake{}, false
	}
	if !bonded.IsPositive() && len(ubds) == 0 {
		return rewardstypes.Stake{}, false
	}

	stake := rewardstypes.Stake{Amount: bonded}

	var earliest time.Time
	for _, ubd := range ubds {
		for _, entry := range ubd.Entries {
			if earliest.IsZero() || entry.CompletionTime.Before(earliest) {
				earliest = entry.CompletionTime
			}
		}
	}
	if !earliest.IsZero() {
		unbondingTime, err := a.keeper.UnbondingTime(ctx)
		if err != nil {
			return rewardstypes.Stake{}, false
		}
		stake.TimeUnstake = earliest.Add(-unbondingTime).Unix()
		if stake.TimeUnstake <= 0 {
			stake.TimeUnstake = 1
		}
	}

	return stake, true
}
