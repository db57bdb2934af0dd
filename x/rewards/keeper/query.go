package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// QueryServer defines the rewards QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns the pool snapshot and module params
func (q *QueryServer) Pool(ctx context.Context) (*types.QueryPoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	return &types.QueryPoolResponse{
		Pool:   pool,
		Params: q.keeper.GetParams(sdkCtx),
	}, nil
}

// Entry returns owner's entry with its current value and accrued fees
func (q *QueryServer) Entry(ctx context.Context, owner string) (*types.QueryEntryResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	addr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "owner %q: %s", owner, err)
	}
	pool := q.keeper.GetPool(sdkCtx)
	if pool == nil {
		return nil, types.ErrNotInitialized
	}
	entry := q.keeper.GetEntry(sdkCtx, addr)
	if entry == nil {
		return nil, errorsmod.Wrapf(types.ErrEntryNotFound, "owner %s", owner)
	}

	value, earned, err := entry.Earned(pool)
	if err != nil {
		return nil, err
	}
	return &types.QueryEntryResponse{
		Entry:  entry,
		Value:  value.String(),
		Earned: earned.String(),
	}, nil
}

// Params returns the module parameters
func (q *QueryServer) Params(ctx context.Context) (*types.Params, error) {
	params := q.keeper.GetParams(sdk.UnwrapSDKContext(ctx))
	return &params, nil
}

// Claimable returns what owner would receive by claiming now
func (q *QueryServer) Claimable(ctx context.Context, owner string) (*types.QueryClaimableResponse, error) {
	resp, err := q.Entry(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &types.QueryClaimableResponse{
		Owner:  owner,
		Value:  resp.Value,
		Earned: resp.Earned,
	}, nil
}
