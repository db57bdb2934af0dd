package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// MsgServer defines the rewards MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

func parseAddress(field, addr string) (sdk.AccAddress, error) {
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidAddress, "%s %q: %s", field, addr, err)
	}
	return acc, nil
}

// Init handles MsgInit
func (m *MsgServer) Init(ctx context.Context, msg *types.MsgInit) (*types.MsgInitResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	pool, err := m.keeper.Init(ctx, msg.Authority)
	if err != nil {
		return nil, err
	}
	return &types.MsgInitResponse{Rate: pool.Rate.String()}, nil
}

// Enter handles MsgEnter
func (m *MsgServer) Enter(ctx context.Context, msg *types.MsgEnter) (*types.MsgEnterResponse, error) {
	staker, err := parseAddress("staker", msg.Staker)
	if err != nil {
		return nil, err
	}
	entry, err := m.keeper.Enter(ctx, staker)
	if err != nil {
		return nil, err
	}
	return &types.MsgEnterResponse{
		Principal: entry.PrincipalOwned.String(),
		Shares:    entry.ShareOwned.String(),
	}, nil
}

// AddFee handles MsgAddFee
func (m *MsgServer) AddFee(ctx context.Context, msg *types.MsgAddFee) (*types.MsgAddFeeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	payer, err := parseAddress("payer", msg.Payer)
	if err != nil {
		return nil, err
	}
	pool, err := m.keeper.AddFee(ctx, payer, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgAddFeeResponse{Rate: pool.Rate.String()}, nil
}

// Claim handles MsgClaim
func (m *MsgServer) Claim(ctx context.Context, msg *types.MsgClaim) (*types.MsgClaimResponse, error) {
	staker, err := parseAddress("staker", msg.Staker)
	if err != nil {
		return nil, err
	}
	earned, err := m.keeper.Claim(ctx, staker)
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimResponse{Earned: earned.String()}, nil
}

// Close handles MsgClose
func (m *MsgServer) Close(ctx context.Context, msg *types.MsgClose) (*types.MsgCloseResponse, error) {
	authority, err := parseAddress("authority", msg.Authority)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress("owner", msg.Owner)
	if err != nil {
		return nil, err
	}
	forfeited, err := m.keeper.Close(ctx, authority, owner)
	if err != nil {
		return nil, err
	}
	return &types.MsgCloseResponse{Forfeited: forfeited.String()}, nil
}

var _ types.MsgServer = (*MsgServer)(nil)
