package types

import (
	"context"

	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterLegacyAminoCodec registers the rewards msgs on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgInit{}, "rewards/MsgInit", nil)
	cdc.RegisterConcrete(&MsgEnter{}, "rewards/MsgEnter", nil)
	cdc.RegisterConcrete(&MsgAddFee{}, "rewards/MsgAddFee", nil)
	cdc.RegisterConcrete(&MsgClaim{}, "rewards/MsgClaim", nil)
	cdc.RegisterConcrete(&MsgClose{}, "rewards/MsgClose", nil)
}

// Msgs returns an empty instance of every rewards msg
func Msgs() []sdk.Msg {
	return []sdk.Msg{
		&MsgInit{},
		&MsgEnter{},
		&MsgAddFee{},
		&MsgClaim{},
		&MsgClose{},
	}
}

// RegisterInterfaces registers the rewards msgs as sdk.Msg implementations
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil), Msgs()...)
}

// MsgServer defines the rewards message service
type MsgServer interface {
	Init(context.Context, *MsgInit) (*MsgInitResponse, error)
	Enter(context.Context, *MsgEnter) (*MsgEnterResponse, error)
	AddFee(context.Context, *MsgAddFee) (*MsgAddFeeResponse, error)
	Claim(context.Context, *MsgClaim) (*MsgClaimResponse, error)
	Close(context.Context, *MsgClose) (*MsgCloseResponse, error)
}

// XXX_MessageName returns the message type URL for MsgInit
func (msg *MsgInit) XXX_MessageName() string { return "nos.rewards.v1.MsgInit" }

// XXX_MessageName returns the message type URL for MsgEnter
func (msg *MsgEnter) XXX_MessageName() string { return "nos.rewards.v1.MsgEnter" }

// XXX_MessageName returns the message type URL for MsgAddFee
func (msg *MsgAddFee) XXX_MessageName() string { return "nos.rewards.v1.MsgAddFee" }

// XXX_MessageName returns the message type URL for MsgClaim
func (msg *MsgClaim) XXX_MessageName() string { return "nos.rewards.v1.MsgClaim" }

// XXX_MessageName returns the message type URL for MsgClose
func (msg *MsgClose) XXX_MessageName() string { return "nos.rewards.v1.MsgClose" }
