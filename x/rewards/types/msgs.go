package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgInit   = "init"
	TypeMsgEnter  = "enter"
	TypeMsgAddFee = "add_fee"
	TypeMsgClaim  = "claim"
	TypeMsgClose  = "close"
)

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "%s %q: %s", field, addr, err)
	}
	return nil
}

func signer(addr string) []sdk.AccAddress {
	acc, _ := sdk.AccAddressFromBech32(addr)
	return []sdk.AccAddress{acc}
}

// MsgInit creates the reward pool
type MsgInit struct {
	Authority string `json:"authority"`
}

// Route implements sdk.Msg
func (msg MsgInit) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgInit) Type() string { return TypeMsgInit }

// ValidateBasic implements sdk.Msg
func (msg MsgInit) ValidateBasic() error {
	return validateAddress("authority", msg.Authority)
}

// GetSigners implements sdk.Msg
func (msg MsgInit) GetSigners() []sdk.AccAddress { return signer(msg.Authority) }

// ProtoMessage implements proto.Message
func (*MsgInit) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgInit) Reset() { *msg = MsgInit{} }

// String implements proto.Message
func (msg MsgInit) String() string {
	return fmt.Sprintf("MsgInit{Authority: %s}", msg.Authority)
}

// MsgInitResponse defines the Init response
type MsgInitResponse struct {
	Rate string `json:"rate"`
}

// MsgEnter opens a reward entry for the staker's current stake
type MsgEnter struct {
	Staker string `json:"staker"`
}

// Route implements sdk.Msg
func (msg MsgEnter) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgEnter) Type() string { return TypeMsgEnter }

// ValidateBasic implements sdk.Msg
func (msg MsgEnter) ValidateBasic() error {
	return validateAddress("staker", msg.Staker)
}

// GetSigners implements sdk.Msg
func (msg MsgEnter) GetSigners() []sdk.AccAddress { return signer(msg.Staker) }

// ProtoMessage implements proto.Message
func (*MsgEnter) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgEnter) Reset() { *msg = MsgEnter{} }

// String implements proto.Message
func (msg MsgEnter) String() string {
	return fmt.Sprintf("MsgEnter{Staker: %s}", msg.Staker)
}

// MsgEnterResponse defines the Enter response
type MsgEnterResponse struct {
	Principal string `json:"principal"`
	Shares    string `json:"shares"`
}

// MsgAddFee pays fee income into the pool
type MsgAddFee struct {
	Payer  string `json:"payer"`
	Amount uint64 `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgAddFee) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgAddFee) Type() string { return TypeMsgAddFee }

// ValidateBasic implements sdk.Msg
func (msg MsgAddFee) ValidateBasic() error {
	if err := validateAddress("payer", msg.Payer); err != nil {
		return err
	}
	if msg.Amount == 0 {
		return errorsmod.Wrap(ErrInvalidAmount, "fee amount must be positive")
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgAddFee) GetSigners() []sdk.AccAddress { return signer(msg.Payer) }

// ProtoMessage implements proto.Message
func (*MsgAddFee) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgAddFee) Reset() { *msg = MsgAddFee{} }

// String implements proto.Message
func (msg MsgAddFee) String() string {
	return fmt.Sprintf("MsgAddFee{Payer: %s, Amount: %d}", msg.Payer, msg.Amount)
}

// MsgAddFeeResponse defines the AddFee response
type MsgAddFeeResponse struct {
	Rate string `json:"rate"`
}

// MsgClaim pays out the staker's accrued fees and closes the entry
type MsgClaim struct {
	Staker string `json:"staker"`
}

// Route implements sdk.Msg
func (msg MsgClaim) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgClaim) Type() string { return TypeMsgClaim }

// ValidateBasic implements sdk.Msg
func (msg MsgClaim) ValidateBasic() error {
	return validateAddress("staker", msg.Staker)
}

// GetSigners implements sdk.Msg
func (msg MsgClaim) GetSigners() []sdk.AccAddress { return signer(msg.Staker) }

// ProtoMessage implements proto.Message
func (*MsgClaim) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClaim) Reset() { *msg = MsgClaim{} }

// String implements proto.Message
func (msg MsgClaim) String() string {
	return fmt.Sprintf("MsgClaim{Staker: %s}", msg.Staker)
}

// MsgClaimResponse defines the Claim response
type MsgClaimResponse struct {
	Earned string `json:"earned"`
}

// MsgClose removes Owner's entry without paying out. Authority is the signer;
// it must be Owner unless Owner's stake is withdrawing or gone.
type MsgClose struct {
	Authority string `json:"authority"`
	Owner     string `json:"owner"`
}

// Route implements sdk.Msg
func (msg MsgClose) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgClose) Type() string { return TypeMsgClose }

// ValidateBasic implements sdk.Msg
func (msg MsgClose) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	return validateAddress("owner", msg.Owner)
}

// GetSigners implements sdk.Msg
func (msg MsgClose) GetSigners() []sdk.AccAddress { return signer(msg.Authority) }

// ProtoMessage implements proto.Message
func (*MsgClose) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClose) Reset() { *msg = MsgClose{} }

// String implements proto.Message
func (msg MsgClose) String() string {
	return fmt.Sprintf("MsgClose{Authority: %s, Owner: %s}", msg.Authority, msg.Owner)
}

// MsgCloseResponse defines the Close response
type MsgCloseResponse struct {
	Forfeited string `json:"forfeited"`
}
