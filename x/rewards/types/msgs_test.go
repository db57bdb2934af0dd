package types_test

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

func TestMsgValidateBasic(t *testing.T) {
	addr := sdk.AccAddress([]byte("msg_signer__________")).String()

	tests := []struct {
		name string
		msg  interface{ ValidateBasic() error }
		err  error
	}{
		{"init", types.MsgInit{Authority: addr}, nil},
		{"init bad authority", types.MsgInit{Authority: "x"}, types.ErrInvalidAddress},
		{"enter", types.MsgEnter{Staker: addr}, nil},
		{"enter bad staker", types.MsgEnter{}, types.ErrInvalidAddress},
		{"add fee", types.MsgAddFee{Payer: addr, Amount: 1}, nil},
		{"add fee zero", types.MsgAddFee{Payer: addr}, types.ErrInvalidAmount},
		{"claim", types.MsgClaim{Staker: addr}, nil},
		{"close", types.MsgClose{Authority: addr, Owner: addr}, nil},
		{"close bad owner", types.MsgClose{Authority: addr, Owner: "x"}, types.ErrInvalidAddress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.ValidateBasic()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMsgSigners(t *testing.T) {
	owner := sdk.AccAddress([]byte("owner_______________"))
	closer := sdk.AccAddress([]byte("closer______________"))
	msg := types.MsgClose{Authority: closer.String(), Owner: owner.String()}
	require.Equal(t, []sdk.AccAddress{closer}, msg.GetSigners())
}
