package types_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

func genesisWithEntries(t *testing.T, principals ...int64) *types.GenesisState {
	t.Helper()
	gs := types.DefaultGenesis()
	for i, p := range principals {
		shares, err := gs.Pool.Mint(math.NewInt(p))
		require.NoError(t, err)
		owner := sdk.AccAddress([]byte{byte(i + 1), 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20})
		gs.Entries = append(gs.Entries, *types.NewParticipantShare(owner.String(), math.NewInt(p), shares, 1))
	}
	return gs
}

func TestGenesisValidate(t *testing.T) {
	require.NoError(t, types.DefaultGenesis().Validate())
	require.NoError(t, (&types.GenesisState{Params: types.DefaultParams()}).Validate())

	gs := genesisWithEntries(t, 1000, 250)
	require.NoError(t, gs.Pool.Deposit(math.NewInt(90)))
	require.NoError(t, gs.Validate())

	tests := []struct {
		name   string
		mutate func(gs *types.GenesisState)
		err    error
	}{
		{"bad denom", func(gs *types.GenesisState) { gs.Params.Denom = "" }, types.ErrInvalidGenesis},
		{"entries without pool", func(gs *types.GenesisState) { gs.Pool = nil }, types.ErrInvalidGenesis},
		{"duplicate entry", func(gs *types.GenesisState) { gs.Entries[1].Owner = gs.Entries[0].Owner }, types.ErrDuplicateEntry},
		{"share mismatch", func(gs *types.GenesisState) { gs.Entries[0].ShareOwned = gs.Entries[0].ShareOwned.AddRaw(1) }, types.ErrInvalidGenesis},
		{"principal exceeds pool", func(gs *types.GenesisState) { gs.Entries[0].PrincipalOwned = math.NewInt(5000) }, types.ErrInvalidGenesis},
		{"bad owner", func(gs *types.GenesisState) { gs.Entries[0].Owner = "nope" }, types.ErrInvalidAddress},
		{"zero principal", func(gs *types.GenesisState) { gs.Entries[0].PrincipalOwned = math.ZeroInt() }, types.ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := genesisWithEntries(t, 1000, 250)
			tc.mutate(gs)
			require.ErrorIs(t, gs.Validate(), tc.err)
		})
	}
}
