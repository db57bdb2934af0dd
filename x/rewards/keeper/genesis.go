package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// InitGenesis loads the ledger from genesis. The state must already be validated.
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	k.SetParams(ctx, gs.Params)
	if gs.Pool == nil {
		return
	}
	k.SetPool(ctx, gs.Pool)

	for i := range gs.Entries {
		entry := gs.Entries[i]
		owner, err := sdk.AccAddressFromBech32(entry.Owner)
		if err != nil {
			panic(err)
		}
		k.SetEntry(ctx, owner, &entry)
	}
	k.logger.Info("Rewards genesis loaded", "entries", len(gs.Entries))
}

// ExportGenesis exports the ledger
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := &types.GenesisState{
		Params:  k.GetParams(ctx),
		Pool:    k.GetPool(ctx),
		Entries: []types.ParticipantShare{},
	}
	k.IterateEntries(ctx, func(entry *types.ParticipantShare) bool {
		gs.Entries = append(gs.Entries, *entry)
		return false
	})
	return gs
}
