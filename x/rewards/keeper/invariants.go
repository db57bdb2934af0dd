package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

// RegisterInvariants registers the ledger invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k *Keeper) {
	ir.RegisterRoute(types.ModuleName, "share-total", ShareTotalInvariant(k))
	ir.RegisterRoute(types.ModuleName, "principal-backing", PrincipalBackingInvariant(k))
	ir.RegisterRoute(types.ModuleName, "rate-consistency", RateConsistencyInvariant(k))
}

// AllInvariants runs every ledger invariant
func AllInvariants(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			ShareTotalInvariant(k),
			PrincipalBackingInvariant(k),
			RateConsistencyInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// ShareTotalInvariant checks the pool's share total equals the sum over entries
func ShareTotalInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pool := k.GetPool(ctx)
		if pool == nil {
			return sdk.FormatInvariant(types.ModuleName, "share-total", "pool not initialized"), false
		}

		sum := math.ZeroInt()
		k.IterateEntries(ctx, func(entry *types.ParticipantShare) bool {
			sum = sum.Add(entry.ShareOwned)
			return false
		})

		broken := !sum.Equal(pool.ShareTotal)
		return sdk.FormatInvariant(types.ModuleName, "share-total",
			fmt.Sprintf("pool share total %s, entries hold %s", pool.ShareTotal, sum)), broken
	}
}

// PrincipalBackingInvariant checks the pool covers every entry's principal and
// that no entry is worth less than it put in beyond rounding
func PrincipalBackingInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pool := k.GetPool(ctx)
		if pool == nil {
			return sdk.FormatInvariant(types.ModuleName, "principal-backing", "pool not initialized"), false
		}

		var (
			sum    = math.ZeroInt()
			msg    string
			broken bool
		)
		k.IterateEntries(ctx, func(entry *types.ParticipantShare) bool {
			sum = sum.Add(entry.PrincipalOwned)
			if _, _, err := entry.Earned(pool); err != nil {
				msg = fmt.Sprintf("entry of %s: %s\n", entry.Owner, err)
				broken = true
				return true
			}
			return false
		})
		if !broken && sum.GT(pool.PrincipalTotal) {
			msg = fmt.Sprintf("pool principal total %s below entries' %s\n", pool.PrincipalTotal, sum)
			broken = true
		}
		return sdk.FormatInvariant(types.ModuleName, "principal-backing", msg), broken
	}
}

// RateConsistencyInvariant checks the cached rate matches the totals
func RateConsistencyInvariant(k *Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pool := k.GetPool(ctx)
		if pool == nil {
			return sdk.FormatInvariant(types.ModuleName, "rate-consistency", "pool not initialized"), false
		}
		if err := pool.Validate(); err != nil {
			return sdk.FormatInvariant(types.ModuleName, "rate-consistency", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "rate-consistency", "rate "+pool.Rate.String()), false
	}
}
