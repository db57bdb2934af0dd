package types

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// GenesisState is the module's genesis state. A nil Pool leaves the ledger
// uninitialized until MsgInit is delivered.
type GenesisState struct {
	Params  Params             `json:"params"`
	Pool    *Pool              `json:"pool,omitempty"`
	Entries []ParticipantShare `json:"entries"`
}

// DefaultGenesis returns a genesis state with an empty, initialized pool
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:  DefaultParams(),
		Pool:    NewPool(),
		Entries: []ParticipantShare{},
	}
}

// Validate checks that the entries reconcile with the pool totals
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return errorsmod.Wrap(ErrInvalidGenesis, err.Error())
	}
	if gs.Pool == nil {
		if len(gs.Entries) > 0 {
			return errorsmod.Wrap(ErrInvalidGenesis, "entries without a pool")
		}
		return nil
	}
	if err := gs.Pool.Validate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(gs.Entries))
	shares := math.ZeroInt()
	principal := math.ZeroInt()
	for i := range gs.Entries {
		entry := &gs.Entries[i]
		if err := entry.Validate(); err != nil {
			return err
		}
		if _, dup := seen[entry.Owner]; dup {
			return errorsmod.Wrapf(ErrDuplicateEntry, "owner %s", entry.Owner)
		}
		seen[entry.Owner] = struct{}{}

		var err error
		if shares, err = CheckedAdd(shares, entry.ShareOwned); err != nil {
			return err
		}
		if principal, err = CheckedAdd(principal, entry.PrincipalOwned); err != nil {
			return err
		}
	}

	if !shares.Equal(gs.Pool.ShareTotal) {
		return errorsmod.Wrapf(ErrInvalidGenesis, "entries hold %s shares, pool %s", shares, gs.Pool.ShareTotal)
	}
	if principal.GT(gs.Pool.PrincipalTotal) {
		return errorsmod.Wrapf(ErrInvalidGenesis, "entries hold %s principal, pool only %s", principal, gs.Pool.PrincipalTotal)
	}
	return nil
}
