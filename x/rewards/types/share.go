package types

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ParticipantShare is one participant's slice of the pool. Both amounts are
// fixed when the entry is created and never change until it is removed.
type ParticipantShare struct {
	Owner           string   `json:"owner"`
	PrincipalOwned  math.Int `json:"principal_owned"`
	ShareOwned      math.Int `json:"share_owned"`
	EnteredAtHeight int64    `json:"entered_at_height"`
}

// NewParticipantShare creates an entry record
func NewParticipantShare(owner string, principal, shares math.Int, height int64) *ParticipantShare {
	return &ParticipantShare{
		Owner:           owner,
		PrincipalOwned:  principal,
		ShareOwned:      shares,
		EnteredAtHeight: height,
	}
}

// Value returns what the entry's shares are worth at the pool's current rate
func (s *ParticipantShare) Value(pool *Pool) (math.Int, error) {
	return pool.ToPrincipal(s.ShareOwned)
}

// Earned returns the fee income accrued by the entry since it was created.
// Shares minted by rounding down can leave an entry worth one unit less than
// its principal until fees arrive; such an entry has earned nothing. Anything
// further below is a ledger violation.
func (s *ParticipantShare) Earned(pool *Pool) (value, earned math.Int, err error) {
	value, err = s.Value(pool)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	if value.AddRaw(1).LT(s.PrincipalOwned) {
		return math.Int{}, math.Int{}, errorsmod.Wrapf(ErrNegativeEarnings,
			"owner %s value %s principal %s", s.Owner, value, s.PrincipalOwned)
	}
	if value.LT(s.PrincipalOwned) {
		return value, math.ZeroInt(), nil
	}
	return value, value.Sub(s.PrincipalOwned), nil
}

// Validate performs stateless checks
func (s *ParticipantShare) Validate() error {
	if _, err := sdk.AccAddressFromBech32(s.Owner); err != nil {
		return errorsmod.Wrapf(ErrInvalidAddress, "owner %q: %s", s.Owner, err)
	}
	if err := checkUint128(s.PrincipalOwned, s.ShareOwned); err != nil {
		return err
	}
	if !s.PrincipalOwned.IsPositive() {
		return errorsmod.Wrapf(ErrInvalidAmount, "owner %s has no principal", s.Owner)
	}
	return nil
}
