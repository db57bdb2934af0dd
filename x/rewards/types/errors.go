package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Caller errors. The operation aborts with no state change and may be resubmitted.
var (
	ErrAlreadyWithdrawing = errorsmod.Register(ModuleName, 2, "stake is already being withdrawn")
	ErrPrincipalDecreased = errorsmod.Register(ModuleName, 3, "staked principal decreased below entered principal")
	ErrUnauthorized       = errorsmod.Register(ModuleName, 4, "unauthorized")
	ErrDuplicateEntry     = errorsmod.Register(ModuleName, 5, "participant already has a reward entry")
	ErrInvalidAmount      = errorsmod.Register(ModuleName, 6, "invalid amount")
	ErrEntryNotFound      = errorsmod.Register(ModuleName, 7, "reward entry not found")
	ErrStakeNotFound      = errorsmod.Register(ModuleName, 8, "stake not found")
	ErrNotInitialized     = errorsmod.Register(ModuleName, 9, "reward pool not initialized")
	ErrAlreadyInitialized = errorsmod.Register(ModuleName, 10, "reward pool already initialized")
	ErrInvalidAddress     = errorsmod.Register(ModuleName, 11, "invalid address")
	ErrInvalidGenesis     = errorsmod.Register(ModuleName, 12, "invalid genesis state")
)

// Internal consistency violations. These never occur while the ledger
// invariants hold; seeing one means the pool state is corrupt.
var (
	ErrOverflow         = errorsmod.Register(ModuleName, 20, "arithmetic overflow")
	ErrUnderflow        = errorsmod.Register(ModuleName, 21, "arithmetic underflow")
	ErrDivisionByZero   = errorsmod.Register(ModuleName, 22, "division by zero")
	ErrNegativeEarnings = errorsmod.Register(ModuleName, 23, "claimable value below entered principal")
)

// IsInternal reports whether err is an internal consistency violation
func IsInternal(err error) bool {
	return errors.Is(err, ErrOverflow) ||
		errors.Is(err, ErrUnderflow) ||
		errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrNegativeEarnings)
}
