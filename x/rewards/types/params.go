package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// DefaultDenom is the fee token paid into and out of the vault
const DefaultDenom = "unos"

// Params defines the module parameters
type Params struct {
	Denom string `json:"denom"`
}

// DefaultParams returns the default module parameters
func DefaultParams() Params {
	return Params{Denom: DefaultDenom}
}

// Validate performs basic validation of the parameters
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.Denom); err != nil {
		return fmt.Errorf("invalid fee denom: %w", err)
	}
	return nil
}
