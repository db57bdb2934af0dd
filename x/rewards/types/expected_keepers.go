package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// StakingKeeper reports a participant's current stake
type StakingKeeper interface {
	GetStake(ctx context.Context, staker sdk.AccAddress) (Stake, bool)
}

// BankKeeper moves fee tokens in and out of the vault
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}
