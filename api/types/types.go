package types

import (
	"context"

	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

// ============ Requests ============

// EnterRequest opens a reward entry for staker
type EnterRequest struct {
	Staker string `json:"staker"`
}

// AddFeeRequest pays fee income into the pool
type AddFeeRequest struct {
	Payer  string `json:"payer"`
	Amount uint64 `json:"amount"`
}

// ClaimRequest pays out staker's accrued fees
type ClaimRequest struct {
	Staker string `json:"staker"`
}

// CloseRequest removes owner's entry. Authority defaults to owner.
type CloseRequest struct {
	Authority string `json:"authority"`
	Owner     string `json:"owner"`
}

// StakeRequest sets a participant's stake in the gateway's staking book
type StakeRequest struct {
	Owner     string `json:"owner"`
	Amount    string `json:"amount"`
	Unstaking bool   `json:"unstaking"`
}

// FundRequest credits fee tokens to an account
type FundRequest struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// ============ Responses ============

// StakeResponse echoes the stake now on record
type StakeResponse struct {
	Owner       string `json:"owner"`
	Amount      string `json:"amount"`
	TimeUnstake int64  `json:"time_unstake"`
}

// BalanceResponse is an account's fee-token balance
type BalanceResponse struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// HealthResponse reports gateway liveness
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
	Initialized bool   `json:"initialized"`
	Height      int64  `json:"height"`
}

// ============ Services ============

// LedgerService runs the reward ledger operations behind the gateway
type LedgerService interface {
	Pool(ctx context.Context) (*rewardstypes.QueryPoolResponse, error)
	Entry(ctx context.Context, owner string) (*rewardstypes.QueryEntryResponse, error)
	Claimable(ctx context.Context, owner string) (*rewardstypes.QueryClaimableResponse, error)
	Balance(ctx context.Context, address string) (*BalanceResponse, error)
	Health(ctx context.Context) *HealthResponse

	Enter(ctx context.Context, req *EnterRequest) (*rewardstypes.MsgEnterResponse, error)
	AddFee(ctx context.Context, req *AddFeeRequest) (*rewardstypes.MsgAddFeeResponse, error)
	Claim(ctx context.Context, req *ClaimRequest) (*rewardstypes.MsgClaimResponse, error)
	Close(ctx context.Context, req *CloseRequest) (*rewardstypes.MsgCloseResponse, error)

	SetStake(ctx context.Context, req *StakeRequest) (*StakeResponse, error)
	Fund(ctx context.Context, req *FundRequest) (*BalanceResponse, error)

	// Shutdown releases the ledger's storage
	Shutdown() error
}
