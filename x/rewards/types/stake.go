package types

import "cosmossdk.io/math"

// Stake is the staking subsystem's view of a participant
type Stake struct {
	Amount math.Int `json:"amount"`
	// TimeUnstake is the unix time the stake began withdrawing, 0 while active
	TimeUnstake int64 `json:"time_unstake"`
}

// IsWithdrawing reports whether the participant has started unstaking
func (s Stake) IsWithdrawing() bool {
	return s.TimeUnstake != 0
}
