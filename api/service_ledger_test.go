package api

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/nos-rewards/api/types"
	"github.com/openalpha/nos-rewards/api/websocket"
	rewardstypes "github.com/openalpha/nos-rewards/x/rewards/types"
)

func testAddr(b byte) string {
	return sdk.AccAddress(bytes.Repeat([]byte{b}, 20)).String()
}

var (
	testAuthority = testAddr(0xaa)
	testAlice     = testAddr(0x01)
	testBob       = testAddr(0x02)
	testPayer     = testAddr(0x03)
)

type recordingPublisher struct {
	mu      sync.Mutex
	pools   []*websocket.PoolMessage
	entries []*websocket.EntryMessage
}

func (p *recordingPublisher) PublishPool(pool *websocket.PoolMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools = append(p.pools, pool)
}

func (p *recordingPublisher) PublishEntry(entry *websocket.EntryMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

func newTestLedger(t *testing.T) (*LedgerService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	s, err := NewLedgerService(LedgerServiceConfig{
		Authority:    testAuthority,
		EnableFaucet: true,
	}, pub, nil, log.NewNopLogger())
	require.NoError(t, err)
	return s, pub
}

func stakeAndEnter(t *testing.T, s *LedgerService, owner, amount string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.SetStake(ctx, &types.StakeRequest{Owner: owner, Amount: amount})
	require.NoError(t, err)
	_, err = s.Enter(ctx, &types.EnterRequest{Staker: owner})
	require.NoError(t, err)
}

func payFee(t *testing.T, s *LedgerService, amount uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Fund(ctx, &types.FundRequest{Address: testPayer, Amount: amount})
	require.NoError(t, err)
	_, err = s.AddFee(ctx, &types.AddFeeRequest{Payer: testPayer, Amount: amount})
	require.NoError(t, err)
}

func TestNewLedgerServiceInitializesPool(t *testing.T) {
	s, pub := newTestLedger(t)

	resp, err := s.Pool(context.Background())
	require.NoError(t, err)
	require.True(t, resp.Pool.Rate.Equal(rewardstypes.ShareScale))
	require.True(t, resp.Pool.ShareTotal.IsZero())
	require.Equal(t, rewardstypes.DefaultDenom, resp.Params.Denom)

	require.Len(t, pub.pools, 1)
	require.Equal(t, rewardstypes.ShareScale.String(), pub.pools[0].Rate)
	require.True(t, s.Health(context.Background()).Initialized)
}

func TestNewLedgerServiceRejectsBadConfig(t *testing.T) {
	_, err := NewLedgerService(LedgerServiceConfig{Authority: "nope"}, nil, nil, log.NewNopLogger())
	require.ErrorIs(t, err, rewardstypes.ErrInvalidAddress)

	_, err = NewLedgerService(LedgerServiceConfig{Authority: testAuthority, Denom: "!"}, nil, nil, log.NewNopLogger())
	require.Error(t, err)
}

func TestLedgerFlowPaysFees(t *testing.T) {
	s, pub := newTestLedger(t)
	ctx := context.Background()

	stakeAndEnter(t, s, testAlice, "1000")
	payFee(t, s, 500)

	claimable, err := s.Claimable(ctx, testAlice)
	require.NoError(t, err)
	require.Equal(t, "1500", claimable.Value)
	require.Equal(t, "500", claimable.Earned)
	require.Equal(t, "500", s.VaultBalance().String())

	resp, err := s.Claim(ctx, &types.ClaimRequest{Staker: testAlice})
	require.NoError(t, err)
	require.Equal(t, "500", resp.Earned)

	bal, err := s.Balance(ctx, testAlice)
	require.NoError(t, err)
	require.Equal(t, "500", bal.Amount)
	require.True(t, s.VaultBalance().IsZero())

	_, err = s.Entry(ctx, testAlice)
	require.ErrorIs(t, err, rewardstypes.ErrEntryNotFound)

	require.Len(t, pub.entries, 2)
	require.Equal(t, rewardstypes.TypeMsgEnter, pub.entries[0].Event)
	require.Equal(t, "1000", pub.entries[0].Principal)
	require.Equal(t, rewardstypes.TypeMsgClaim, pub.entries[1].Event)
	require.Equal(t, "500", pub.entries[1].Amount)
	// init, enter, add-fee, claim
	require.Len(t, pub.pools, 4)
}

func TestAddFeeWithoutFundsRollsBack(t *testing.T) {
	s, _ := newTestLedger(t)
	ctx := context.Background()
	stakeAndEnter(t, s, testAlice, "1000")

	before, err := s.Pool(ctx)
	require.NoError(t, err)

	_, err = s.AddFee(ctx, &types.AddFeeRequest{Payer: testPayer, Amount: 500})
	require.ErrorIs(t, err, sdkerrors.ErrInsufficientFunds)

	after, err := s.Pool(ctx)
	require.NoError(t, err)
	require.True(t, before.Pool.PrincipalTotal.Equal(after.Pool.PrincipalTotal))
	require.True(t, before.Pool.Rate.Equal(after.Pool.Rate))
	require.True(t, s.VaultBalance().IsZero())
}

func TestCloseForfeitsToRemainingHolder(t *testing.T) {
	s, pub := newTestLedger(t)
	ctx := context.Background()

	stakeAndEnter(t, s, testAlice, "1000")
	stakeAndEnter(t, s, testBob, "1000")
	payFee(t, s, 1000)

	// Only the owner may close an active stake
	_, err := s.Close(ctx, &types.CloseRequest{Authority: testBob, Owner: testAlice})
	require.ErrorIs(t, err, rewardstypes.ErrUnauthorized)

	resp, err := s.Close(ctx, &types.CloseRequest{Owner: testAlice})
	require.NoError(t, err)
	require.Equal(t, "500", resp.Forfeited)
	require.Equal(t, rewardstypes.TypeMsgClose, pub.entries[len(pub.entries)-1].Event)

	claimable, err := s.Claimable(ctx, testBob)
	require.NoError(t, err)
	require.Equal(t, "1000", claimable.Earned)
}

func TestCloseByAnyoneOnceUnstaking(t *testing.T) {
	s, _ := newTestLedger(t)
	ctx := context.Background()
	stakeAndEnter(t, s, testAlice, "1000")

	stake, err := s.SetStake(ctx, &types.StakeRequest{Owner: testAlice, Amount: "1000", Unstaking: true})
	require.NoError(t, err)
	require.NotZero(t, stake.TimeUnstake)

	_, err = s.Claim(ctx, &types.ClaimRequest{Staker: testAlice})
	require.ErrorIs(t, err, rewardstypes.ErrAlreadyWithdrawing)

	_, err = s.Close(ctx, &types.CloseRequest{Authority: testBob, Owner: testAlice})
	require.NoError(t, err)
}

func TestSetStake(t *testing.T) {
	s, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := s.SetStake(ctx, &types.StakeRequest{Owner: testAlice, Amount: "10", Unstaking: true})
	require.NoError(t, err)
	again, err := s.SetStake(ctx, &types.StakeRequest{Owner: testAlice, Amount: "10", Unstaking: true})
	require.NoError(t, err)
	require.Equal(t, first.TimeUnstake, again.TimeUnstake)

	for _, amount := range []string{"", "-1", "abc", rewardstypes.MaxUint128.Add(math.OneInt()).String()} {
		_, err := s.SetStake(ctx, &types.StakeRequest{Owner: testAlice, Amount: amount})
		require.ErrorIs(t, err, rewardstypes.ErrInvalidAmount, amount)
	}

	_, err = s.SetStake(ctx, &types.StakeRequest{Owner: testAlice, Amount: "0"})
	require.NoError(t, err)
	_, err = s.Enter(ctx, &types.EnterRequest{Staker: testAlice})
	require.ErrorIs(t, err, rewardstypes.ErrStakeNotFound)
}

func TestFundDisabled(t *testing.T) {
	s, err := NewLedgerService(LedgerServiceConfig{Authority: testAuthority}, nil, nil, log.NewNopLogger())
	require.NoError(t, err)

	_, err = s.Fund(context.Background(), &types.FundRequest{Address: testPayer, Amount: 1})
	require.ErrorIs(t, err, rewardstypes.ErrUnauthorized)
}

func TestHeightAdvancesPerMutation(t *testing.T) {
	s, _ := newTestLedger(t)
	ctx := context.Background()
	start := s.Health(ctx).Height

	stakeAndEnter(t, s, testAlice, "1000")
	_, err := s.Enter(ctx, &types.EnterRequest{Staker: testAlice})
	require.ErrorIs(t, err, rewardstypes.ErrDuplicateEntry)

	require.Equal(t, start+2, s.Health(ctx).Height)
}

func TestLedgerResumesFromDataDir(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	config := LedgerServiceConfig{Authority: testAuthority, EnableFaucet: true, DataDir: dir}

	s, err := NewLedgerService(config, nil, nil, log.NewNopLogger())
	require.NoError(t, err)
	stakeAndEnter(t, s, testAlice, "1000")
	payFee(t, s, 500)
	require.NoError(t, s.Shutdown())

	resumed, pub := func() (*LedgerService, *recordingPublisher) {
		pub := &recordingPublisher{}
		s, err := NewLedgerService(config, pub, nil, log.NewNopLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Shutdown() })
		return s, pub
	}()

	// The resumed pool is published as is, not re-initialized
	require.Len(t, pub.pools, 1)
	require.Equal(t, "666666666666666", pub.pools[0].Rate)

	claimable, err := resumed.Claimable(ctx, testAlice)
	require.NoError(t, err)
	require.Equal(t, "500", claimable.Earned)

	// Stakes survive too, so the claim guards still pass
	resp, err := resumed.Claim(ctx, &types.ClaimRequest{Staker: testAlice})
	require.NoError(t, err)
	require.Equal(t, "500", resp.Earned)
	require.True(t, resumed.VaultBalance().IsZero())
}

func TestLedgerRejectsDenomChangeOnResume(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLedgerService(LedgerServiceConfig{Authority: testAuthority, DataDir: dir}, nil, nil, log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, s.Shutdown())

	_, err = NewLedgerService(LedgerServiceConfig{Authority: testAuthority, Denom: "ufee", DataDir: dir}, nil, nil, log.NewNopLogger())
	require.ErrorContains(t, err, "uses denom unos")
}
