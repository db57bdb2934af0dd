package types_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/nos-rewards/x/rewards/types"
)

func TestPoolMintDepositBurn(t *testing.T) {
	pool := types.NewPool()
	require.NoError(t, pool.Validate())

	shares, err := pool.Mint(math.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", shares.String())
	require.True(t, pool.Rate.Equal(types.ShareScale))

	require.NoError(t, pool.Deposit(math.NewInt(500)))
	require.Equal(t, "1500", pool.PrincipalTotal.String())
	require.Equal(t, "666666666666666", pool.Rate.String())
	require.NoError(t, pool.Validate())

	value, err := pool.ToPrincipal(shares)
	require.NoError(t, err)
	require.Equal(t, "1500", value.String())

	require.NoError(t, pool.Burn(shares, value))
	require.True(t, pool.ShareTotal.IsZero())
	require.True(t, pool.PrincipalTotal.IsZero())
	require.True(t, pool.Rate.Equal(types.ShareScale))
}

func TestPoolLeftUntouchedOnError(t *testing.T) {
	pool := types.NewPool()
	_, err := pool.Mint(math.NewInt(10))
	require.NoError(t, err)
	snapshot := *pool

	err = pool.Burn(pool.ShareTotal.AddRaw(1), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrUnderflow)
	require.Equal(t, snapshot.ShareTotal.String(), pool.ShareTotal.String())

	// removing all principal while shares remain cannot price the rest
	err = pool.Burn(math.OneInt(), pool.PrincipalTotal)
	require.ErrorIs(t, err, types.ErrDivisionByZero)
	require.Equal(t, snapshot.PrincipalTotal.String(), pool.PrincipalTotal.String())
	require.Equal(t, snapshot.Rate.String(), pool.Rate.String())

	_, err = pool.Mint(types.MaxUint128)
	require.ErrorIs(t, err, types.ErrOverflow)
	require.Equal(t, snapshot.ShareTotal.String(), pool.ShareTotal.String())
}

func TestPoolValidateStaleRate(t *testing.T) {
	pool := types.NewPool()
	_, err := pool.Mint(math.NewInt(1000))
	require.NoError(t, err)

	pool.Rate = pool.Rate.AddRaw(1)
	require.ErrorIs(t, pool.Validate(), types.ErrInvalidGenesis)
}

func TestParticipantShareEarned(t *testing.T) {
	pool := types.NewPool()
	shares, err := pool.Mint(math.NewInt(1000))
	require.NoError(t, err)
	entry := types.NewParticipantShare("owner", math.NewInt(1000), shares, 1)

	require.NoError(t, pool.Deposit(math.NewInt(250)))
	value, earned, err := entry.Earned(pool)
	require.NoError(t, err)
	require.Equal(t, "1250", value.String())
	require.Equal(t, "250", earned.String())

	// one unit short is rounding and earns nothing
	entry.PrincipalOwned = math.NewInt(1251)
	value, earned, err = entry.Earned(pool)
	require.NoError(t, err)
	require.Equal(t, "1250", value.String())
	require.True(t, earned.IsZero())

	entry.PrincipalOwned = math.NewInt(1252)
	_, _, err = entry.Earned(pool)
	require.ErrorIs(t, err, types.ErrNegativeEarnings)
}

func TestPoolValueNeverExceedsPrincipalTotal(t *testing.T) {
	pool := types.NewPool()
	shares, err := pool.Mint(math.OneInt())
	require.NoError(t, err)
	require.NoError(t, pool.Deposit(math.NewInt(123_456_788)))
	require.Equal(t, "8100000", pool.Rate.String())

	// dividing by the floored rate would give 123456790 here
	value, err := pool.ToPrincipal(shares)
	require.NoError(t, err)
	require.Equal(t, "123456789", value.String())
	require.NoError(t, pool.Burn(shares, value))
	require.True(t, pool.PrincipalTotal.IsZero())
}

func TestPoolMintAfterFeesRoundsAgainstEntrant(t *testing.T) {
	pool := types.NewPool()
	first, err := pool.Mint(math.OneInt())
	require.NoError(t, err)
	require.NoError(t, pool.Deposit(math.NewInt(2)))

	second, err := pool.Mint(math.OneInt())
	require.NoError(t, err)
	require.Equal(t, "333333333333333", second.String())

	late := types.NewParticipantShare("late", math.OneInt(), second, 2)
	value, earned, err := late.Earned(pool)
	require.NoError(t, err)
	require.True(t, value.IsZero())
	require.True(t, earned.IsZero())

	early := types.NewParticipantShare("early", math.OneInt(), first, 1)
	value, earned, err = early.Earned(pool)
	require.NoError(t, err)
	require.Equal(t, "3", value.String())
	require.Equal(t, "2", earned.String())
}
