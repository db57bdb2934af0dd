package metrics

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := newCollector(prometheus.NewRegistry())

	c.RecordOperation("claim", nil, 0.4)
	c.RecordOperation("claim", errors.New("boom"), 0.1)
	require.Equal(t, 1.0, testutil.ToFloat64(c.OperationsTotal.WithLabelValues("claim", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.OperationsTotal.WithLabelValues("claim", "error")))

	c.RecordPool(math.NewInt(1_000_000_000_000_000_000), math.NewInt(1500), math.NewInt(666_666_666_666_666))
	require.Equal(t, 1500.0, testutil.ToFloat64(c.PoolPrincipalTotal))
	require.InDelta(t, 1e18, testutil.ToFloat64(c.PoolShareTotal), 1)

	c.RecordEntries(2)
	c.RecordEntries(-1)
	require.Equal(t, 1.0, testutil.ToFloat64(c.EntriesActive))

	c.RecordFeeAdded(500)
	c.RecordClaim(math.NewInt(300))
	c.RecordForfeit(math.Int{})
	require.Equal(t, 500.0, testutil.ToFloat64(c.FeesAdded))
	require.Equal(t, 300.0, testutil.ToFloat64(c.FeesClaimed))
	require.Equal(t, 0.0, testutil.ToFloat64(c.FeesForfeited))
}

func TestGetCollectorIsSingleton(t *testing.T) {
	require.Same(t, GetCollector(), GetCollector())
}
