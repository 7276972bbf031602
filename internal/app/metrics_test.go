package app

import (
	"context"
	"testing"

	"libraryledger/internal/circulation"
	"libraryledger/internal/clock"
	"libraryledger/internal/config"
	"libraryledger/internal/membership"
	"libraryledger/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func counterTotals(t *testing.T, reader sdkmetric.Reader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestLedgerCountersReachMeterProvider(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	reader := sdkmetric.NewManualReader()

	shutdown, err := SetupMetrics(ctx, config.TracingConfig{ServiceName: "libraryledger-test"}, log, reader)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = shutdown(context.Background())
		otel.SetMeterProvider(noop.NewMeterProvider())
	})

	clk := clock.NewManual(clock.MustParse("2024-01-01"))
	svc := NewServices(testConfig(), memory.New(log), clk, log)

	member, err := svc.Members.Register(ctx, membership.NewMember{Name: "Reader"})
	require.NoError(t, err)
	_, err = svc.Circulation.Issue(ctx, circulation.IssueRequest{
		BookID: "B123", Title: "Dune", Author: "Frank Herbert", MemberID: member.ID,
	})
	require.NoError(t, err)

	clk.Advance(5)
	receipt, err := svc.Circulation.Return(ctx, "B123")
	require.NoError(t, err)
	require.Equal(t, int64(50), receipt.Rent)

	settled, err := svc.Settlement.Settle(ctx, member.ID)
	require.NoError(t, err)
	require.Equal(t, int64(50), settled.Amount)

	totals := counterTotals(t, reader)
	require.Equal(t, int64(1), totals["ledger.issues"])
	require.Equal(t, int64(1), totals["ledger.returns"])
	require.Equal(t, int64(50), totals["ledger.rent_charged"])
	require.Equal(t, int64(50), totals["ledger.settled_amount"])
}

func TestSetupMetricsWithoutEndpointOrReaderIsNoop(t *testing.T) {
	shutdown, err := SetupMetrics(context.Background(), config.TracingConfig{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
