package otel

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{Traces: true})
	require.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc ,broken, =x,tenant=sale")
	require.Equal(t, map[string]string{"api-key": "abc", "tenant": "sale"}, got)
}

func TestEndpointNormalisation(t *testing.T) {
	cases := []struct {
		cfg      Config
		host     string
		insecure bool
	}{
		{cfg: Config{}, host: "localhost:4318"},
		{cfg: Config{Endpoint: "http://collector:4318/"}, host: "collector:4318", insecure: true},
		{cfg: Config{Endpoint: "https://otel.example.com"}, host: "otel.example.com"},
		{cfg: Config{Endpoint: "collector:4318", Insecure: true}, host: "collector:4318", insecure: true},
	}
	for _, tc := range cases {
		host, insecure := tc.cfg.endpoint()
		if host != tc.host || insecure != tc.insecure {
			t.Fatalf("%q: got %s insecure=%t", tc.cfg.Endpoint, host, insecure)
		}
	}
}

func TestResourceCarriesSaleAttributes(t *testing.T) {
	res, err := Config{
		ServiceName: "tokensaled",
		Environment: "test",
		Sale:        SaleResource{TokenSymbol: "SALE", Stages: 2, Escrows: []string{"team", "advisors"}},
	}.Resource()
	require.NoError(t, err)

	set := res.Set()
	symbol, ok := set.Value(attribute.Key("tokensale.token.symbol"))
	require.True(t, ok)
	require.Equal(t, "SALE", symbol.AsString())
	stages, ok := set.Value(attribute.Key("tokensale.stages"))
	require.True(t, ok)
	require.Equal(t, int64(2), stages.AsInt64())
	escrows, ok := set.Value(attribute.Key("tokensale.escrows"))
	require.True(t, ok)
	require.Equal(t, []string{"advisors", "team"}, escrows.AsStringSlice())
	service, ok := set.Value(attribute.Key("service.name"))
	require.True(t, ok)
	require.Equal(t, "tokensaled", service.AsString())
}

func TestInstrumentsRecordOperationsAndPurchases(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	inst, err := NewInstruments(provider.Meter(ScopeName))
	require.NoError(t, err)

	ctx := context.Background()
	inst.RecordOperation(ctx, "purchase", "", time.Millisecond)
	inst.RecordOperation(ctx, "purchase", "capacity", time.Millisecond)
	oneAndHalf := new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	inst.RecordPurchase(ctx, 1, oneAndHalf, 18)
	inst.RecordPurchase(ctx, 1, big.NewInt(0), 18)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	found := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		found[m.Name] = m
	}

	ops, ok := found["tokensale.operations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, ops.DataPoints, 2)

	purchased, ok := found["tokensale.tokens.purchased"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, purchased.DataPoints, 1)
	require.InDelta(t, 1.5, purchased.DataPoints[0].Value, 1e-9)

	_, ok = found["tokensale.operation.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
}

func TestNilInstrumentsAreSafe(t *testing.T) {
	var inst *Instruments
	inst.RecordOperation(context.Background(), "purchase", "", 0)
	inst.RecordPurchase(context.Background(), 1, big.NewInt(1), 18)
}
