package metrics

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSaleMetrics(t *testing.T) {
	m := NewSaleMetrics(prometheus.NewRegistry())

	m.ObserveOperation("purchase", "", time.Millisecond)
	m.ObserveOperation("purchase", "capacity", time.Millisecond)
	if got := testutil.ToFloat64(m.operations.WithLabelValues("purchase", "committed")); got != 1 {
		t.Fatalf("unexpected committed count %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("purchase", "capacity")); got != 1 {
		t.Fatalf("unexpected error count %v", got)
	}

	oneAndHalf := new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	m.SetTotals(oneAndHalf, big.NewInt(0))
	if got := testutil.ToFloat64(m.tokensSold); got != 1.5 {
		t.Fatalf("unexpected tokens sold %v", got)
	}

	m.AddDelivered("team", oneAndHalf)
	if got := testutil.ToFloat64(m.delivered.WithLabelValues("team")); got != 1.5 {
		t.Fatalf("unexpected delivered %v", got)
	}
}

func TestNilSaleMetricsIsSafe(t *testing.T) {
	var m *SaleMetrics
	m.ObserveOperation("purchase", "", 0)
	m.SetTotals(nil, nil)
	m.AddDelivered("", nil)
	m.ObserveEvent("sale.purchase")
}
