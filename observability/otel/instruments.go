package otel

import (
	"context"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments are the OTLP counterparts of the node's prometheus metrics,
// exported through the meter provider Init installs.
type Instruments struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	purchased  metric.Float64Counter
}

// NewInstruments creates the node instruments on meter. A nil meter uses the
// global provider, which stays a no-op until Init enables metrics.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	if meter == nil {
		meter = otel.Meter(ScopeName)
	}
	operations, err := meter.Int64Counter("tokensale.operations",
		metric.WithDescription("Node entry points by operation and outcome."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("tokensale.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Latency of node entry points including the state commit."))
	if err != nil {
		return nil, err
	}
	purchased, err := meter.Float64Counter("tokensale.tokens.purchased",
		metric.WithDescription("Tokens handed out by committed purchases, in whole tokens."))
	if err != nil {
		return nil, err
	}
	return &Instruments{operations: operations, duration: duration, purchased: purchased}, nil
}

// RecordOperation counts one entry point. An empty kind means it committed.
func (i *Instruments) RecordOperation(ctx context.Context, op, kind string, elapsed time.Duration) {
	if i == nil {
		return
	}
	outcome := "committed"
	if kind != "" {
		outcome = kind
	}
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome))
	i.operations.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("operation", op)))
}

// RecordPurchase adds a committed allocation given in base units with the
// supplied token decimals.
func (i *Instruments) RecordPurchase(ctx context.Context, stageID uint64, amount *big.Int, decimals uint8) {
	if i == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	tokens, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), scale).Float64()
	i.purchased.Add(ctx, tokens, metric.WithAttributes(attribute.Int64("stage", int64(stageID))))
}
