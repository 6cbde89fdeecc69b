package journal

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"tokensale/core/events"
	"tokensale/core/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(MemoryDSN, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  ", nil); err != ErrPathRequired {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for _, typ := range []string{"sale.purchase", "token.transfer", "sale.purchase"} {
		require.NoError(t, j.Append(ctx, &types.Event{Type: typ, Attributes: map[string]string{"n": typ}}))
	}

	records, err := j.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, record := range records {
		require.Equal(t, uint64(i+1), record.Seq)
	}
	require.Equal(t, "token.transfer", records[1].Type)

	purchases, err := j.List(ctx, "sale.purchase", 0)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	require.Equal(t, uint64(3), purchases[1].Seq)

	limited, err := j.List(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	total, err := j.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestAppendRejectsUntypedEvents(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Append(context.Background(), &types.Event{}); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if err := j.Append(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestEmitStoresPayloadAttributes(t *testing.T) {
	j := openTestJournal(t)
	buyer := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	var emitter events.Emitter = j
	emitter.Emit(events.SalePurchase{
		Buyer:       buyer,
		Beneficiary: buyer,
		Value:       big.NewInt(5),
		ValueUSD:    big.NewInt(10),
		Tokens:      big.NewInt(20),
		Bonus:       big.NewInt(0),
		StageID:     1,
		Channel:     "web",
	})

	records, err := j.List(context.Background(), events.TypeSalePurchase, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	evt, err := records[0].Event()
	require.NoError(t, err)
	require.Equal(t, events.TypeSalePurchase, evt.Type)
	require.Equal(t, buyer.Hex(), evt.Attributes["buyer"])
	require.Equal(t, "20", evt.Attributes["tokens"])
	require.Equal(t, "web", evt.Attributes["channel"])
	require.NotEqual(t, records[0].ID.String(), "")
}
