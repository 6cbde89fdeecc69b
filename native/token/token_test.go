package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/state"
	"tokensale/storage"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestMintTransferBurn(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	rec := events.NewRecorder()
	mgr.SetEmitter(rec)

	err := mgr.Update(func(tx *state.Tx) error {
		tok := NewEngine(tx, "sale")
		require.NoError(t, tok.Mint(alice, big.NewInt(1_000)))
		require.NoError(t, tok.Transfer(alice, bob, big.NewInt(250)))
		require.NoError(t, tok.Burn(alice, big.NewInt(50)))
		return nil
	})
	require.NoError(t, err)

	err = mgr.View(func(tx *state.Tx) error {
		tok := NewEngine(tx, "SALE")
		balA, err := tok.BalanceOf(alice)
		require.NoError(t, err)
		balB, err := tok.BalanceOf(bob)
		require.NoError(t, err)
		supply, err := tok.TotalSupply()
		require.NoError(t, err)
		require.Equal(t, "700", balA.String())
		require.Equal(t, "250", balB.String())
		require.Equal(t, "950", supply.String())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{events.TypeTokenMint, events.TypeTokenTransfer, events.TypeTokenBurn}, rec.Types())
}

func TestTransferRejectsOverdraft(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	err := mgr.Update(func(tx *state.Tx) error {
		tok := NewEngine(tx, "SALE")
		if err := tok.Mint(alice, big.NewInt(10)); err != nil {
			return err
		}
		return tok.Transfer(alice, bob, big.NewInt(11))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.True(t, errors.Is(err, errs.ErrCapacity))
}

func TestAmountValidation(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	_ = mgr.Update(func(tx *state.Tx) error {
		tok := NewEngine(tx, "SALE")
		require.ErrorIs(t, tok.Transfer(common.Address{}, bob, big.NewInt(1)), ErrZeroAddress)
		require.ErrorIs(t, tok.Mint(alice, big.NewInt(-1)), ErrNegativeAmount)
		huge := new(big.Int).Lsh(big.NewInt(1), 256)
		require.ErrorIs(t, tok.Mint(alice, huge), ErrAmountOverflow)
		require.NoError(t, tok.Transfer(alice, bob, big.NewInt(0)))
		return nil
	})
}
