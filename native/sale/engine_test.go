package sale

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"tokensale/core/events"
	"tokensale/core/state"
	"tokensale/native/referral"
	"tokensale/native/token"
	"tokensale/storage"
)

var (
	inventory = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	custody   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	operator  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol     = common.HexToAddress("0x000000000000000000000000000000000000ca01")
)

type fixture struct {
	mgr *state.Manager
	rec *events.Recorder
}

func newFixture(t *testing.T, hardCapUSD *big.Int) *fixture {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	err := mgr.Update(func(tx *state.Tx) error {
		tok := token.NewEngine(tx, "sale")
		if err := tok.Mint(inventory, e18(10_000_000)); err != nil {
			return err
		}
		eng := NewEngine(tx, tok, nil, referral.NewEngine(tx))
		if err := eng.SetParams(Params{
			Rate:       e18(2), // one unit of value is worth two USD
			TokenPrice: e18(1),
			HardCapUSD: hardCapUSD,
			Decimals:   DefaultDecimals,
			Inventory:  inventory,
			Custody:    custody,
		}); err != nil {
			return err
		}
		stages := []Stage{
			{ID: 1, Start: 100, End: 200, MinInvestment: e18(10), SupplyCeiling: e18(1_000_000)},
			{ID: 2, Start: 200, End: 300, MinInvestment: e18(10), SupplyCeiling: e18(2_000_000)},
		}
		bonuses := []VolumeBonus{{StageID: 1, Threshold: e18(1000), Bps: 1000}}
		return eng.SetSchedule(stages, bonuses)
	})
	require.NoError(t, err)
	rec := events.NewRecorder()
	mgr.SetEmitter(rec)
	return &fixture{mgr: mgr, rec: rec}
}

func (f *fixture) update(fn func(e *Engine, tok *token.Engine, refs *referral.Engine) error) error {
	return f.mgr.Update(func(tx *state.Tx) error {
		tok := token.NewEngine(tx, "sale")
		refs := referral.NewEngine(tx)
		return fn(NewEngine(tx, tok, nil, refs), tok, refs)
	})
}

func (f *fixture) purchase(buyer, beneficiary common.Address, value *big.Int, now uint64) (Receipt, error) {
	var receipt Receipt
	err := f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		var err error
		receipt, err = e.Purchase(PurchaseRequest{Buyer: buyer, Beneficiary: beneficiary, Value: value, Channel: "web"}, now)
		return err
	})
	return receipt, err
}

func (f *fixture) read(t *testing.T) (Counters, *big.Int) {
	t.Helper()
	var (
		counters  Counters
		forwarded *big.Int
	)
	err := f.mgr.View(func(tx *state.Tx) error {
		var err error
		counters, err = NewEngine(tx, token.NewEngine(tx, "sale"), nil, nil).Counters()
		if err != nil {
			return err
		}
		forwarded, err = NewVault(tx, custody).Total()
		return err
	})
	require.NoError(t, err)
	return counters, forwarded
}

func (f *fixture) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	var bal *big.Int
	require.NoError(t, f.mgr.View(func(tx *state.Tx) error {
		var err error
		bal, err = token.NewEngine(tx, "sale").BalanceOf(addr)
		return err
	}))
	return bal
}

func TestPurchaseCreditsBeneficiary(t *testing.T) {
	f := newFixture(t, e18(1_000_000))

	receipt, err := f.purchase(alice, bob, e18(500), 150)
	require.NoError(t, err)
	require.Equal(t, 0, receipt.ValueUSD.Cmp(e18(1000)))
	require.Equal(t, 0, receipt.Tokens.Cmp(e18(1000)))
	require.Equal(t, 0, receipt.Bonus.Cmp(e18(100)))
	require.Equal(t, 0, f.balance(t, bob).Cmp(e18(1100)))

	counters, forwarded := f.read(t)
	require.Equal(t, 0, counters.TokensSold.Cmp(e18(1100)))
	require.Equal(t, 0, counters.FundsRaisedUSD.Cmp(e18(1000)))
	require.Equal(t, 0, forwarded.Cmp(e18(500)))

	require.Equal(t, []string{events.TypeTokenTransfer, events.TypeSalePurchase}, f.rec.Types())

	require.NoError(t, f.mgr.View(func(tx *state.Tx) error {
		eng := NewEngine(tx, token.NewEngine(tx, "sale"), nil, nil)
		inv, ok, err := eng.Investor(bob)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 0, inv.Received.Cmp(e18(1100)))
		list, err := eng.Investors()
		require.NoError(t, err)
		require.Equal(t, []common.Address{bob}, list)
		return nil
	}))
}

func TestTokensSoldGrowsByEachAllocation(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	values := []int64{5, 20, 600, 40}
	for i, v := range values {
		before, _ := f.read(t)
		receipt, err := f.purchase(alice, alice, e18(v), 120+uint64(i))
		require.NoError(t, err)
		after, _ := f.read(t)
		delta := new(big.Int).Sub(after.TokensSold, before.TokensSold)
		require.Equal(t, 0, delta.Cmp(receipt.Total()), "purchase %d", i)
	}
}

func TestHardCapRejectsWithoutSideEffects(t *testing.T) {
	f := newFixture(t, e18(1500))
	_, err := f.purchase(alice, alice, e18(500), 150)
	require.NoError(t, err)
	f.rec.Reset()

	_, err = f.purchase(alice, bob, e18(300), 150)
	require.ErrorIs(t, err, ErrHardCapReached)
	require.Empty(t, f.rec.Events())
	require.Equal(t, 0, f.balance(t, bob).Sign())

	counters, forwarded := f.read(t)
	require.Equal(t, 0, counters.FundsRaisedUSD.Cmp(e18(1000)))
	require.Equal(t, 0, forwarded.Cmp(e18(500)))

	// Exactly reaching the cap is allowed.
	_, err = f.purchase(alice, bob, e18(250), 150)
	require.NoError(t, err)
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	cases := []struct {
		name        string
		beneficiary common.Address
		value       *big.Int
		now         uint64
		want        error
	}{
		{name: "zero beneficiary", value: e18(1), now: 150, want: ErrZeroBeneficiary},
		{name: "zero value", beneficiary: bob, value: big.NewInt(0), now: 150, want: ErrZeroValue},
		{name: "closed", beneficiary: bob, value: e18(100), now: 300, want: ErrSaleClosed},
		{name: "gap before first stage", beneficiary: bob, value: e18(100), now: 50, want: ErrNoActiveStage},
		{name: "below minimum", beneficiary: bob, value: e18(1), now: 150, want: ErrBelowMinimumInvestment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.purchase(alice, tc.beneficiary, tc.value, tc.now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	require.Empty(t, f.rec.Events())
}

func TestPurchaseCreditsReferralBonuses(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	require.NoError(t, f.update(func(_ *Engine, _ *token.Engine, refs *referral.Engine) error {
		if err := refs.SetLink(carol, 500, 300); err != nil {
			return err
		}
		return refs.AddLinkInvite(carol, bob)
	}))
	f.rec.Reset()

	receipt, err := f.purchase(alice, bob, e18(500), 150)
	require.NoError(t, err)
	// Referral bonuses are sized on base tokens only.
	require.Equal(t, 0, receipt.OwnerBonus.Cmp(e18(30)))
	require.Equal(t, 0, receipt.InviteeBonus.Cmp(e18(50)))
	require.Equal(t, carol, receipt.Referrer)

	require.Equal(t, 0, f.balance(t, carol).Cmp(e18(30)))
	require.Equal(t, 0, f.balance(t, bob).Cmp(e18(1150)))

	counters, _ := f.read(t)
	require.Equal(t, 0, counters.TokensSold.Cmp(e18(1100)))

	require.Equal(t, []string{
		events.TypeTokenTransfer,
		events.TypeSalePurchase,
		events.TypeTokenTransfer,
		events.TypeSaleReferralBonus,
		events.TypeTokenTransfer,
		events.TypeSaleReferralBonus,
	}, f.rec.Types())
}

func TestDistributeManual(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	require.NoError(t, f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		return e.DistributeManual(operator, bob, e18(42))
	}))
	counters, _ := f.read(t)
	require.Equal(t, 0, counters.TokensSold.Cmp(e18(42)))
	require.Equal(t, 0, counters.FundsRaisedUSD.Sign())
	require.Equal(t, 0, f.balance(t, bob).Cmp(e18(42)))

	err := f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		return e.DistributeManual(operator, bob, big.NewInt(0))
	})
	require.ErrorIs(t, err, ErrZeroValue)
}

func TestSetRateAppliesToNextPurchase(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	require.NoError(t, f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		return e.SetRate(operator, e18(4))
	}))
	receipt, err := f.purchase(alice, bob, e18(10), 150)
	require.NoError(t, err)
	require.Equal(t, 0, receipt.ValueUSD.Cmp(e18(40)))

	err = f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		return e.SetRate(operator, big.NewInt(0))
	})
	require.ErrorIs(t, err, ErrInvalidRate)
}

func TestConfigureStagePersistsBootstrap(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	var end uint64
	require.NoError(t, f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		var err error
		end, err = e.ConfigureStage(operator, 120, 180, 1000)
		return err
	}))
	require.Equal(t, uint64(1180), end)

	require.NoError(t, f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
		_, err := e.ConfigureStage(operator, 120, 170, 10)
		return err
	}))
	require.NoError(t, f.mgr.View(func(tx *state.Tx) error {
		stages, err := NewEngine(tx, nil, nil, nil).Stages()
		require.NoError(t, err)
		require.Equal(t, uint64(180), stages[0].End)
		require.Equal(t, uint64(170), stages[1].Start)
		require.Equal(t, uint64(180), stages[1].End)
		return nil
	}))
}

func TestBurnUnsold(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	burn := func(now uint64) (*big.Int, error) {
		var burned *big.Int
		err := f.update(func(e *Engine, _ *token.Engine, _ *referral.Engine) error {
			var err error
			burned, err = e.BurnUnsold(operator, now)
			return err
		})
		return burned, err
	}

	_, err := burn(250)
	require.ErrorIs(t, err, ErrSaleNotClosed)

	_, err = f.purchase(alice, bob, e18(500), 150)
	require.NoError(t, err)

	burned, err := burn(300)
	require.NoError(t, err)
	require.Equal(t, 0, burned.Cmp(new(big.Int).Sub(e18(10_000_000), e18(1100))))
	require.Equal(t, 0, f.balance(t, inventory).Sign())

	_, err = burn(301)
	require.ErrorIs(t, err, ErrNothingToBurn)
}

func TestInvestorRosterKeepsFirstCreditOrder(t *testing.T) {
	f := newFixture(t, e18(1_000_000))
	for i, buyer := range []common.Address{alice, bob, alice, bob} {
		_, err := f.purchase(buyer, buyer, e18(20), 120+uint64(i))
		require.NoError(t, err)
	}

	require.NoError(t, f.mgr.View(func(tx *state.Tx) error {
		list, err := NewEngine(tx, token.NewEngine(tx, "sale"), nil, nil).Investors()
		require.NoError(t, err)
		require.Equal(t, []common.Address{alice, bob}, list)
		return nil
	}))
}
