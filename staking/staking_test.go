package staking

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondfi/pond/kv"
	"github.com/pondfi/pond/lvldb"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
	"github.com/pondfi/pond/token"
)

var (
	funder = pond.BytesToAddress([]byte("funder"))
	alice  = pond.BytesToAddress([]byte("alice"))
	bob    = pond.BytesToAddress([]byte("bob"))
)

type testLedger struct {
	*Staking
	token  *token.Token
	events []*Event
}

// newTestLedger builds a staking ledger over an in-memory state with funded,
// pre-approved accounts and an event-capturing sink.
func newTestLedger(t *testing.T, config Config) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	tok := token.New(pond.TokenAddress, st)

	tl := &testLedger{token: tok}
	tl.Staking = New(config, st, tok, SinkFunc(func(ev *Event) error {
		tl.events = append(tl.events, ev)
		return nil
	}))

	for _, addr := range []pond.Address{funder, alice, bob} {
		require.NoError(t, tok.Mint(addr, pond.ScaleTokens(100_000)))
		require.NoError(t, tok.Approve(addr, config.Addr, pond.ScaleTokens(100_000)))
	}
	require.NoError(t, st.Commit())
	return tl
}

func (tl *testLedger) initialize(t *testing.T) {
	require.NoError(t, tl.InitializePool(funder, 0))
}

func (tl *testLedger) lastEvent() *Event {
	if len(tl.events) == 0 {
		return nil
	}
	return tl.events[len(tl.events)-1]
}

func TestInitializePool(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())

	initialized, err := tl.Initialized()
	assert.Nil(t, err)
	assert.False(t, initialized)

	assert.Nil(t, tl.InitializePool(funder, 100))

	initialized, _ = tl.Initialized()
	assert.True(t, initialized)

	remaining, _ := tl.RemainingPool()
	assert.Equal(t, 0, pond.InitialRewardPool.Cmp(remaining))

	bal, _ := tl.token.BalanceOf(pond.StakingAddress)
	assert.Equal(t, 0, pond.InitialRewardPool.Cmp(bal))
	bal, _ = tl.token.BalanceOf(funder)
	assert.Equal(t, 0, pond.ScaleTokens(90_000).Cmp(bal))

	ev := tl.lastEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventPoolInitialized, ev.Name)
	assert.Equal(t, funder, ev.Account)
	assert.Equal(t, uint64(100), ev.Time)

	// one-shot
	assert.ErrorIs(t, tl.InitializePool(funder, 200), ErrAlreadyInitialized)
	assert.Len(t, tl.events, 1)
}

func TestInitializePoolUnderfunded(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())

	// drain the funder below the pool target
	require.NoError(t, tl.token.Transfer(funder, bob, pond.ScaleTokens(95_000)))
	require.NoError(t, tl.Staking.state.Commit())

	err := tl.InitializePool(funder, 0)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	// the failed attempt must leave no trace
	initialized, _ := tl.Initialized()
	assert.False(t, initialized)
	assert.Empty(t, tl.events)

	assert.Nil(t, tl.InitializePool(bob, 0))
}

func TestBuyAssets(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())

	assert.ErrorIs(t, tl.BuyAssets(alice, 0, 5), ErrUninitialized)

	tl.initialize(t)

	assert.ErrorIs(t, tl.BuyAssets(alice, 0, 0), ErrZeroAmount)

	assert.Nil(t, tl.BuyAssets(alice, 0, 5))

	units, _ := tl.AssetBalance(alice)
	assert.Equal(t, uint64(5), units)

	bal, _ := tl.token.BalanceOf(alice)
	assert.Equal(t, 0, pond.ScaleTokens(99_950).Cmp(bal))

	ev := tl.lastEvent()
	assert.Equal(t, EventAssetsBought, ev.Name)
	assert.Equal(t, 0, ev.Amount.Cmp(big.NewInt(5)))

	// buys accumulate
	assert.Nil(t, tl.BuyAssets(alice, 0, 3))
	units, _ = tl.AssetBalance(alice)
	assert.Equal(t, uint64(8), units)
}

func TestBuyAssetsInsufficientFunds(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.token.Transfer(alice, bob, pond.ScaleTokens(99_990)))
	require.NoError(t, tl.Staking.state.Commit())

	// 5 units cost 50 tokens, alice holds 10
	err := tl.BuyAssets(alice, 0, 5)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	// atomicity: the settled record written before the transfer is gone
	units, _ := tl.AssetBalance(alice)
	assert.Equal(t, uint64(0), units)
	remaining, _ := tl.RemainingPool()
	assert.Equal(t, 0, pond.InitialRewardPool.Cmp(remaining))

	assert.Nil(t, tl.BuyAssets(alice, 0, 1))
}

func TestRedeemAssets(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))

	assert.ErrorIs(t, tl.RedeemAssets(alice, 0, 0), ErrZeroAmount)

	var insufficient *InsufficientAssetsError
	err := tl.RedeemAssets(alice, 0, 6)
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(5), insufficient.Available)
	assert.Equal(t, uint64(6), insufficient.Requested)

	assert.Nil(t, tl.RedeemAssets(alice, 0, 2))

	units, _ := tl.AssetBalance(alice)
	assert.Equal(t, uint64(3), units)

	// round trip at the fixed price refunds exactly what was paid
	assert.Nil(t, tl.RedeemAssets(alice, 0, 3))
	bal, _ := tl.token.BalanceOf(alice)
	assert.Equal(t, 0, pond.ScaleTokens(100_000).Cmp(bal))

	ev := tl.lastEvent()
	assert.Equal(t, EventAssetsRedeemed, ev.Name)
	assert.Equal(t, 0, ev.Amount.Cmp(big.NewInt(3)))
}

func TestRedeemAssetsWithoutStake(t *testing.T) {
	// no initialization gate on redeem: without a prior buy the failure mode
	// is plain insufficiency
	tl := newTestLedger(t, DefaultConfig())

	var insufficient *InsufficientAssetsError
	err := tl.RedeemAssets(alice, 0, 1)
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint64(0), insufficient.Available)
}

func TestRedeemSettlesBeforeDebit(t *testing.T) {
	// rewards accrued for units must survive redeeming those units
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))
	require.NoError(t, tl.RedeemAssets(alice, pond.SecondsPerDay, 5))

	claimable, err := tl.ClaimableReward(alice, pond.SecondsPerDay)
	assert.Nil(t, err)
	assert.Equal(t, 0, big.NewInt(5e17).Cmp(claimable))
}

func TestClaimRewards(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	_, err := tl.ClaimRewards(alice, 0)
	assert.ErrorIs(t, err, ErrNoRewards)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))

	// 5 units for a day at 0.1/day
	claimed, err := tl.ClaimRewards(alice, pond.SecondsPerDay)
	assert.Nil(t, err)
	assert.Equal(t, 0, big.NewInt(5e17).Cmp(claimed))

	bal, _ := tl.token.BalanceOf(alice)
	want := new(big.Int).Add(pond.ScaleTokens(99_950), big.NewInt(5e17))
	assert.Equal(t, 0, want.Cmp(bal))

	remaining, _ := tl.RemainingPool()
	want = new(big.Int).Sub(pond.InitialRewardPool, big.NewInt(5e17))
	assert.Equal(t, 0, want.Cmp(remaining))

	ev := tl.lastEvent()
	assert.Equal(t, EventRewardsClaimed, ev.Name)
	assert.Equal(t, 0, ev.Amount.Cmp(big.NewInt(5e17)))

	// the claim zeroed the record; an immediate second claim finds nothing
	_, err = tl.ClaimRewards(alice, pond.SecondsPerDay)
	assert.ErrorIs(t, err, ErrNoRewards)
}

func TestClaimableRewardIsPure(t *testing.T) {
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))

	for range 3 {
		claimable, err := tl.ClaimableReward(alice, pond.SecondsPerDay)
		assert.Nil(t, err)
		assert.Equal(t, 0, big.NewInt(5e17).Cmp(claimable))
	}

	// previewing must not have debited the pool
	remaining, _ := tl.RemainingPool()
	assert.Equal(t, 0, pond.InitialRewardPool.Cmp(remaining))
}

func TestSettlementIsIdempotent(t *testing.T) {
	// many interleaved settlements at increasing times yield the same total
	// as one settlement over the whole span
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))
	step := pond.SecondsPerDay / 10
	for i := uint64(1); i <= 10; i++ {
		// each buy settles; the unit count changes only after settlement
		require.NoError(t, tl.BuyAssets(alice, i*step, 1))
		require.NoError(t, tl.RedeemAssets(alice, i*step, 1))
	}

	claimable, err := tl.ClaimableReward(alice, pond.SecondsPerDay)
	assert.Nil(t, err)
	assert.Equal(t, 0, big.NewInt(5e17).Cmp(claimable))
}

func TestPoolDepletion(t *testing.T) {
	// a tiny pool drains to exactly zero and stays there
	config := DefaultConfig()
	config.PoolTarget = big.NewInt(3e17)
	tl := newTestLedger(t, config)
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))
	require.NoError(t, tl.BuyAssets(bob, 0, 5))

	// alice settles first and takes the whole remainder
	claimed, err := tl.ClaimRewards(alice, pond.SecondsPerDay)
	assert.Nil(t, err)
	assert.Equal(t, 0, big.NewInt(3e17).Cmp(claimed))

	remaining, _ := tl.RemainingPool()
	assert.Equal(t, 0, remaining.Sign())

	// bob accrued nothing once the pool hit zero, and never will
	_, err = tl.ClaimRewards(bob, pond.SecondsPerDay)
	assert.ErrorIs(t, err, ErrNoRewards)
	claimable, _ := tl.ClaimableReward(bob, pond.SecondsPerDay*100)
	assert.Equal(t, 0, claimable.Sign())

	// units remain redeemable after depletion
	assert.Nil(t, tl.RedeemAssets(bob, pond.SecondsPerDay*100, 5))
}

func TestPoolDrainAtFullScale(t *testing.T) {
	// the default 10,000-token pool drains to exactly zero after 20,000 days
	// of a single 5-unit stake, and stays zero arbitrarily far out
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	require.NoError(t, tl.BuyAssets(alice, 0, 5))

	drainTime := 20_000 * pond.SecondsPerDay
	claimed, err := tl.ClaimRewards(alice, drainTime)
	require.NoError(t, err)
	assert.Equal(t, 0, pond.InitialRewardPool.Cmp(claimed))

	remaining, _ := tl.RemainingPool()
	assert.Equal(t, 0, remaining.Sign())

	// a hundred thousand years later nothing more ever accrues
	farOut := drainTime + 36_500_000*pond.SecondsPerDay
	claimable, err := tl.ClaimableReward(alice, farOut)
	require.NoError(t, err)
	assert.Equal(t, 0, claimable.Sign())
	_, err = tl.ClaimRewards(alice, farOut)
	assert.ErrorIs(t, err, ErrNoRewards)
}

func TestSolvency(t *testing.T) {
	// after settling and claiming everything outstanding at a common time,
	// the holding balance equals exactly the remaining pool plus the buy-in
	// value of all outstanding units
	tl := newTestLedger(t, DefaultConfig())
	tl.initialize(t)

	check := func(now uint64) {
		for _, addr := range []pond.Address{alice, bob} {
			if _, err := tl.ClaimRewards(addr, now); err != nil {
				require.ErrorIs(t, err, ErrNoRewards)
			}
		}

		held, err := tl.token.BalanceOf(pond.StakingAddress)
		require.NoError(t, err)

		owed, err := tl.RemainingPool()
		require.NoError(t, err)
		owed = new(big.Int).Set(owed)
		for _, addr := range []pond.Address{alice, bob} {
			units, err := tl.AssetBalance(addr)
			require.NoError(t, err)
			owed.Add(owed, new(big.Int).Mul(new(big.Int).SetUint64(units), pond.InitialUnitPrice))
		}
		assert.Equal(t, 0, held.Cmp(owed), "held %v owed %v", held, owed)
	}

	steps := []func() error{
		func() error { return tl.BuyAssets(alice, 100, 5) },
		func() error { return tl.BuyAssets(bob, 50_000, 12) },
		func() error { return tl.RedeemAssets(alice, 90_000, 2) },
		func() error { return tl.RedeemAssets(bob, 250_000, 12) },
		func() error { return tl.BuyAssets(bob, 300_000, 1) },
	}
	now := []uint64{100, 50_000, 90_000, 250_000, 300_000}
	for i, step := range steps {
		require.NoError(t, step())
		check(now[i])
	}
}

// flakyStore fails the next batch write when armed.
type flakyStore struct {
	kv.GetPutter
	failNext bool
	writeErr error
}

type flakyBatch struct {
	kv.Batch
	store *flakyStore
}

func (s *flakyStore) NewBatch() kv.Batch {
	return &flakyBatch{s.GetPutter.NewBatch(), s}
}

func (b *flakyBatch) Write() error {
	if b.store.failNext {
		b.store.failNext = false
		return b.store.writeErr
	}
	return b.Batch.Write()
}

func TestCommitFailureReverts(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store := &flakyStore{GetPutter: db, writeErr: errors.New("batch write failed")}
	st := state.New(store)
	tok := token.New(pond.TokenAddress, st)
	ledger := New(DefaultConfig(), st, tok, nil)

	require.NoError(t, tok.Mint(funder, pond.ScaleTokens(100_000)))
	require.NoError(t, tok.Approve(funder, pond.StakingAddress, pond.ScaleTokens(100_000)))
	require.NoError(t, st.Commit())

	store.failNext = true
	assert.ErrorIs(t, ledger.InitializePool(funder, 0), store.writeErr)

	// the journaled writes of the failed operation must be gone: neither
	// visible to reads nor carried into the next commit
	initialized, err := ledger.Initialized()
	require.NoError(t, err)
	assert.False(t, initialized)
	bal, err := tok.BalanceOf(funder)
	require.NoError(t, err)
	assert.Equal(t, 0, pond.ScaleTokens(100_000).Cmp(bal))

	require.NoError(t, ledger.InitializePool(funder, 0))

	// only the retry's effects reached the store
	reopened := New(DefaultConfig(), state.New(db), tok, nil)
	initialized, err = reopened.Initialized()
	require.NoError(t, err)
	assert.True(t, initialized)
	bal, err = tok.BalanceOf(funder)
	require.NoError(t, err)
	assert.Equal(t, 0, pond.ScaleTokens(90_000).Cmp(bal))
}

func TestSinkFailureReverts(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db)
	tok := token.New(pond.TokenAddress, st)

	sinkErr := errors.New("sink down")
	ledger := New(DefaultConfig(), st, tok, SinkFunc(func(*Event) error {
		return sinkErr
	}))

	require.NoError(t, tok.Mint(funder, pond.ScaleTokens(100_000)))
	require.NoError(t, tok.Approve(funder, pond.StakingAddress, pond.ScaleTokens(100_000)))
	require.NoError(t, st.Commit())

	assert.ErrorIs(t, ledger.InitializePool(funder, 0), sinkErr)

	// a record that cannot be logged must not commit
	initialized, _ := ledger.Initialized()
	assert.False(t, initialized)
	bal, _ := tok.BalanceOf(funder)
	assert.Equal(t, 0, pond.ScaleTokens(100_000).Cmp(bal))
}

func TestOperationsPersist(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db)
	tok := token.New(pond.TokenAddress, st)
	ledger := New(DefaultConfig(), st, tok, nil)

	require.NoError(t, tok.Mint(alice, pond.ScaleTokens(100_000)))
	require.NoError(t, tok.Approve(alice, pond.StakingAddress, pond.ScaleTokens(100_000)))
	require.NoError(t, st.Commit())

	require.NoError(t, ledger.InitializePool(alice, 0))
	require.NoError(t, ledger.BuyAssets(alice, 0, 7))

	// a fresh ledger over the same store sees the committed state
	st2 := state.New(db)
	reopened := New(DefaultConfig(), st2, token.New(pond.TokenAddress, st2), nil)
	initialized, _ := reopened.Initialized()
	assert.True(t, initialized)
	units, _ := reopened.AssetBalance(alice)
	assert.Equal(t, uint64(7), units)
}
