// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"

	"github.com/pondfi/pond/log"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
)

var logger = log.WithContext("pkg", "staking")

// Asset the fungible-asset ledger the staking ledger moves value through.
// Failures propagate as fatal aborts of the calling operation.
type Asset interface {
	Address() pond.Address
	Transfer(from, to pond.Address, amount *big.Int) error
	TransferFrom(spender, from, to pond.Address, amount *big.Int) error
	BalanceOf(addr pond.Address) (*big.Int, error)
}

// Config construction parameters of the staking ledger.
type Config struct {
	// Addr the ledger's holding account.
	Addr pond.Address
	// PoolTarget the one-shot reward pool funding amount, scaled by 1e18.
	PoolTarget *big.Int
	// UnitPrice price of one stake unit in scaled base tokens.
	UnitPrice *big.Int
	// DailyRewardRate reward per stake unit per day, scaled by 1e18.
	DailyRewardRate *big.Int
}

// DefaultConfig config with the well-known initial constants.
func DefaultConfig() Config {
	return Config{
		Addr:            pond.StakingAddress,
		PoolTarget:      new(big.Int).Set(pond.InitialRewardPool),
		UnitPrice:       new(big.Int).Set(pond.InitialUnitPrice),
		DailyRewardRate: new(big.Int).Set(pond.InitialDailyRewardRate),
	}
}

// Staking the staking ledger: per-account stake units and unclaimed rewards,
// a finite one-time-funded reward pool, and the operations over them.
//
// Every operation is serialized and atomic: it runs under a single lock,
// inside a state checkpoint that is reverted wholesale on any failure. Ledger
// effects are committed to the journal before the asset transfer is issued,
// so a transfer that re-enters the ledger observes fully settled state.
type Staking struct {
	config Config
	state  *state.State
	asset  Asset
	sink   Sink

	lock sync.Mutex // serializes all operations and queries
}

// New create a staking ledger instance.
// A nil sink discards emitted records.
func New(config Config, st *state.State, asset Asset, sink Sink) *Staking {
	if sink == nil {
		sink = nopSink{}
	}
	return &Staking{
		config: config,
		state:  st,
		asset:  asset,
		sink:   sink,
	}
}

func (s *Staking) poolKey() []byte {
	return append([]byte("p"), s.config.Addr.Bytes()...)
}

func (s *Staking) recordKey(addr pond.Address) []byte {
	return append(append([]byte("r"), s.config.Addr.Bytes()...), addr.Bytes()...)
}

func (s *Staking) getPool() (*rewardPool, error) {
	var p rewardPool
	if err := s.state.Get(s.poolKey(), &p); err != nil {
		return nil, err
	}
	if p.Remaining == nil {
		p.Remaining = new(big.Int).Set(s.config.PoolTarget)
	}
	return &p, nil
}

func (s *Staking) getRecord(addr pond.Address) (*userRecord, error) {
	var r userRecord
	if err := s.state.Get(s.recordKey(addr), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// settle credits rec's accrued reward, debits the pool and advances the
// settlement time. It is the single place time-dependent math occurs;
// everything else sees only already-settled integers.
func (s *Staking) settle(rec *userRecord, p *rewardPool, now uint64) {
	additional := rec.CalcReward(now, s.config.DailyRewardRate, p.Remaining)
	if additional.Sign() > 0 {
		rec.Reward = new(big.Int).Add(rec.Reward, additional)
		p.Remaining = new(big.Int).Sub(p.Remaining, additional)
	}
	if now > rec.Timestamp {
		rec.Timestamp = now
	}
}

// run executes op as a single serialized all-or-nothing transaction.
// Failure at any point, including record emission, reverts every journaled
// write; success commits them in one batch.
func (s *Staking) run(name string, op func() (*Event, error)) (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	defer func() { metricsHandleOp(name, err) }()

	checkpoint := s.state.NewCheckpoint()
	ev, err := op()
	if err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	if err := s.sink.Record(ev); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	// a failed commit leaves the journal untouched, so the journaled writes
	// must be discarded or later reads and commits would still see them
	if err := s.state.Commit(); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// InitializePool funds the reward pool by pulling the pool target from the
// funder. Permitted to run exactly once.
func (s *Staking) InitializePool(funder pond.Address, now uint64) error {
	return s.run("initialize", func() (*Event, error) {
		p, err := s.getPool()
		if err != nil {
			return nil, err
		}
		if p.Initialized {
			return nil, ErrAlreadyInitialized
		}
		p.Initialized = true
		if err := s.state.Set(s.poolKey(), p); err != nil {
			return nil, err
		}
		amount := new(big.Int).Set(p.Remaining)
		if err := s.asset.TransferFrom(s.config.Addr, funder, s.config.Addr, amount); err != nil {
			return nil, err
		}
		logger.Info("pool initialized", "funder", funder, "amount", amount)
		return &Event{EventPoolInitialized, funder, amount, now}, nil
	})
}

// BuyAssets exchanges the caller's tokens for stake units at the fixed price.
func (s *Staking) BuyAssets(caller pond.Address, now uint64, amount uint64) error {
	return s.run("buy", func() (*Event, error) {
		p, err := s.getPool()
		if err != nil {
			return nil, err
		}
		if !p.Initialized {
			return nil, ErrUninitialized
		}
		if amount == 0 {
			return nil, ErrZeroAmount
		}
		rec, err := s.getRecord(caller)
		if err != nil {
			return nil, err
		}
		s.settle(rec, p, now)
		rec.Assets += amount
		if err := s.writeLedger(caller, rec, p); err != nil {
			return nil, err
		}

		price := new(big.Int).Mul(new(big.Int).SetUint64(amount), s.config.UnitPrice)
		if err := s.asset.TransferFrom(s.config.Addr, caller, s.config.Addr, price); err != nil {
			return nil, err
		}
		metricsHandlePool(p.Remaining)
		logger.Debug("assets bought", "account", caller, "amount", amount, "price", price)
		return &Event{EventAssetsBought, caller, new(big.Int).SetUint64(amount), now}, nil
	})
}

// RedeemAssets exchanges the caller's stake units back for tokens at the
// fixed price. It needs no initialization gate: stake units cannot exist
// before a successful, initialization-gated buy.
func (s *Staking) RedeemAssets(caller pond.Address, now uint64, amount uint64) error {
	return s.run("redeem", func() (*Event, error) {
		if amount == 0 {
			return nil, ErrZeroAmount
		}
		p, err := s.getPool()
		if err != nil {
			return nil, err
		}
		rec, err := s.getRecord(caller)
		if err != nil {
			return nil, err
		}
		s.settle(rec, p, now)
		if rec.Assets < amount {
			return nil, &InsufficientAssetsError{Available: rec.Assets, Requested: amount}
		}
		rec.Assets -= amount
		if err := s.writeLedger(caller, rec, p); err != nil {
			return nil, err
		}

		refund := new(big.Int).Mul(new(big.Int).SetUint64(amount), s.config.UnitPrice)
		if err := s.asset.Transfer(s.config.Addr, caller, refund); err != nil {
			return nil, err
		}
		metricsHandlePool(p.Remaining)
		logger.Debug("assets redeemed", "account", caller, "amount", amount, "refund", refund)
		return &Event{EventAssetsRedeemed, caller, new(big.Int).SetUint64(amount), now}, nil
	})
}

// ClaimRewards withdraws the caller's entire settled reward.
func (s *Staking) ClaimRewards(caller pond.Address, now uint64) (*big.Int, error) {
	var claimed *big.Int
	err := s.run("claim", func() (*Event, error) {
		p, err := s.getPool()
		if err != nil {
			return nil, err
		}
		rec, err := s.getRecord(caller)
		if err != nil {
			return nil, err
		}
		s.settle(rec, p, now)
		if rec.Reward.Sign() == 0 {
			return nil, ErrNoRewards
		}
		claimed = rec.Reward
		rec.Reward = &big.Int{}
		if err := s.writeLedger(caller, rec, p); err != nil {
			return nil, err
		}

		if err := s.asset.Transfer(s.config.Addr, caller, claimed); err != nil {
			return nil, err
		}
		metricsHandlePool(p.Remaining)
		logger.Debug("rewards claimed", "account", caller, "amount", claimed)
		return &Event{EventRewardsClaimed, caller, claimed, now}, nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *Staking) writeLedger(addr pond.Address, rec *userRecord, p *rewardPool) error {
	if err := s.state.Set(s.recordKey(addr), rec); err != nil {
		return err
	}
	return s.state.Set(s.poolKey(), p)
}

//
// Queries - no state mutation, no settlement side effects persisted.
//

// AssetAddress returns the configured asset ledger identity.
func (s *Staking) AssetAddress() pond.Address {
	return s.asset.Address()
}

// Initialized returns whether the pool has been funded.
func (s *Staking) Initialized() (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, err := s.getPool()
	if err != nil {
		return false, err
	}
	return p.Initialized, nil
}

// RemainingPool returns the undistributed remainder of the reward pool.
func (s *Staking) RemainingPool() (*big.Int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, err := s.getPool()
	if err != nil {
		return nil, err
	}
	return p.Remaining, nil
}

// AssetBalance returns the stake units held by an account.
func (s *Staking) AssetBalance(addr pond.Address) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	rec, err := s.getRecord(addr)
	if err != nil {
		return 0, err
	}
	return rec.Assets, nil
}

// ClaimableReward previews what a claim at the given time would yield,
// without writing anything.
func (s *Staking) ClaimableReward(addr pond.Address, now uint64) (*big.Int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rec, err := s.getRecord(addr)
	if err != nil {
		return nil, err
	}
	additional := rec.CalcReward(now, s.config.DailyRewardRate, p.Remaining)
	return additional.Add(additional, rec.Reward), nil
}
