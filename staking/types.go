// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
)

type (
	// userRecord per-account ledger entry. Created lazily on first
	// settlement, never deleted, only zeroed in place.
	userRecord struct {
		Assets uint64   // stake units held
		Reward *big.Int // settled, unclaimed reward, scaled by 1e18

		// snapshot
		Timestamp uint64 // last settlement time
	}

	// rewardPool process-wide remaining reward balance with its one-shot
	// initialization gate. Remaining is nil until first stored; the ledger
	// substitutes the configured target.
	rewardPool struct {
		Initialized bool
		Remaining   *big.Int
	}
)

var (
	_ state.StorageEncoder = (*userRecord)(nil)
	_ state.StorageDecoder = (*userRecord)(nil)

	_ state.StorageEncoder = (*rewardPool)(nil)
	_ state.StorageDecoder = (*rewardPool)(nil)
)

func (r *userRecord) Encode() ([]byte, error) {
	if r.Assets == 0 &&
		r.Reward.Sign() == 0 &&
		r.Timestamp == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(r)
}

func (r *userRecord) Decode(data []byte) error {
	if len(data) == 0 {
		*r = userRecord{0, &big.Int{}, 0}
		return nil
	}
	return rlp.DecodeBytes(data, r)
}

// CalcReward computes the additional reward accrued between the record's
// last settlement and now, capped at what the pool has left. All amounts are
// scaled by 1e18 and division truncates toward zero. Once remaining is zero
// the result is always zero: reward growth halts but does not error.
func (r *userRecord) CalcReward(now uint64, dailyRate *big.Int, remaining *big.Int) *big.Int {
	if now <= r.Timestamp {
		// settlement at an identical or earlier time accrues nothing
		return &big.Int{}
	}
	if r.Assets == 0 || remaining.Sign() == 0 {
		return &big.Int{}
	}

	x := new(big.Int).SetUint64(now - r.Timestamp)
	x.Mul(x, new(big.Int).SetUint64(r.Assets))
	x.Mul(x, dailyRate)
	x.Div(x, new(big.Int).SetUint64(pond.SecondsPerDay))
	if x.Cmp(remaining) > 0 {
		return new(big.Int).Set(remaining)
	}
	return x
}

func (p *rewardPool) Encode() ([]byte, error) {
	if !p.Initialized && p.Remaining == nil {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

func (p *rewardPool) Decode(data []byte) error {
	if len(data) == 0 {
		*p = rewardPool{false, nil}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}
