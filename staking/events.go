// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pondfi/pond/pond"
)

// Names of emitted records.
const (
	EventPoolInitialized = "PoolInitialized"
	EventAssetsBought    = "AssetsBought"
	EventAssetsRedeemed  = "AssetsRedeemed"
	EventRewardsClaimed  = "RewardsClaimed"
)

// Event a record of a completed operation, appended to the record log for
// external indexers. Amount carries the scaled reward/funding amount for
// PoolInitialized and RewardsClaimed, and the stake unit count for
// AssetsBought and AssetsRedeemed.
type Event struct {
	Name    string
	Account pond.Address
	Amount  *big.Int
	Time    uint64
}

// Sink consumes emitted events. A sink failure aborts the emitting operation.
type Sink interface {
	Record(ev *Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev *Event) error

// Record implements Sink.
func (f SinkFunc) Record(ev *Event) error {
	return f(ev)
}

type nopSink struct{}

func (nopSink) Record(*Event) error { return nil }
