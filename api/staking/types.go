// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/pondfi/pond/pond"
)

// PoolStatus the pool-level view.
type PoolStatus struct {
	Asset       pond.Address          `json:"asset"`
	Initialized bool                  `json:"initialized"`
	Remaining   *math.HexOrDecimal256 `json:"remaining"`
}

// Account the per-account view.
type Account struct {
	Assets          uint64                `json:"assets"`
	ClaimableReward *math.HexOrDecimal256 `json:"claimableReward"`
}

// InitializeRequest body of pool initialization.
type InitializeRequest struct {
	Funder pond.Address `json:"funder"`
}

// TradeRequest body of a buy or redeem.
type TradeRequest struct {
	Caller pond.Address `json:"caller"`
	Amount uint64       `json:"amount"`
}

// ClaimRequest body of a reward claim.
type ClaimRequest struct {
	Caller pond.Address `json:"caller"`
}

// ClaimResult amount withdrawn by a claim.
type ClaimResult struct {
	Claimed *math.HexOrDecimal256 `json:"claimed"`
}
