// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pond

import "math/big"

// Constants of the staking ledger.
const (
	SecondsPerDay uint64 = 86400

	// UnitsPerAsset price of one stake unit, in whole base tokens.
	UnitsPerAsset uint64 = 10
)

var (
	big1e18 = big.NewInt(1e18)

	// InitialRewardPool the one-shot funding target of the reward pool,
	// 10,000 whole tokens scaled by 1e18.
	InitialRewardPool = new(big.Int).Mul(big.NewInt(10_000), big1e18)

	// InitialUnitPrice price of one stake unit in scaled base tokens.
	InitialUnitPrice = new(big.Int).Mul(new(big.Int).SetUint64(UnitsPerAsset), big1e18)

	// InitialDailyRewardRate reward accrued per stake unit per day,
	// 0.1 token scaled by 1e18.
	InitialDailyRewardRate = big.NewInt(1e17)

	// StakingAddress the well-known holding account of the staking ledger.
	StakingAddress = BytesToAddress([]byte("pond-staking"))

	// TokenAddress the well-known identity of the base token ledger.
	TokenAddress = BytesToAddress([]byte("pond-token"))
)

// ScaleTokens converts a whole token count into a scaled 1e18 amount.
func ScaleTokens(n uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(n), big1e18)
}
