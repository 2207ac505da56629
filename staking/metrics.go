// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pondfi/pond/metrics"
)

var (
	metricOpCount = metrics.LazyLoadCounterVec("staking_operation_count", []string{"op", "outcome"})
	metricPool    = metrics.LazyLoadGauge("staking_pool_remaining_tokens")
)

var big1e18 = big.NewInt(1e18)

func metricsHandleOp(op string, err error) {
	if metrics.NoOp() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
}

func metricsHandlePool(remaining *big.Int) {
	if metrics.NoOp() {
		return
	}
	metricPool().Set(new(big.Int).Div(remaining, big1e18).Int64())
}
