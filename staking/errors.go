// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"fmt"
)

// Operation rule violations. All are fail-fast: the whole operation aborts
// and no partial effect persists.
var (
	// ErrAlreadyInitialized pool initialization attempted a second time.
	ErrAlreadyInitialized = errors.New("staking: pool already initialized")

	// ErrUninitialized asset purchase attempted before pool funding.
	ErrUninitialized = errors.New("staking: pool not initialized")

	// ErrZeroAmount a zero-amount buy/redeem request.
	ErrZeroAmount = errors.New("staking: zero amount not allowed")

	// ErrNoRewards claim attempted with zero settled+accrued reward.
	ErrNoRewards = errors.New("staking: no rewards for sender")
)

// InsufficientAssetsError redeem request exceeds held stake units.
// Both values are carried for caller diagnostics.
type InsufficientAssetsError struct {
	Available uint64
	Requested uint64
}

func (e *InsufficientAssetsError) Error() string {
	return fmt.Sprintf("staking: insufficient assets: available %d, requested %d", e.Available, e.Requested)
}
