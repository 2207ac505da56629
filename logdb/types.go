// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/staking"
)

// Record a stored record with its sequence number.
type Record struct {
	Seq uint64
	staking.Event
}

// Order describes the order of the query output.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Options limits a query result window.
type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter criteria of a record query. Zero fields match everything.
type Filter struct {
	Name     string
	Account  *pond.Address
	AfterSeq uint64
	Order    Order
	Options  *Options
}
