// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package records

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/pondfi/pond/logdb"
	"github.com/pondfi/pond/pond"
)

// Record the json form of a stored record.
type Record struct {
	Seq     uint64                `json:"seq"`
	Name    string                `json:"name"`
	Account pond.Address          `json:"account"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
	Time    uint64                `json:"time"`
}

func convertRecords(records []*logdb.Record) []*Record {
	converted := make([]*Record, 0, len(records))
	for _, r := range records {
		converted = append(converted, &Record{
			Seq:     r.Seq,
			Name:    r.Name,
			Account: r.Account,
			Amount:  (*math.HexOrDecimal256)(r.Amount),
			Time:    r.Time,
		})
	}
	return converted
}
