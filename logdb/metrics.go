// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import "github.com/pondfi/pond/metrics"

var (
	metricQueryCounter = metrics.LazyLoadCounterVec("logdb_query_count", []string{"name", "order"})
	metricWriteCounter = metrics.LazyLoadCounter("logdb_write_count")
)

func metricsHandleFilter(filter *Filter) {
	if metrics.NoOp() {
		return
	}
	name, order := "", string(ASC)
	if filter != nil {
		name = filter.Name
		if filter.Order == DESC {
			order = string(DESC)
		}
	}
	metricQueryCounter().AddWithLabel(1, map[string]string{"name": name, "order": order})
}
