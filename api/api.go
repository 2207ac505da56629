// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pondfi/pond/api/records"
	stakingapi "github.com/pondfi/pond/api/staking"
	"github.com/pondfi/pond/api/subscriptions"
	"github.com/pondfi/pond/co"
	"github.com/pondfi/pond/logdb"
	"github.com/pondfi/pond/metrics"
	"github.com/pondfi/pond/staking"
)

// Options options of the api.
type Options struct {
	AllowedOrigins string
	RecordsLimit   uint64
	EnableMetrics  bool
}

// New return api router along with a close function.
func New(
	ledger *staking.Staking,
	logDB *logdb.LogDB,
	recordSig *co.Signal,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	stakingapi.New(ledger).
		Mount(router, "/staking")
	records.New(logDB, opts.RecordsLimit).
		Mount(router, "/records")

	subs := subscriptions.New(logDB, recordSig)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
	}

	handler := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(router)

	return handler.ServeHTTP, subs.Close
}
