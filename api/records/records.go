// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package records

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pondfi/pond/api/utils"
	"github.com/pondfi/pond/logdb"
	"github.com/pondfi/pond/pond"
)

// Records exposes filter queries over the emitted record log.
type Records struct {
	db    *logdb.LogDB
	limit uint64
}

// New create the records api. limit caps the page size of a query.
func New(db *logdb.LogDB, limit uint64) *Records {
	return &Records{db, limit}
}

func (r *Records) parseFilter(req *http.Request) (*logdb.Filter, error) {
	query := req.URL.Query()
	filter := &logdb.Filter{
		Name:    query.Get("name"),
		Order:   logdb.ASC,
		Options: &logdb.Options{Limit: r.limit},
	}
	if query.Get("order") == string(logdb.DESC) {
		filter.Order = logdb.DESC
	}
	if acc := query.Get("account"); acc != "" {
		addr, err := pond.ParseAddress(acc)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = &addr
	}
	if offset := query.Get("offset"); offset != "" {
		n, err := strconv.ParseUint(offset, 10, 64)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "offset"))
		}
		filter.Options.Offset = n
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.ParseUint(limit, 10, 64)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "limit"))
		}
		if n > r.limit {
			return nil, utils.Forbidden(errors.Errorf("limit exceeds the maximum allowed value of %v", r.limit))
		}
		filter.Options.Limit = n
	}
	return filter, nil
}

func (r *Records) handleFilterRecords(w http.ResponseWriter, req *http.Request) error {
	filter, err := r.parseFilter(req)
	if err != nil {
		return err
	}
	records, err := r.db.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRecords(records))
}

// Mount mounts the handlers on the router.
func (r *Records) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleFilterRecords))
}
