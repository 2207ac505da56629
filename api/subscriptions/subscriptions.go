// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/pondfi/pond/api/utils"
	"github.com/pondfi/pond/co"
	"github.com/pondfi/pond/log"
	"github.com/pondfi/pond/logdb"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	pingPeriod  = 10 * time.Second
	writeWait   = 5 * time.Second
	readLimit   = 1024
	streamBatch = 256
)

// Subscriptions streams newly appended records to websocket clients.
type Subscriptions struct {
	db       *logdb.LogDB
	sig      *co.Signal // broadcast by the node whenever a record is appended
	done     chan struct{}
	goes     co.Goes
	upgrader websocket.Upgrader
}

// New create the subscriptions api.
func New(db *logdb.LogDB, sig *co.Signal) *Subscriptions {
	return &Subscriptions{
		db:   db,
		sig:  sig,
		done: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Close stops all running streams and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.goes.Wait()
}

func (s *Subscriptions) handleSubscribeRecords(w http.ResponseWriter, req *http.Request) error {
	// pos is the last record sequence the client has seen; 0 streams from
	// the beginning. Defaults to the current head so only new records flow.
	var pos uint64
	if posStr := req.URL.Query().Get("pos"); posStr != "" {
		n, err := strconv.ParseUint(posStr, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		pos = n
	} else {
		head, err := s.db.MaxSeq(req.Context())
		if err != nil {
			return err
		}
		pos = head
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}
	s.goes.Go(func() { s.stream(conn, pos) })
	return nil
}

func (s *Subscriptions) stream(conn *websocket.Conn, pos uint64) {
	defer conn.Close()

	closed := make(chan struct{})
	// reader loop, only to detect client close
	go func() {
		defer close(closed)
		conn.SetReadLimit(readLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	waiter := s.sig.NewWaiter()
	for {
		next, err := s.push(conn, pos)
		if err != nil {
			logger.Debug("record stream ended", "err", err)
			return
		}
		pos = next

		select {
		case <-s.done:
			return
		case <-closed:
			return
		case <-waiter.C():
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push sends all records after pos and returns the new position.
func (s *Subscriptions) push(conn *websocket.Conn, pos uint64) (uint64, error) {
	for {
		records, err := s.db.FilterAfter(pos, streamBatch)
		if err != nil {
			return pos, err
		}
		if len(records) == 0 {
			return pos, nil
		}
		for _, r := range records {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(r); err != nil {
				return pos, err
			}
			pos = r.Seq
		}
	}
}

// Mount mounts the handlers on the router.
func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/records").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeRecords))
}
