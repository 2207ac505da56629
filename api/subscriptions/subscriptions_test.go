package subscriptions

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondfi/pond/co"
	"github.com/pondfi/pond/logdb"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/staking"
)

var alice = pond.BytesToAddress([]byte("alice"))

func initSubscriptionsServer(t *testing.T) (*logdb.LogDB, *co.Signal, *Subscriptions, *httptest.Server) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	var sig co.Signal
	subs := New(db, &sig)

	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return db, &sig, subs, ts
}

func writeRecord(t *testing.T, db *logdb.LogDB, sig *co.Signal, amount int64, recordTime uint64) {
	require.NoError(t, db.Write(&staking.Event{
		Name:    staking.EventAssetsBought,
		Account: alice,
		Amount:  big.NewInt(amount),
		Time:    recordTime,
	}))
	sig.Broadcast()
}

func dialRecords(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	u := url.URL{
		Scheme:   "ws",
		Host:     strings.TrimPrefix(ts.URL, "http://"),
		Path:     "/subscriptions/records",
		RawQuery: query,
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// protocol upgrade happened
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, "websocket", resp.Header.Get("Upgrade"))
	return conn
}

func readRecord(t *testing.T, conn *websocket.Conn) *logdb.Record {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var record logdb.Record
	require.NoError(t, conn.ReadJSON(&record))
	return &record
}

func TestSubscribeRecordsFromPos(t *testing.T) {
	db, sig, _, ts := initSubscriptionsServer(t)

	writeRecord(t, db, sig, 1, 100)
	writeRecord(t, db, sig, 2, 200)
	writeRecord(t, db, sig, 3, 300)

	// pos=1 replays everything after the first record
	conn := dialRecords(t, ts, "pos=1")

	record := readRecord(t, conn)
	assert.Equal(t, uint64(2), record.Seq)
	assert.Equal(t, staking.EventAssetsBought, record.Name)
	assert.Equal(t, alice, record.Account)
	assert.Equal(t, 0, big.NewInt(2).Cmp(record.Amount))
	assert.Equal(t, uint64(200), record.Time)

	record = readRecord(t, conn)
	assert.Equal(t, uint64(3), record.Seq)
}

func TestSubscribeRecordsLive(t *testing.T) {
	db, sig, _, ts := initSubscriptionsServer(t)

	writeRecord(t, db, sig, 1, 100)

	// no pos: stream starts at the current head, the backlog is skipped
	conn := dialRecords(t, ts, "")

	writeRecord(t, db, sig, 2, 200)
	record := readRecord(t, conn)
	assert.Equal(t, uint64(2), record.Seq)

	writeRecord(t, db, sig, 3, 300)
	record = readRecord(t, conn)
	assert.Equal(t, uint64(3), record.Seq)
}

func TestSubscribeRecordsBadPos(t *testing.T) {
	_, _, _, ts := initSubscriptionsServer(t)

	res, err := http.Get(ts.URL + "/subscriptions/records?pos=junk") //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSubscriptionsClose(t *testing.T) {
	db, sig, subs, ts := initSubscriptionsServer(t)

	conn := dialRecords(t, ts, "")
	writeRecord(t, db, sig, 1, 100)
	readRecord(t, conn)

	// Close must end the running stream and wait for it
	done := make(chan struct{})
	go func() {
		defer close(done)
		subs.Close()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not finish")
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var record logdb.Record
	assert.Error(t, conn.ReadJSON(&record))
}
