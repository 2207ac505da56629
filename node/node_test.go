package node

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
	"github.com/pondfi/pond/token"
)

var (
	funder = pond.BytesToAddress([]byte("funder"))
	alice  = pond.BytesToAddress([]byte("alice"))
)

func newTestNode(t *testing.T) (*Node, *httptest.Server) {
	n, err := New(Options{
		RecordsLimit: 100,
		Config: pond.Config{
			Allocations: []pond.Allocation{
				{Address: funder, Balance: 50_000},
				{Address: alice, Balance: 1_000},
			},
		},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(n.apiHandler)
	t.Cleanup(func() {
		ts.Close()
		n.apiClose()
		n.logDB.Close()
		n.db.Close()
	})
	return n, ts
}

func post(t *testing.T, url string, obj any) int {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	return res.StatusCode
}

func TestNodeGenesis(t *testing.T) {
	n, _ := newTestNode(t)

	bal, err := n.Token().BalanceOf(funder)
	require.NoError(t, err)
	assert.Equal(t, 0, pond.ScaleTokens(50_000).Cmp(bal))

	supply, err := n.Token().TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, 0, pond.ScaleTokens(51_000).Cmp(supply))

	// allocations carry an allowance toward the holding account, so the
	// ledger can pull funds without a separate approval step
	allowance, err := n.Token().Allowance(funder, pond.StakingAddress)
	require.NoError(t, err)
	assert.True(t, allowance.Cmp(pond.InitialRewardPool) > 0)
}

func TestNodeEndToEnd(t *testing.T) {
	n, ts := newTestNode(t)

	status := post(t, ts.URL+"/staking/pool", map[string]any{"funder": funder})
	assert.Equal(t, http.StatusOK, status)

	initialized, err := n.Ledger().Initialized()
	require.NoError(t, err)
	assert.True(t, initialized)

	status = post(t, ts.URL+"/staking/purchases", map[string]any{"caller": alice, "amount": 5})
	assert.Equal(t, http.StatusOK, status)

	units, err := n.Ledger().AssetBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), units)

	// both operations landed in the record log
	res, err := http.Get(ts.URL + "/records") //#nosec G107
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "PoolInitialized", records[0]["name"])
	assert.Equal(t, "AssetsBought", records[1]["name"])
}

func TestApplyGenesisOnce(t *testing.T) {
	n, _ := newTestNode(t)

	supply, err := n.Token().TotalSupply()
	require.NoError(t, err)

	// re-applying over the same database is a no-op
	st := state.New(n.db)
	require.NoError(t, applyGenesis(st, token.New(pond.TokenAddress, st), pond.Config{
		Allocations: []pond.Allocation{{Address: funder, Balance: 1}},
	}))

	supply2, err := n.Token().TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Cmp(supply2))
}
