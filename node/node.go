// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/pondfi/pond/api"
	"github.com/pondfi/pond/co"
	"github.com/pondfi/pond/kv"
	"github.com/pondfi/pond/log"
	"github.com/pondfi/pond/logdb"
	"github.com/pondfi/pond/lvldb"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/staking"
	"github.com/pondfi/pond/state"
	"github.com/pondfi/pond/token"
)

var logger = log.WithContext("pkg", "node")

var genesisKey = []byte("genesis-applied")

// Options options of a node.
type Options struct {
	// DataDir directory for databases. Empty runs fully in memory.
	DataDir        string
	APIAddr        string
	AllowedOrigins string
	RecordsLimit   uint64
	EnableMetrics  bool

	Config pond.Config
}

// Node assembles the ledgers, the record log and the api server.
type Node struct {
	db     kv.GetPutCloser
	logDB  *logdb.LogDB
	token  *token.Token
	ledger *staking.Staking

	apiHandler http.HandlerFunc
	apiClose   func()
	apiAddr    string

	recordSig co.Signal
	goes      co.Goes
}

// New create a fully wired node.
func New(opts Options) (node *Node, err error) {
	var (
		db    kv.GetPutCloser
		logDB *logdb.LogDB
	)
	if opts.DataDir == "" {
		if db, err = lvldb.NewMem(); err != nil {
			return nil, err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("running in-memory, nothing will be persisted")
	} else {
		if db, err = lvldb.New(filepath.Join(opts.DataDir, "ledger.db"), lvldb.Options{}); err != nil {
			return nil, err
		}
		if logDB, err = logdb.New(filepath.Join(opts.DataDir, "records.db")); err != nil {
			db.Close()
			return nil, err
		}
	}
	defer func() {
		if node == nil {
			logDB.Close()
			db.Close()
		}
	}()

	st := state.New(db)
	tok := token.New(pond.TokenAddress, st)

	if err := applyGenesis(st, tok, opts.Config); err != nil {
		return nil, err
	}

	n := &Node{
		db:      db,
		logDB:   logDB,
		token:   tok,
		apiAddr: opts.APIAddr,
	}

	sink := staking.SinkFunc(func(ev *staking.Event) error {
		if err := logDB.Write(ev); err != nil {
			return errors.Wrap(err, "record log")
		}
		n.recordSig.Broadcast()
		return nil
	})

	n.ledger = staking.New(staking.Config{
		Addr:            pond.StakingAddress,
		PoolTarget:      opts.Config.PoolTargetAmount(),
		UnitPrice:       opts.Config.UnitPriceAmount(),
		DailyRewardRate: opts.Config.DailyRewardRateAmount(),
	}, st, tok, sink)

	n.apiHandler, n.apiClose = api.New(n.ledger, logDB, &n.recordSig, api.Options{
		AllowedOrigins: opts.AllowedOrigins,
		RecordsLimit:   opts.RecordsLimit,
		EnableMetrics:  opts.EnableMetrics,
	})
	return n, nil
}

// applyGenesis mints the configured allocations once per database lifetime.
// Allocated accounts get an unlimited allowance toward the staking holding
// account, so they can fund the pool and buy stake units right away.
func applyGenesis(st *state.State, tok *token.Token, config pond.Config) error {
	applied, err := st.GetRaw(genesisKey)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		return nil
	}
	for _, alloc := range config.Allocations {
		amount := pond.ScaleTokens(alloc.Balance)
		if err := tok.Mint(alloc.Address, amount); err != nil {
			return err
		}
		if err := tok.Approve(alloc.Address, pond.StakingAddress, math.MaxBig256); err != nil {
			return err
		}
		logger.Info("genesis allocation", "account", alloc.Address, "balance", amount)
	}
	st.SetRaw(genesisKey, []byte{1})
	return st.Commit()
}

// Ledger returns the staking ledger.
func (n *Node) Ledger() *staking.Staking {
	return n.ledger
}

// Token returns the token ledger.
func (n *Node) Token() *token.Token {
	return n.token
}

// Run serves the api until ctx is done, then shuts everything down.
func (n *Node) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", n.apiAddr)
	if err != nil {
		return errors.Wrap(err, "listen api addr")
	}

	srv := &http.Server{Handler: n.apiHandler, ReadHeaderTimeout: 10 * time.Second}
	defer func() {
		n.apiClose()
		n.logDB.Close()
		n.db.Close()
	}()

	n.goes.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	})

	logger.Info("api server started", "addr", listener.Addr())
	if err := srv.Serve(listener); err != http.ErrServerClosed {
		return errors.Wrap(err, "api server")
	}
	n.goes.Wait()
	logger.Info("node stopped")
	return nil
}
