// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/pondfi/pond/api/utils"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/staking"
)

// Staking exposes the staking ledger over REST. Mutating endpoints use the
// server clock as the host-supplied current time.
type Staking struct {
	ledger *staking.Staking
	now    func() uint64
}

// New create the staking api.
func New(ledger *staking.Staking) *Staking {
	return &Staking{
		ledger: ledger,
		now:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

// convertError maps ledger rule violations to forbidden, everything else
// passes through as internal error.
func convertError(err error) error {
	switch {
	case errors.Is(err, staking.ErrAlreadyInitialized),
		errors.Is(err, staking.ErrUninitialized),
		errors.Is(err, staking.ErrZeroAmount),
		errors.Is(err, staking.ErrNoRewards):
		return utils.Forbidden(err)
	}
	var insufficient *staking.InsufficientAssetsError
	if errors.As(err, &insufficient) {
		return utils.Forbidden(err)
	}
	return err
}

func (s *Staking) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	initialized, err := s.ledger.Initialized()
	if err != nil {
		return err
	}
	remaining, err := s.ledger.RemainingPool()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &PoolStatus{
		Asset:       s.ledger.AssetAddress(),
		Initialized: initialized,
		Remaining:   amount(remaining),
	})
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := pond.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "address"))
	}
	assets, err := s.ledger.AssetBalance(addr)
	if err != nil {
		return err
	}
	claimable, err := s.ledger.ClaimableReward(addr, s.now())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Assets:          assets,
		ClaimableReward: amount(claimable),
	})
}

func (s *Staking) handleInitializePool(w http.ResponseWriter, req *http.Request) error {
	var body InitializeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	if err := s.ledger.InitializePool(body.Funder, s.now()); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{})
}

func (s *Staking) handleBuyAssets(w http.ResponseWriter, req *http.Request) error {
	var body TradeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	if err := s.ledger.BuyAssets(body.Caller, s.now(), body.Amount); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{})
}

func (s *Staking) handleRedeemAssets(w http.ResponseWriter, req *http.Request) error {
	var body TradeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	if err := s.ledger.RedeemAssets(body.Caller, s.now(), body.Amount); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, utils.M{})
}

func (s *Staking) handleClaimRewards(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	claimed, err := s.ledger.ClaimRewards(body.Caller, s.now())
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &ClaimResult{Claimed: amount(claimed)})
}

// Mount mounts the handlers on the router.
func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetPool))
	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/pool").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleInitializePool))
	sub.Path("/purchases").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleBuyAssets))
	sub.Path("/redemptions").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleRedeemAssets))
	sub.Path("/claims").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(s.handleClaimRewards))
}
