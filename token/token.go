// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
)

var (
	// ErrInsufficientBalance transfer amount exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance transfer amount exceeds the spender's allowance.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrNegativeAmount a negative amount passed to a balance-changing method.
	ErrNegativeAmount = errors.New("token: negative amount")
)

// Token a transferable-balance ledger keyed by account identity, with an
// allowance mechanism for third-party pulls.
type Token struct {
	addr  pond.Address
	state *state.State
}

// New create a token ledger instance bound to the given identity.
func New(addr pond.Address, st *state.State) *Token {
	return &Token{addr, st}
}

// Address returns the ledger's identity.
func (t *Token) Address() pond.Address {
	return t.addr
}

func (t *Token) balanceKey(addr pond.Address) []byte {
	return append(append([]byte("b"), t.addr.Bytes()...), addr.Bytes()...)
}

func (t *Token) allowanceKey(owner pond.Address, spender pond.Address) []byte {
	return crypto.Keccak256(t.addr.Bytes(), owner.Bytes(), spender.Bytes())
}

func (t *Token) totalSupplyKey() []byte {
	return append([]byte("ts"), t.addr.Bytes()...)
}

func (t *Token) getAmount(key []byte) (*big.Int, error) {
	var a state.Amount
	if err := t.state.Get(key, &a); err != nil {
		return nil, err
	}
	return &a.Int, nil
}

func (t *Token) setAmount(key []byte, v *big.Int) error {
	var a state.Amount
	a.Int.Set(v)
	return t.state.Set(key, &a)
}

// BalanceOf returns the token balance of an account.
func (t *Token) BalanceOf(addr pond.Address) (*big.Int, error) {
	return t.getAmount(t.balanceKey(addr))
}

// TotalSupply returns total minted supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.getAmount(t.totalSupplyKey())
}

// Mint credits an account with newly issued tokens.
func (t *Token) Mint(addr pond.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := t.setAmount(t.balanceKey(addr), new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	supply, err := t.TotalSupply()
	if err != nil {
		return err
	}
	return t.setAmount(t.totalSupplyKey(), new(big.Int).Add(supply, amount))
}

// Transfer moves tokens between two accounts.
func (t *Token) Transfer(from, to pond.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.setAmount(t.balanceKey(from), new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	return t.setAmount(t.balanceKey(to), new(big.Int).Add(toBal, amount))
}

// Approve grants spender the right to pull up to amount tokens from owner.
// It overwrites any previous allowance.
func (t *Token) Approve(owner, spender pond.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return t.setAmount(t.allowanceKey(owner, spender), amount)
}

// Allowance returns the remaining allowance from owner to spender.
func (t *Token) Allowance(owner, spender pond.Address) (*big.Int, error) {
	return t.getAmount(t.allowanceKey(owner, spender))
}

// TransferFrom moves tokens from 'from' to 'to' on behalf of spender,
// debiting spender's allowance.
func (t *Token) TransferFrom(spender, from, to pond.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.setAmount(t.allowanceKey(from, spender), new(big.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	return t.Transfer(from, to, amount)
}
