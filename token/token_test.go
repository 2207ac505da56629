package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondfi/pond/lvldb"
	"github.com/pondfi/pond/pond"
	"github.com/pondfi/pond/state"
)

func newTestToken(t *testing.T) *Token {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(pond.BytesToAddress([]byte("tok")), state.New(db))
}

func TestToken(t *testing.T) {
	tok := newTestToken(t)

	alice := pond.BytesToAddress([]byte("alice"))
	bob := pond.BytesToAddress([]byte("bob"))

	bal, err := tok.BalanceOf(alice)
	assert.Nil(t, err)
	assert.Equal(t, 0, bal.Sign())

	assert.Nil(t, tok.Mint(alice, big.NewInt(100)))

	bal, _ = tok.BalanceOf(alice)
	assert.Equal(t, big.NewInt(100), bal)

	supply, _ := tok.TotalSupply()
	assert.Equal(t, big.NewInt(100), supply)

	assert.Nil(t, tok.Transfer(alice, bob, big.NewInt(40)))

	bal, _ = tok.BalanceOf(alice)
	assert.Equal(t, big.NewInt(60), bal)
	bal, _ = tok.BalanceOf(bob)
	assert.Equal(t, big.NewInt(40), bal)

	err = tok.Transfer(alice, bob, big.NewInt(61))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// failed transfer must not move anything
	bal, _ = tok.BalanceOf(alice)
	assert.Equal(t, big.NewInt(60), bal)
}

func TestTokenAllowance(t *testing.T) {
	tok := newTestToken(t)

	owner := pond.BytesToAddress([]byte("owner"))
	spender := pond.BytesToAddress([]byte("spender"))
	dest := pond.BytesToAddress([]byte("dest"))

	assert.Nil(t, tok.Mint(owner, big.NewInt(100)))

	err := tok.TransferFrom(spender, owner, dest, big.NewInt(10))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	assert.Nil(t, tok.Approve(owner, spender, big.NewInt(30)))

	allowance, _ := tok.Allowance(owner, spender)
	assert.Equal(t, big.NewInt(30), allowance)

	assert.Nil(t, tok.TransferFrom(spender, owner, dest, big.NewInt(10)))

	allowance, _ = tok.Allowance(owner, spender)
	assert.Equal(t, big.NewInt(20), allowance)

	bal, _ := tok.BalanceOf(dest)
	assert.Equal(t, big.NewInt(10), bal)

	err = tok.TransferFrom(spender, owner, dest, big.NewInt(21))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTokenNegativeAmount(t *testing.T) {
	tok := newTestToken(t)

	addr := pond.BytesToAddress([]byte("a"))

	assert.ErrorIs(t, tok.Mint(addr, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, tok.Transfer(addr, addr, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, tok.Approve(addr, addr, big.NewInt(-1)), ErrNegativeAmount)
}
