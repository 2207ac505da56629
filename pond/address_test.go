package pond

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr := BytesToAddress([]byte("account1"))

	parsed, err := ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	parsed, err = ParseAddress(addr.String()[2:])
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress("0x123")
	assert.Error(t, err)

	_, err = ParseAddress("zz" + addr.String()[2:])
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("account1"))

	data, err := json.Marshal(addr)
	assert.Nil(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	assert.Nil(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, BytesToAddress([]byte("x")).IsZero())
}
