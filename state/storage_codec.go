package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// StorageEncoder storage value types should implement this to be stored.
// Encoding to nil data means the value is empty and its key gets deleted.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder storage value types should implement this to be loaded.
// Nil data decodes to the zero value.
type StorageDecoder interface {
	Decode([]byte) error
}

// Amount a big.Int storage value, rlp encoded.
// It decodes missing data to zero, and encodes zero to nil so that
// zeroed amounts vacate their storage slot.
type Amount struct {
	big.Int
}

var _ StorageEncoder = (*Amount)(nil)
var _ StorageDecoder = (*Amount)(nil)

// Encode implements StorageEncoder.
func (a *Amount) Encode() ([]byte, error) {
	if a.Sign() == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(&a.Int)
}

// Decode implements StorageDecoder.
func (a *Amount) Decode(data []byte) error {
	if len(data) == 0 {
		a.Int = big.Int{}
		return nil
	}
	return rlp.DecodeBytes(data, &a.Int)
}
