// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/pondfi/pond/kv"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// State provides structured storage over a key-value store, with
// checkpoint/revert semantics. Writes are journaled in a stack of levels and
// only reach the underlying store on Commit; reverting to a checkpoint
// discards every write made since.
type State struct {
	kv     kv.GetPutter
	levels []*level
	cache  map[string][]byte // read-through cache of the underlying store
}

type level struct {
	kvs map[string][]byte
}

// New create a state object backed by the given key-value store.
func New(store kv.GetPutter) *State {
	return &State{
		kv:     store,
		levels: []*level{{kvs: make(map[string][]byte)}},
		cache:  make(map[string][]byte),
	}
}

// GetRaw gets the raw stored value for the given key.
// A missing key yields a nil value, not an error.
func (s *State) GetRaw(key []byte) ([]byte, error) {
	k := string(key)
	for i := len(s.levels) - 1; i >= 0; i-- {
		if v, ok := s.levels[i].kvs[k]; ok {
			return v, nil
		}
	}
	if v, ok := s.cache[k]; ok {
		return v, nil
	}
	v, err := s.kv.Get(key)
	if err != nil {
		if s.kv.IsNotFound(err) {
			s.cache[k] = nil
			return nil, nil
		}
		return nil, &Error{err}
	}
	s.cache[k] = v
	return v, nil
}

// SetRaw journals the raw value for the given key.
// A nil or empty value marks the key for deletion on commit.
func (s *State) SetRaw(key, value []byte) {
	s.levels[len(s.levels)-1].kvs[string(key)] = value
}

// Get decodes the stored value for the given key into val.
// A missing key decodes from nil data, which codecs treat as the zero value.
func (s *State) Get(key []byte, val StorageDecoder) error {
	data, err := s.GetRaw(key)
	if err != nil {
		return err
	}
	if err := val.Decode(data); err != nil {
		return &Error{err}
	}
	return nil
}

// Set encodes val and journals it for the given key.
// Codecs encoding to nil cause the key to be deleted on commit.
func (s *State) Set(key []byte, val StorageEncoder) error {
	data, err := val.Encode()
	if err != nil {
		return &Error{err}
	}
	s.SetRaw(key, data)
	return nil
}

// NewCheckpoint pushes a checkpoint and returns its handle.
func (s *State) NewCheckpoint() int {
	s.levels = append(s.levels, &level{kvs: make(map[string][]byte)})
	return len(s.levels) - 1
}

// RevertTo discards all writes journaled since the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	if checkpoint < 1 || checkpoint > len(s.levels) {
		panic(fmt.Errorf("state: invalid checkpoint %v", checkpoint))
	}
	s.levels = s.levels[:checkpoint]
}

// Commit flushes all journaled writes to the underlying store in a single
// batch and collapses the journal. Checkpoint handles become invalid.
func (s *State) Commit() error {
	batch := s.kv.NewBatch()
	for _, lvl := range s.levels {
		for k, v := range lvl.kvs {
			var err error
			if len(v) == 0 {
				err = batch.Delete([]byte(k))
			} else {
				err = batch.Put([]byte(k), v)
			}
			if err != nil {
				return &Error{err}
			}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	for _, lvl := range s.levels {
		for k, v := range lvl.kvs {
			if len(v) == 0 {
				s.cache[k] = nil
			} else {
				s.cache[k] = v
			}
		}
	}
	s.levels = []*level{{kvs: make(map[string][]byte)}}
	return nil
}
