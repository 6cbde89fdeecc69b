package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"tokensale/core/types"
	"tokensale/storage"
)

type pendingWrite struct {
	value   []byte
	deleted bool
}

// Tx is a buffered view of the state. Reads observe the transaction's own
// writes; nothing reaches the database until the owning Update commits.
type Tx struct {
	db       storage.Database
	readOnly bool
	writes   map[string]*pendingWrite
	order    []string
	events   []*types.Event
}

func newTx(db storage.Database, readOnly bool) *Tx {
	return &Tx{db: db, readOnly: readOnly, writes: make(map[string]*pendingWrite)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (tx *Tx) get(hashed []byte) ([]byte, error) {
	if w, ok := tx.writes[string(hashed)]; ok {
		if w.deleted {
			return nil, nil
		}
		return w.value, nil
	}
	data, err := tx.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (tx *Tx) set(hashed []byte, value []byte, deleted bool) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	k := string(hashed)
	if _, ok := tx.writes[k]; !ok {
		tx.order = append(tx.order, k)
	}
	tx.writes[k] = &pendingWrite{value: value, deleted: deleted}
	return nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (tx *Tx) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return tx.set(kvKey(key), encoded, false)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (tx *Tx) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := tx.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the key from state.
func (tx *Tx) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return tx.set(kvKey(key), nil, true)
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (tx *Tx) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	var list [][]byte
	if _, err := tx.KVGet(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return tx.KVPut(key, list)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice to avoid nil
// surprises for callers.
func (tx *Tx) KVGetList(key []byte, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	ok, err := tx.KVGet(key, out)
	if err != nil {
		return err
	}
	if !ok {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
	return nil
}

// AppendEvent buffers an audit record. It is emitted only if the transaction
// commits.
func (tx *Tx) AppendEvent(evt *types.Event) {
	if evt == nil || tx.readOnly {
		return
	}
	tx.events = append(tx.events, evt.Clone())
}

func (tx *Tx) commit() error {
	if len(tx.order) == 0 {
		return nil
	}
	batch := tx.db.NewBatch()
	for _, k := range tx.order {
		w := tx.writes[k]
		if w.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), w.value)
	}
	return batch.Write()
}
