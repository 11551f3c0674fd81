package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"splitpay/storage"
)

// Manager provides journaled read/write access to the ledger state. Writes
// land in an in-memory overlay and only reach the database on Commit, so a
// failed call can be rolled back with RevertToSnapshot or Discard.
//
// Manager is not safe for concurrent use; the runtime serialises access.
type Manager struct {
	db      storage.Database
	dirty   map[string]entry
	journal []change
}

type entry struct {
	value   []byte
	deleted bool
}

type change struct {
	key     string
	prev    entry
	existed bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, dirty: make(map[string]entry)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) read(hashed []byte) ([]byte, bool, error) {
	if e, ok := m.dirty[string(hashed)]; ok {
		if e.deleted {
			return nil, false, nil
		}
		return e.value, true, nil
	}
	if m.db == nil {
		return nil, false, nil
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) write(hashed []byte, e entry) {
	key := string(hashed)
	prev, existed := m.dirty[key]
	m.journal = append(m.journal, change{key: key, prev: prev, existed: existed})
	m.dirty[key] = e
}

// Snapshot returns an identifier for the current state revision.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot undoes every write made after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 {
		id = 0
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		c := m.journal[i]
		if c.existed {
			m.dirty[c.key] = c.prev
		} else {
			delete(m.dirty, c.key)
		}
	}
	if id < len(m.journal) {
		m.journal = m.journal[:id]
	}
}

// Pending reports the number of uncommitted keys.
func (m *Manager) Pending() int {
	return len(m.dirty)
}

// Commit flushes the overlay to the database in a single batch.
func (m *Manager) Commit() error {
	if len(m.dirty) == 0 {
		m.journal = m.journal[:0]
		return nil
	}
	if m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	batch := m.db.NewBatch()
	for key, e := range m.dirty {
		if e.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), e.value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.dirty = make(map[string]entry)
	m.journal = m.journal[:0]
	return nil
}

// Discard drops every uncommitted write.
func (m *Manager) Discard() {
	m.dirty = make(map[string]entry)
	m.journal = m.journal[:0]
}

// KVPut stores the RLP encoding of value under the supplied key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.write(kvKey(key), entry{value: encoded})
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.read(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key. Missing keys are ignored.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	hashed := kvKey(key)
	_, ok, err := m.read(hashed)
	if err != nil || !ok {
		return err
	}
	m.write(hashed, entry{deleted: true})
	return nil
}

// ParamStoreSet records a raw parameter value under name.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("params: name must not be empty")
	}
	return m.KVPut(paramKey(name), append([]byte(nil), value...))
}

// ParamStoreGet loads the raw parameter stored under name.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("params: name must not be empty")
	}
	var value []byte
	ok, err := m.KVGet(paramKey(name), &value)
	if err != nil || !ok {
		return nil, ok, err
	}
	return value, true, nil
}
