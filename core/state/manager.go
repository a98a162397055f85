package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nestchain/core/types"
	"nestchain/crypto"
	"nestchain/storage"
)

var (
	accountPrefix = []byte("account:")
	heightKey     = []byte("chain/height")
)

// Manager provides typed read/write access to ledger state. All settlement
// calls are serialized behind a single mutex: each call observes the previous
// call's fully committed state and there is no partial-apply state visible to
// subsequent calls.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Settle runs fn as one serialized settlement call.
func (m *Manager) Settle(fn func() error) error {
	if m == nil {
		return fmt.Errorf("state: manager not configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before hitting the backing store.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
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

func accountKey(addr crypto.Address) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr.Bytes()))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr.Bytes())
	return buf
}

// GetAccount loads the balance record for addr, returning a zero account when
// none has been persisted yet.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	var stored types.Account
	ok, err := m.KVGet(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return stored.EnsureDefaults(), nil
}

// PutAccount persists the balance record for addr.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: account must not be nil")
	}
	return m.KVPut(accountKey(addr), account.EnsureDefaults())
}

// CurrentHeight returns the ledger height. Heights start at zero and advance
// only through AdvanceHeight.
func (m *Manager) CurrentHeight() (uint64, error) {
	var height uint64
	if _, err := m.KVGet(heightKey, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// AdvanceHeight moves the ledger forward one block slot and returns the new
// height. Callers hold the settlement lock while advancing.
func (m *Manager) AdvanceHeight() (uint64, error) {
	height, err := m.CurrentHeight()
	if err != nil {
		return 0, err
	}
	height++
	if err := m.KVPut(heightKey, height); err != nil {
		return 0, err
	}
	return height, nil
}

// Credit adds amount to the balance of addr.
func (m *Manager) Credit(addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative")
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.PutAccount(addr, account)
}
