// Package upgrade implements the upgrade-coordination registry: an admin-gated
// flag plus the address of the successor contract. Its state is fully
// independent; the savings ledger never blocks on it.
package upgrade

import (
	"errors"

	"nestchain/crypto"
)

var (
	ErrNotAuthorized = errors.New("upgrade: not authorized")
	errNilState      = errors.New("upgrade: state not configured")
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var upgradeKey = []byte("upgrade/state")

type record struct {
	Enabled    bool
	NewAddress [20]byte
}

// Registry coordinates migration to a successor contract address.
type Registry struct {
	state registryState
	admin crypto.Address
}

// NewRegistry constructs a registry administered by admin.
func NewRegistry(admin crypto.Address) *Registry {
	return &Registry{admin: admin}
}

// SetState wires the registry to the external persistence layer.
func (r *Registry) SetState(state registryState) { r.state = state }

func (r *Registry) requireAdmin(caller crypto.Address) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if r.admin.IsZero() {
		return ErrNotAuthorized
	}
	var left, right [20]byte
	copy(left[:], caller.Bytes())
	copy(right[:], r.admin.Bytes())
	if left != right {
		return ErrNotAuthorized
	}
	return nil
}

func (r *Registry) load() (*record, error) {
	rec := &record{}
	if _, err := r.state.KVGet(upgradeKey, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// EnableUpgrade flags the migration and records the successor address.
func (r *Registry) EnableUpgrade(caller, newAddress crypto.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	rec := &record{Enabled: true}
	copy(rec.NewAddress[:], newAddress.Bytes())
	return r.state.KVPut(upgradeKey, rec)
}

// DisableUpgrade clears the migration flag.
func (r *Registry) DisableUpgrade(caller crypto.Address) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	rec, err := r.load()
	if err != nil {
		return err
	}
	rec.Enabled = false
	return r.state.KVPut(upgradeKey, rec)
}

// IsEnabled reports whether migration is flagged.
func (r *Registry) IsEnabled() (bool, error) {
	if r == nil || r.state == nil {
		return false, errNilState
	}
	rec, err := r.load()
	if err != nil {
		return false, err
	}
	return rec.Enabled, nil
}

// NewAddress returns the successor address when migration is flagged.
func (r *Registry) NewAddress() (crypto.Address, bool, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, false, errNilState
	}
	rec, err := r.load()
	if err != nil {
		return crypto.Address{}, false, err
	}
	if !rec.Enabled {
		return crypto.Address{}, false, nil
	}
	return crypto.NewAddress(crypto.NestPrefix, rec.NewAddress[:]), true, nil
}
