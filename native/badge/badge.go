// Package badge implements the achievement-certificate registry. Certificates
// are non-fungible: each carries a unique token ID, a single owner and
// immutable metadata. The savings ledger mints through this registry when a
// principal crosses a reputation milestone; minting is gated by an explicit
// authorized-minter address rather than trust by convention.
package badge

import (
	"errors"
	"strings"

	"nestchain/crypto"
)

var (
	ErrNotAuthorized   = errors.New("badge: not authorized")
	ErrTokenNotFound   = errors.New("badge: token not found")
	ErrNotTokenOwner   = errors.New("badge: caller does not own token")
	ErrInvalidMetadata = errors.New("badge: metadata required")
	errNilState        = errors.New("badge: state not configured")
)

// Certificate is one minted achievement badge.
type Certificate struct {
	TokenID  uint64
	Owner    [20]byte
	Metadata string
	MintedAt uint64
	Burned   bool
}

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	tokenPrefix = []byte("badge/token/")
	sequenceKey = []byte("badge/sequence")
	minterKey   = []byte("badge/minter")
)

func tokenKey(id uint64) []byte {
	buf := make([]byte, 0, len(tokenPrefix)+8)
	buf = append(buf, tokenPrefix...)
	for shift := 56; shift >= 0; shift -= 8 {
		buf = append(buf, byte(id>>uint(shift)))
	}
	return buf
}

// Registry tracks certificates and the dynamic minter capability.
type Registry struct {
	state       registryState
	admin       crypto.Address
	blockHeight uint64
}

// NewRegistry constructs a registry administered by admin.
func NewRegistry(admin crypto.Address) *Registry {
	return &Registry{admin: admin}
}

// SetState wires the registry to the external persistence layer.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetBlockHeight records the height stamped onto minted certificates.
func (r *Registry) SetBlockHeight(height uint64) {
	if r == nil {
		return
	}
	r.blockHeight = height
}

func (r *Registry) requireState() error {
	if r == nil || r.state == nil {
		return errNilState
	}
	return nil
}

// SetAuthorizedMinter points the mint capability at a principal, typically the
// savings module custody address. Admin only.
func (r *Registry) SetAuthorizedMinter(caller, minter crypto.Address) error {
	if err := r.requireState(); err != nil {
		return err
	}
	if !addressEqual(caller, r.admin) {
		return ErrNotAuthorized
	}
	var stored [20]byte
	copy(stored[:], minter.Bytes())
	return r.state.KVPut(minterKey, stored)
}

// AuthorizedMinter returns the principal currently allowed to mint.
func (r *Registry) AuthorizedMinter() (crypto.Address, bool, error) {
	if err := r.requireState(); err != nil {
		return crypto.Address{}, false, err
	}
	var stored [20]byte
	ok, err := r.state.KVGet(minterKey, &stored)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	return crypto.NewAddress(crypto.NestPrefix, stored[:]), true, nil
}

// MintAs mints a certificate on behalf of caller, enforcing the authorized
// minter capability. The new token ID is returned.
func (r *Registry) MintAs(caller, recipient crypto.Address, metadata string) (uint64, error) {
	if err := r.requireState(); err != nil {
		return 0, err
	}
	minter, ok, err := r.AuthorizedMinter()
	if err != nil {
		return 0, err
	}
	if !ok || !addressEqual(caller, minter) {
		return 0, ErrNotAuthorized
	}
	metadata = strings.TrimSpace(metadata)
	if metadata == "" {
		return 0, ErrInvalidMetadata
	}

	var sequence uint64
	if _, err := r.state.KVGet(sequenceKey, &sequence); err != nil {
		return 0, err
	}
	sequence++
	if err := r.state.KVPut(sequenceKey, sequence); err != nil {
		return 0, err
	}

	cert := &Certificate{
		TokenID:  sequence,
		Metadata: metadata,
		MintedAt: r.blockHeight,
	}
	copy(cert.Owner[:], recipient.Bytes())
	if err := r.state.KVPut(tokenKey(sequence), cert); err != nil {
		return 0, err
	}
	return sequence, nil
}

// Transfer moves a certificate to a new owner. Only the current owner may
// transfer.
func (r *Registry) Transfer(caller crypto.Address, tokenID uint64, to crypto.Address) error {
	cert, err := r.getLive(tokenID)
	if err != nil {
		return err
	}
	if !ownerMatches(cert, caller) {
		return ErrNotTokenOwner
	}
	copy(cert.Owner[:], to.Bytes())
	return r.state.KVPut(tokenKey(tokenID), cert)
}

// Burn permanently retires a certificate. Only the current owner may burn.
func (r *Registry) Burn(caller crypto.Address, tokenID uint64) error {
	cert, err := r.getLive(tokenID)
	if err != nil {
		return err
	}
	if !ownerMatches(cert, caller) {
		return ErrNotTokenOwner
	}
	cert.Burned = true
	return r.state.KVPut(tokenKey(tokenID), cert)
}

// Get returns the certificate for tokenID. Burned tokens report not-found.
func (r *Registry) Get(tokenID uint64) (*Certificate, error) {
	return r.getLive(tokenID)
}

// OwnerOf resolves the current owner of a live certificate.
func (r *Registry) OwnerOf(tokenID uint64) (crypto.Address, error) {
	cert, err := r.getLive(tokenID)
	if err != nil {
		return crypto.Address{}, err
	}
	return crypto.NewAddress(crypto.NestPrefix, cert.Owner[:]), nil
}

func (r *Registry) getLive(tokenID uint64) (*Certificate, error) {
	if err := r.requireState(); err != nil {
		return nil, err
	}
	cert := &Certificate{}
	ok, err := r.state.KVGet(tokenKey(tokenID), cert)
	if err != nil {
		return nil, err
	}
	if !ok || cert.Burned {
		return nil, ErrTokenNotFound
	}
	return cert, nil
}

func ownerMatches(cert *Certificate, caller crypto.Address) bool {
	var id [20]byte
	copy(id[:], caller.Bytes())
	return cert.Owner == id
}

func addressEqual(a, b crypto.Address) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	var left, right [20]byte
	copy(left[:], a.Bytes())
	copy(right[:], b.Bytes())
	return left == right
}

// Minter adapts the registry into the savings engine's BadgeMinter
// collaborator, fixing the calling principal to the configured capability
// holder.
type Minter struct {
	registry *Registry
	caller   crypto.Address
}

// NewMinter binds a calling principal to the registry.
func NewMinter(registry *Registry, caller crypto.Address) *Minter {
	return &Minter{registry: registry, caller: caller}
}

// Mint satisfies the savings BadgeMinter contract.
func (m *Minter) Mint(recipient crypto.Address, metadata string) (uint64, error) {
	if m == nil || m.registry == nil {
		return 0, errNilState
	}
	return m.registry.MintAs(m.caller, recipient, metadata)
}
