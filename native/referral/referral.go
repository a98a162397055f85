// Package referral implements the referral-bonus registry. It is parallel
// bookkeeping keyed by the same principals as the savings ledger; the
// surrounding application reads it to compute an additional bonus outside the
// settlement path.
package referral

import (
	"errors"
	"fmt"
	"math/big"

	"nestchain/crypto"
)

var (
	ErrSelfReferral      = errors.New("referral: cannot refer yourself")
	ErrAlreadyRegistered = errors.New("referral: referrer already registered")
	ErrNotAuthorized     = errors.New("referral: not authorized")
	ErrInvalidRate       = errors.New("referral: bonus rate out of range")
	errNilState          = errors.New("referral: state not configured")
)

// DefaultBonusRate is the genesis referral bonus percentage.
const DefaultBonusRate uint64 = 5

const maxBonusRate uint64 = 100

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	referrerPrefix = []byte("referral/referrer/")
	bonusRateKey   = []byte("referral/bonusRate")
)

func referrerKey(user [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", referrerPrefix, user))
}

// Registry tracks who referred whom and the admin-tunable bonus rate.
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

func principalID(addr crypto.Address) [20]byte {
	var id [20]byte
	copy(id[:], addr.Bytes())
	return id
}

// RegisterReferral records referrer as the referrer of user. A user can be
// referred at most once and never by themselves.
func (r *Registry) RegisterReferral(user, referrer crypto.Address) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	userID := principalID(user)
	if userID == principalID(referrer) {
		return ErrSelfReferral
	}
	var existing [20]byte
	ok, err := r.state.KVGet(referrerKey(userID), &existing)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyRegistered
	}
	stored := principalID(referrer)
	return r.state.KVPut(referrerKey(userID), stored)
}

// GetReferrer resolves the referrer of user, if registered.
func (r *Registry) GetReferrer(user crypto.Address) (crypto.Address, bool, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, false, errNilState
	}
	var stored [20]byte
	ok, err := r.state.KVGet(referrerKey(principalID(user)), &stored)
	if err != nil || !ok {
		return crypto.Address{}, false, err
	}
	return crypto.NewAddress(crypto.NestPrefix, stored[:]), true, nil
}

// BonusRate returns the current referral bonus percentage.
func (r *Registry) BonusRate() (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	var rate uint64
	ok, err := r.state.KVGet(bonusRateKey, &rate)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultBonusRate, nil
	}
	return rate, nil
}

// SetBonusRate updates the referral bonus percentage. Admin only.
func (r *Registry) SetBonusRate(caller crypto.Address, rate uint64) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, errNilState
	}
	if r.admin.IsZero() || principalID(caller) != principalID(r.admin) {
		return 0, ErrNotAuthorized
	}
	if rate > maxBonusRate {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if err := r.state.KVPut(bonusRateKey, rate); err != nil {
		return 0, err
	}
	return rate, nil
}

// CalculateBonus computes floor(amount * bonusRate / 100) in wide arithmetic.
func (r *Registry) CalculateBonus(amount *big.Int) (*big.Int, error) {
	rate, err := r.BonusRate()
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 || rate == 0 {
		return big.NewInt(0), nil
	}
	bonus := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))
	bonus.Quo(bonus, big.NewInt(100))
	return bonus, nil
}
