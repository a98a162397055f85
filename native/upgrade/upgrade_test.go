package upgrade

import (
	"errors"
	"testing"

	"nestchain/core/state"
	"nestchain/crypto"
	"nestchain/storage"
)

func testAddress(seed byte) crypto.Address {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = seed
	}
	return crypto.NewAddress(crypto.NestPrefix, raw)
}

var (
	admin     = testAddress(0xAA)
	outsider  = testAddress(0x01)
	successor = testAddress(0x02)
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry(admin)
	registry.SetState(state.NewManager(storage.NewMemDB()))
	return registry
}

func TestUpgradeDisabledByDefault(t *testing.T) {
	registry := newTestRegistry(t)

	enabled, err := registry.IsEnabled()
	if err != nil {
		t.Fatalf("is enabled: %v", err)
	}
	if enabled {
		t.Fatal("upgrade must start disabled")
	}
	_, ok, err := registry.NewAddress()
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	if ok {
		t.Fatal("no successor address while disabled")
	}
}

func TestEnableDisableRoundTrip(t *testing.T) {
	registry := newTestRegistry(t)

	if err := registry.EnableUpgrade(admin, successor); err != nil {
		t.Fatalf("enable: %v", err)
	}
	enabled, err := registry.IsEnabled()
	if err != nil || !enabled {
		t.Fatalf("expected enabled, got %v/%v", enabled, err)
	}
	addr, ok, err := registry.NewAddress()
	if err != nil || !ok {
		t.Fatalf("new address: %v/%v", ok, err)
	}
	if addr.String() != successor.String() {
		t.Fatalf("unexpected successor: %s", addr)
	}

	if err := registry.DisableUpgrade(admin); err != nil {
		t.Fatalf("disable: %v", err)
	}
	enabled, err = registry.IsEnabled()
	if err != nil || enabled {
		t.Fatalf("expected disabled, got %v/%v", enabled, err)
	}
	if _, ok, _ := registry.NewAddress(); ok {
		t.Fatal("successor must be hidden once disabled")
	}
}

func TestUpgradeAdminOnly(t *testing.T) {
	registry := newTestRegistry(t)

	if err := registry.EnableUpgrade(outsider, successor); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := registry.DisableUpgrade(outsider); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}
