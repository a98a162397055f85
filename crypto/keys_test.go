package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, AddressLength)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr := NewAddress(NestPrefix, raw)

	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(NestPrefix)+"1") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), raw)
	}
	if decoded.Prefix() != NestPrefix {
		t.Fatalf("unexpected prefix: %s", decoded.Prefix())
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("definitely-not-bech32"); err == nil {
		t.Fatal("expected decode error")
	}
	// Valid bech32 but wrong payload length.
	short := NewAddress(NestPrefix, make([]byte, AddressLength))
	truncated := short.String()[:len(short.String())-10]
	if _, err := DecodeAddress(truncated); err == nil {
		t.Fatal("expected decode error for truncated address")
	}
}

func TestModuleAddressDeterministic(t *testing.T) {
	a := ModuleAddress("savings")
	b := ModuleAddress("savings")
	if a.String() != b.String() {
		t.Fatal("module address must be deterministic")
	}
	if a.String() == ModuleAddress("badge").String() {
		t.Fatal("distinct modules must derive distinct custody addresses")
	}
	if a.IsZero() {
		t.Fatal("module address must not be zero")
	}
}

func TestKeyGenerationAndAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()
	if len(addr.Bytes()) != AddressLength {
		t.Fatalf("unexpected address length: %d", len(addr.Bytes()))
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.PubKey().Address().String() != addr.String() {
		t.Fatal("restored key must derive the same address")
	}
}
