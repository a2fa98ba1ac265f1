package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	raw[0] = 0xab
	raw[19] = 0xcd
	addr := NewAddress(ActorPrefix, raw)

	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(ActorPrefix)) {
		t.Fatalf("encoded address %q lacks prefix", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
	if decoded.Prefix() != ActorPrefix {
		t.Fatalf("prefix = %q", decoded.Prefix())
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatalf("expected error for malformed input")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestNewAddressLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for short payload")
		}
	}()
	NewAddress(ActorPrefix, []byte{0x01})
}

func TestIsZero(t *testing.T) {
	if !(Address{}).IsZero() {
		t.Fatalf("empty address should be zero")
	}
	if NewAddress(ActorPrefix, make([]byte, 20)).IsZero() {
		t.Fatalf("constructed address should not be zero")
	}
}

func TestKeyToAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.Prefix() != ActorPrefix {
		t.Fatalf("prefix = %q", addr.Prefix())
	}
	if len(addr.Bytes()) != 20 {
		t.Fatalf("payload length = %d", len(addr.Bytes()))
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if !restored.PubKey().Address().Equal(addr) {
		t.Fatalf("restored key derives a different address")
	}
}
