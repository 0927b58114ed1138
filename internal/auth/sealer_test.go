package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer("0123456789abcdef-secret")
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := s.Seal("ya29.access-token")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sealed, "ya29") {
		t.Fatalf("sealed value leaks plaintext: %s", sealed)
	}
	again, _ := s.Seal("ya29.access-token")
	if again == sealed {
		t.Fatalf("nonce reuse: identical ciphertexts")
	}
	got, err := s.Open(sealed)
	if err != nil || got != "ya29.access-token" {
		t.Fatalf("Open = %q, %v", got, err)
	}
}

func TestSealerRejectsTamperingAndForeignKeys(t *testing.T) {
	a, _ := NewSealer("0123456789abcdef-one")
	b, _ := NewSealer("0123456789abcdef-two")
	sealed, _ := a.Seal("refresh")

	if _, err := b.Open(sealed); !errors.Is(err, ErrUnseal) {
		t.Fatalf("foreign key should fail, got %v", err)
	}
	flipped := []byte(sealed)
	mid := len(flipped) / 2
	if flipped[mid] == 'A' {
		flipped[mid] = 'B'
	} else {
		flipped[mid] = 'A'
	}
	if _, err := a.Open(string(flipped)); !errors.Is(err, ErrUnseal) {
		t.Fatalf("tampered value should fail, got %v", err)
	}
	if _, err := a.Open("!!not base64"); !errors.Is(err, ErrUnseal) {
		t.Fatalf("garbage should fail, got %v", err)
	}
}

func TestSealerEmptyAndShortSecret(t *testing.T) {
	if _, err := NewSealer("short"); err == nil {
		t.Fatalf("short secret accepted")
	}
	s, _ := NewSealer("0123456789abcdef")
	if v, _ := s.Seal(""); v != "" {
		t.Fatalf("empty should seal to empty, got %q", v)
	}
	if v, _ := s.Open(""); v != "" {
		t.Fatalf("empty should open to empty, got %q", v)
	}
}
