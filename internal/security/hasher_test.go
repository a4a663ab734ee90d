package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("correct horse battery"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected bcrypt format, got %q", hash)
	}
	if !h.Verify(hash, []byte("correct horse battery")) {
		t.Error("correct password did not verify")
	}
	if h.Verify(hash, []byte("wrong password")) {
		t.Error("wrong password verified")
	}
}

func TestHasherVerifyMalformed(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, stored := range []string{"", "not-a-hash", "$2x$garbage", "sha256$"} {
		if h.Verify(stored, []byte("anything")) {
			t.Errorf("malformed hash %q verified", stored)
		}
	}
}

func TestHasherLegacyVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	stored := LegacySHA256Hash([]byte("old-password"))

	if !h.Verify(stored, []byte("old-password")) {
		t.Error("legacy hash did not verify correct password")
	}
	if h.Verify(stored, []byte("other-password")) {
		t.Error("legacy hash verified wrong password")
	}
}

func TestNeedsRehash(t *testing.T) {
	h := NewHasher(10)
	low, err := NewHasher(bcrypt.MinCost).Hash([]byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	current, err := h.Hash([]byte("pw"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		stored string
		want   bool
	}{
		{"legacy scheme", LegacySHA256Hash([]byte("pw")), true},
		{"below current cost", low, true},
		{"unparsable", "garbage", true},
		{"current cost", current, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.NeedsRehash(tt.stored); got != tt.want {
				t.Errorf("NeedsRehash(%q) = %v, want %v", tt.stored, got, tt.want)
			}
		})
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if c := NewHasher(-1).Cost; c != bcrypt.DefaultCost {
		t.Errorf("negative cost: got %d, want default %d", c, bcrypt.DefaultCost)
	}
	if c := NewHasher(99).Cost; c != bcrypt.MaxCost {
		t.Errorf("excessive cost: got %d, want max %d", c, bcrypt.MaxCost)
	}
}
