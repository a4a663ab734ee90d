package security

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPoolRoundTrip(t *testing.T) {
	pool := NewHashPool(NewHasher(bcrypt.MinCost), 2)
	ctx := context.Background()

	hash, err := pool.Hash(ctx, []byte("pool password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	ok, err := pool.Verify(ctx, hash, []byte("pool password"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}
	ok, err = pool.Verify(ctx, hash, []byte("wrong"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHashPoolHonorsCancellation(t *testing.T) {
	pool := NewHashPool(NewHasher(bcrypt.MinCost), 1)

	// Occupy the only worker slot so the next call must wait.
	pool.sem <- struct{}{}
	defer func() { <-pool.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Hash(ctx, []byte("pw")); err != context.Canceled {
		t.Errorf("Hash with cancelled ctx: got %v, want context.Canceled", err)
	}
	if _, err := pool.Verify(ctx, "x", []byte("pw")); err != context.Canceled {
		t.Errorf("Verify with cancelled ctx: got %v, want context.Canceled", err)
	}
}
