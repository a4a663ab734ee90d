package security

import (
	"context"
	"runtime"
)

// HashPool bounds concurrent bcrypt work so one slow hash cannot
// head-of-line-block unrelated authentications. Hashing is the only CPU-bound
// step in the core; everything else is comparisons and storage calls.
type HashPool struct {
	hasher *Hasher
	sem    chan struct{}
}

// NewHashPool returns a pool running hasher with at most workers concurrent
// operations. workers <= 0 uses GOMAXPROCS, minimum 2.
func NewHashPool(hasher *Hasher, workers int) *HashPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers < 2 {
			workers = 2
		}
	}
	return &HashPool{hasher: hasher, sem: make(chan struct{}, workers)}
}

// Hash computes a bcrypt hash on the pool. Blocks while all workers are busy;
// returns ctx.Err() if the caller gives up first.
func (p *HashPool) Hash(ctx context.Context, password []byte) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()
	return p.hasher.Hash(password)
}

// Verify runs Hasher.Verify on the pool. The bool result follows Hasher.Verify
// semantics; the error is only ever a context error.
func (p *HashPool) Verify(ctx context.Context, stored string, password []byte) (bool, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	defer func() { <-p.sem }()
	return p.hasher.Verify(stored, password), nil
}

// NeedsRehash delegates to the underlying Hasher; it is cheap and needs no worker.
func (p *HashPool) NeedsRehash(stored string) bool {
	return p.hasher.NeedsRehash(stored)
}

// Cost returns the bcrypt cost of the underlying Hasher.
func (p *HashPool) Cost() int {
	return p.hasher.Cost
}
