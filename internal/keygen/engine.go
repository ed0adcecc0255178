// Package keygen generates ed25519 candidates and tests them against a
// keyword predicate, one bounded batch at a time.
package keygen

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"

	"ssh-vanity/internal/domain"
)

// Engine searches batches of random keys. It is not safe for concurrent use;
// each worker owns one.
type Engine struct {
	matcher *Matcher
	rng     *rand.ChaCha8
	seed    []byte
}

// NewEngine builds an engine whose seed stream is keyed from crypto/rand.
func NewEngine(cfg domain.JobConfig) (*Engine, error) {
	matcher, err := NewMatcher(cfg)
	if err != nil {
		return nil, err
	}

	var key [32]byte
	if _, err := crand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("seed generator: %w", err)
	}

	return &Engine{
		matcher: matcher,
		rng:     rand.NewChaCha8(key),
		seed:    make([]byte, ed25519.SeedSize),
	}, nil
}

// GenerateBatch tries exactly batchSize keys and returns the first match,
// or nil when none of them matched.
func (e *Engine) GenerateBatch(batchSize int) (*domain.KeyPair, error) {
	for i := 0; i < batchSize; i++ {
		if _, err := e.rng.Read(e.seed); err != nil {
			return nil, fmt.Errorf("read seed: %w", err)
		}

		candidate, err := NewCandidate(e.seed)
		if err != nil {
			return nil, err
		}

		ok, err := e.matcher.Match(candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate.KeyPair()
		}
	}
	return nil, nil
}
