// Package rankstore defines the per-scope ranking store interface and errors.
package rankstore

import "math/rand"

// Option applies a configuration option to the Treap.
type Option func(*Treap)

// WithRandSource sets the priority source, making treap shapes
// reproducible in tests.
func WithRandSource(src rand.Source) Option {
	return func(s *Treap) {
		if src != nil {
			s.rng = rand.New(src) //nolint:gosec // balance randomness, not crypto
		}
	}
}
