package policy

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jmswan/active-kernel/internal/model"
)

// ErrInvalidPolicy reports a policy vector that violates the probability
// invariants. Sampling never repairs such a vector; it signals an
// evaluator bug upstream.
var ErrInvalidPolicy = errors.New("invalid policy")

// #region rand-source

// Rand supplies uniform draws in [0,1). Substitutable so tests can sample
// deterministically.
type Rand interface {
	Float64() float64
}

// NewPCG returns a seeded rand source backed by math/rand/v2.
func NewPCG(seed1, seed2 uint64) Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// #endregion rand-source

// #region sampler

// Sampler draws actions from policies by inverse-CDF categorical sampling.
type Sampler struct {
	rng Rand
}

// NewSampler creates a sampler over the given random source.
func NewSampler(rng Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample validates the policy and draws one action from it. The draw walks
// the cumulative sum and returns the first action whose cumulative
// probability exceeds the uniform draw, so any action with nonzero
// probability can be returned.
func (s *Sampler) Sample(p Policy) (model.Action, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("sample: %w", err)
	}

	u := s.rng.Float64()
	var cum float64
	probs := p.probs
	for i, prob := range probs {
		cum += prob
		if u < cum {
			a, _ := model.ActionAt(i)
			return a, nil
		}
	}
	// Cumulative sum landed short of u by floating error; the sum-to-1
	// invariant already passed, so the last action takes the remainder.
	a, _ := model.ActionAt(len(probs) - 1)
	return a, nil
}

// #endregion sampler
