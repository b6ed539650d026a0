package policy

import (
	"fmt"
	"math"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
)

// #region config

// Config holds the policy evaluator's tuning knobs.
type Config struct {
	// Temperature controls how peaked the softmax policy is. Lower is
	// greedier; must be > 0.
	Temperature float64
	// ActionBlend is how far an action is expected to move a factor
	// toward its outcome target when predicting its consequences.
	ActionBlend float64
	// ExplorationBonus scales epistemic value.
	ExplorationBonus float64
	// RiskWeight scales the low-viability penalty on risky actions.
	RiskWeight float64
}

// DefaultConfig returns the calibrated evaluator configuration.
func DefaultConfig() Config {
	return Config{
		Temperature:      1.0,
		ActionBlend:      0.5,
		ExplorationBonus: 0.3,
		RiskWeight:       1.0,
	}
}

// #endregion config

// #region score

// Score is the EFE decomposition for one action. Higher Total is better
// going into softmax.
type Score struct {
	Action    model.Action
	Pragmatic float64
	Epistemic float64
	Risk      float64
	Total     float64
}

// #endregion score

// #region policy

// Policy is a probability vector parallel to model.Actions().
type Policy struct {
	probs []float64
}

// Prob returns the probability assigned to action a, or 0 for an action
// outside the vocabulary.
func (p Policy) Prob(a model.Action) float64 {
	i, ok := model.ActionIndex(a)
	if !ok {
		return 0
	}
	return p.probs[i]
}

// Probs returns a copy of the probability vector.
func (p Policy) Probs() []float64 {
	cp := make([]float64, len(p.probs))
	copy(cp, p.probs)
	return cp
}

// Entropy returns the Shannon entropy of the policy in nats.
func (p Policy) Entropy() float64 {
	return belief.Entropy(p.probs)
}

// Validate checks length, non-negativity, finiteness, and sum-to-1.
func (p Policy) Validate() error {
	if len(p.probs) != model.NumActions {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidPolicy, len(p.probs), model.NumActions)
	}
	var sum float64
	for i, v := range p.probs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: entry %d is not finite", ErrInvalidPolicy, i)
		}
		if v < 0 {
			return fmt.Errorf("%w: entry %d is negative: %f", ErrInvalidPolicy, i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > belief.SumTolerance {
		return fmt.Errorf("%w: sums to %f, want 1", ErrInvalidPolicy, sum)
	}
	return nil
}

// FromProbs builds a Policy from an explicit probability vector. The
// vector is validated, not repaired.
func FromProbs(probs []float64) (Policy, error) {
	p := Policy{probs: append([]float64(nil), probs...)}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// #endregion policy

// #region evaluate

// Evaluate scores every action in the vocabulary against the current
// belief: pragmatic value is the preference-weighted improvement the
// action's expected outcome brings, epistemic value rewards information
// gain on uncertain factors, and risk penalizes dangerous actions in
// proportion to the probability that viability is already critical or low.
func Evaluate(b belief.Belief, gm *model.GenerativeModel, cfg Config) []Score {
	lowViability := lowViabilityMass(b)
	scores := make([]Score, 0, model.NumActions)

	for _, a := range model.Actions() {
		am := gm.ActionModels[a]

		var pragmatic float64
		for f, target := range am.Targets {
			prior := b.Factor(f)
			predicted := make([]float64, len(prior))
			for k := range prior {
				predicted[k] = (1-cfg.ActionBlend)*prior[k] + cfg.ActionBlend*target[k]
			}
			belief.Normalize(predicted)
			c := gm.Preferences[f]
			pragmatic += gm.PrefWeights[f] * (dot(predicted, c) - dot(prior, c))
		}

		var epistemic float64
		for f, gain := range am.Gain {
			row := b.Factor(f)
			hMax := math.Log(float64(f.Cardinality()))
			if hMax > belief.Epsilon {
				epistemic += gain * belief.Entropy(row) / hMax
			}
		}
		epistemic *= cfg.ExplorationBonus

		risk := cfg.RiskWeight * am.Risk * lowViability

		scores = append(scores, Score{
			Action:    a,
			Pragmatic: pragmatic,
			Epistemic: epistemic,
			Risk:      risk,
			Total:     pragmatic + epistemic - risk,
		})
	}
	return scores
}

// lowViabilityMass is the belief mass on the critical and low outcomes.
func lowViabilityMass(b belief.Belief) float64 {
	v := b.Factor(model.FactorViability)
	return v[0] + v[1]
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// #endregion evaluate

// #region softmax

// Softmax converts EFE scores into a policy with the max-subtraction trick
// for numeric stability. Every action keeps strictly positive probability;
// equal scores yield a uniform policy.
func Softmax(scores []Score, temperature float64) Policy {
	if temperature < belief.Epsilon {
		temperature = belief.Epsilon
	}
	maxTotal := math.Inf(-1)
	for _, s := range scores {
		if s.Total > maxTotal {
			maxTotal = s.Total
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp((s.Total - maxTotal) / temperature)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return Policy{probs: probs}
}

// #endregion softmax
