package belief

import (
	"fmt"
	"math"

	"github.com/jmswan/active-kernel/internal/model"
)

// Epsilon guards every division against an exactly-zero denominator.
const Epsilon = 1e-10

// SumTolerance is the allowed deviation of a probability vector's sum from 1.
const SumTolerance = 1e-3

// #region belief

// Belief holds one probability vector per state factor. Values are owned
// by the Belief; accessors return copies so callers cannot mutate the
// store from outside.
type Belief struct {
	factors map[model.Factor][]float64
}

// Default returns the domain-informed prior used at engine construction:
// an agent that is probably viable, in an unmapped world, loosely coupled,
// with a goal that is moving slowly.
func Default() Belief {
	return fromRows(map[model.Factor][]float64{
		model.FactorViability:    {0.05, 0.15, 0.40, 0.25, 0.15},
		model.FactorWorldState:   {0.40, 0.35, 0.20, 0.05},
		model.FactorCoupling:     {0.30, 0.30, 0.25, 0.10, 0.05},
		model.FactorGoalProgress: {0.15, 0.40, 0.35, 0.10},
	})
}

// Uniform returns maximum-entropy beliefs over every factor.
func Uniform() Belief {
	rows := make(map[model.Factor][]float64, model.NumFactors)
	for _, f := range model.Factors() {
		n := f.Cardinality()
		row := make([]float64, n)
		for i := range row {
			row[i] = 1 / float64(n)
		}
		rows[f] = row
	}
	return Belief{factors: rows}
}

func fromRows(rows map[model.Factor][]float64) Belief {
	out := make(map[model.Factor][]float64, len(rows))
	for f, row := range rows {
		cp := make([]float64, len(row))
		copy(cp, row)
		out[f] = cp
	}
	return Belief{factors: out}
}

// Factor returns a copy of the probability vector for f.
func (b Belief) Factor(f model.Factor) []float64 {
	row := b.factors[f]
	cp := make([]float64, len(row))
	copy(cp, row)
	return cp
}

// SetFactor replaces the vector for f with a copy of row.
func (b *Belief) SetFactor(f model.Factor, row []float64) {
	if b.factors == nil {
		b.factors = make(map[model.Factor][]float64, model.NumFactors)
	}
	cp := make([]float64, len(row))
	copy(cp, row)
	b.factors[f] = cp
}

// Clone returns a deep copy.
func (b Belief) Clone() Belief {
	return fromRows(b.factors)
}

// Validate checks that every factor vector is a probability distribution:
// no negative entries, no non-finite entries, sum within SumTolerance of 1.
func (b Belief) Validate() error {
	for _, f := range model.Factors() {
		row, ok := b.factors[f]
		if !ok || len(row) != f.Cardinality() {
			return fmt.Errorf("belief for factor %q has %d outcomes, want %d", f, len(row), f.Cardinality())
		}
		var sum float64
		for i, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("belief for factor %q outcome %d is not finite", f, i)
			}
			if v < 0 {
				return fmt.Errorf("belief for factor %q outcome %d is negative: %f", f, i, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > SumTolerance {
			return fmt.Errorf("belief for factor %q sums to %f, want 1", f, sum)
		}
	}
	return nil
}

// #endregion belief

// #region normalize

// Normalize scales vec in place to sum to 1. When the sum is degenerate
// (zero or non-finite, e.g. from upstream corruption) the vector is
// repaired to uniform and repaired reports true so the caller can log the
// anomaly.
func Normalize(vec []float64) (repaired bool) {
	var sum float64
	degenerate := false
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			degenerate = true
			break
		}
		sum += v
	}
	if degenerate || sum < Epsilon {
		for i := range vec {
			vec[i] = 1 / float64(len(vec))
		}
		return true
	}
	for i := range vec {
		vec[i] /= sum
	}
	return false
}

// Entropy returns the Shannon entropy of vec in nats, epsilon-guarded.
func Entropy(vec []float64) float64 {
	var h float64
	for _, p := range vec {
		if p > Epsilon {
			h -= p * math.Log(p)
		}
	}
	return h
}

// #endregion normalize
