package update

import (
	"math"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/observe"
)

// #region config

// Config holds the tuning knobs of the belief updater.
type Config struct {
	// BlendScale multiplies every modality's blend weight. 1 keeps the
	// calibrated weights; 0 freezes beliefs.
	BlendScale float64
}

// DefaultConfig returns the calibrated updater configuration.
func DefaultConfig() Config {
	return Config{BlendScale: 1.0}
}

// #endregion config

// #region result

// Result is the output of one belief update pass.
type Result struct {
	Belief   belief.Belief
	Surprise float64

	// PerModality holds each modality's contribution to Surprise.
	PerModality map[observe.Modality]float64

	// Repaired lists factors whose vectors degenerated and were reset to
	// uniform. Non-empty is a recoverable anomaly the caller should log.
	Repaired []model.Factor
}

// #endregion result

// #region update

// Update blends the current belief with the likelihood targets of the
// observed symbols and returns the new belief plus a surprise score.
//
// The blend is directional, not a Bayes posterior: each observed symbol
// pulls its factor's vector toward the symbol's target distribution by the
// modality's blend weight, so outcomes the symbol favors strictly gain
// mass relative to the prior. Surprise is the mean negative log
// probability of the observed symbols under the pre-update belief.
func Update(prior belief.Belief, obs observe.Observation, gm *model.GenerativeModel, cfg Config) (Result, error) {
	if err := obs.Validate(); err != nil {
		return Result{}, err
	}

	next := prior.Clone()
	perModality := make(map[observe.Modality]float64, observe.NumModalities)
	var repaired []model.Factor
	var total float64

	for _, m := range observe.Modalities() {
		l := gm.Likelihoods[m]
		symbol := obs.Symbol(m)

		// Surprise from the pre-update expectation.
		p := prior.Factor(l.Factor)
		var predicted float64
		for k := range p {
			predicted += p[k] * l.SymbolProb(k, symbol)
		}
		s := -math.Log(belief.Epsilon + predicted)
		if s < 0 {
			s = 0
		}
		perModality[m] = s
		total += s

		// Directional blend toward the symbol's target.
		w := l.Blend * cfg.BlendScale
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		target := l.Target(symbol)
		row := next.Factor(l.Factor)
		for k := range row {
			row[k] = (1-w)*row[k] + w*target[k]
		}
		if belief.Normalize(row) {
			repaired = append(repaired, l.Factor)
		}
		next.SetFactor(l.Factor, row)
	}

	return Result{
		Belief:      next,
		Surprise:    total / float64(observe.NumModalities),
		PerModality: perModality,
		Repaired:    repaired,
	}, nil
}

// #endregion update

// #region bernoulli-kl

// BernoulliKL returns KL(p ‖ q) between two Bernoulli distributions,
// epsilon-guarded at every logarithm. Exported here so both profiles share
// one guarded definition.
func BernoulliKL(p, q float64) float64 {
	p = clampProb(p)
	q = clampProb(q)
	kl := p*math.Log(p/q) + (1-p)*math.Log((1-p)/(1-q))
	if kl < 0 {
		// Floating error on near-identical distributions.
		return 0
	}
	return kl
}

func clampProb(v float64) float64 {
	const lo = belief.Epsilon
	const hi = 1 - belief.Epsilon
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion bernoulli-kl
