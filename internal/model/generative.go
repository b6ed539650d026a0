package model

import (
	"fmt"

	"github.com/jmswan/active-kernel/internal/observe"
)

// #region likelihood

// Likelihood maps one modality's symbols onto a state factor. Targets is
// row-stochastic: Targets[symbol] is the outcome distribution the symbol
// pulls the factor's belief toward, with Blend controlling how hard.
type Likelihood struct {
	Factor  Factor
	Blend   float64
	Targets [][]float64

	// obsMatrix[outcome][symbol] is P(symbol | outcome), column-normalized
	// from Targets at construction. Used for surprise.
	obsMatrix [][]float64
}

// Target returns the blend target for the given symbol.
func (l *Likelihood) Target(symbol int) []float64 {
	return l.Targets[symbol]
}

// SymbolProb returns P(symbol | outcome) from the derived observation matrix.
func (l *Likelihood) SymbolProb(outcome, symbol int) float64 {
	return l.obsMatrix[outcome][symbol]
}

// BuildObsMatrix derives the symbol-given-outcome matrix from Targets.
// Must be called after any change to Targets.
func (l *Likelihood) BuildObsMatrix() {
	numSymbols := len(l.Targets)
	numOutcomes := l.Factor.Cardinality()
	l.obsMatrix = make([][]float64, numOutcomes)
	for k := 0; k < numOutcomes; k++ {
		row := make([]float64, numSymbols)
		var sum float64
		for s := 0; s < numSymbols; s++ {
			row[s] = l.Targets[s][k]
			sum += row[s]
		}
		if sum > 0 {
			for s := range row {
				row[s] /= sum
			}
		} else {
			for s := range row {
				row[s] = 1 / float64(numSymbols)
			}
		}
		l.obsMatrix[k] = row
	}
}

// #endregion likelihood

// #region action-model

// ActionModel captures the generative expectations for one action: where
// it is expected to move each factor, how much information it yields per
// factor, and how dangerous it is for a fragile agent.
type ActionModel struct {
	Targets map[Factor][]float64 // expected outcome distribution per factor
	Gain    map[Factor]float64   // epistemic gain weight per factor
	Risk    float64              // scales the low-viability penalty
}

// #endregion action-model

// #region generative-model

// GenerativeModel holds the immutable parameters of the discrete profile:
// per-modality likelihoods, per-action outcome targets, and the preference
// distribution C over factor outcomes.
type GenerativeModel struct {
	Likelihoods  map[observe.Modality]*Likelihood
	ActionModels map[Action]ActionModel

	// Preferences[f] is the desirability distribution C over f's outcomes.
	Preferences map[Factor][]float64
	// PrefWeights scales each factor's contribution to pragmatic value.
	PrefWeights map[Factor]float64
}

// Validate checks that every table has the right shape and every target
// row sums to 1 within tolerance.
func (m *GenerativeModel) Validate() error {
	const tol = 1e-3
	for _, mod := range observe.Modalities() {
		l, ok := m.Likelihoods[mod]
		if !ok {
			return fmt.Errorf("missing likelihood for modality %q", mod)
		}
		if len(l.Targets) != mod.Cardinality() {
			return fmt.Errorf("likelihood for %q has %d rows, want %d", mod, len(l.Targets), mod.Cardinality())
		}
		for s, row := range l.Targets {
			if len(row) != l.Factor.Cardinality() {
				return fmt.Errorf("likelihood %q symbol %d has %d outcomes, want %d", mod, s, len(row), l.Factor.Cardinality())
			}
			if err := checkDistribution(row, tol); err != nil {
				return fmt.Errorf("likelihood %q symbol %d: %w", mod, s, err)
			}
		}
	}
	for _, a := range Actions() {
		am, ok := m.ActionModels[a]
		if !ok {
			return fmt.Errorf("missing action model for %q", a)
		}
		for f, row := range am.Targets {
			if len(row) != f.Cardinality() {
				return fmt.Errorf("action %q target for %q has %d outcomes, want %d", a, f, len(row), f.Cardinality())
			}
			if err := checkDistribution(row, tol); err != nil {
				return fmt.Errorf("action %q target for %q: %w", a, f, err)
			}
		}
	}
	for _, f := range Factors() {
		c, ok := m.Preferences[f]
		if !ok {
			return fmt.Errorf("missing preference vector for factor %q", f)
		}
		if len(c) != f.Cardinality() {
			return fmt.Errorf("preference for %q has %d outcomes, want %d", f, len(c), f.Cardinality())
		}
	}
	return nil
}

func checkDistribution(row []float64, tol float64) error {
	var sum float64
	for _, v := range row {
		if v < 0 {
			return fmt.Errorf("negative entry %f", v)
		}
		sum += v
	}
	if sum < 1-tol || sum > 1+tol {
		return fmt.Errorf("row sums to %f, want 1", sum)
	}
	return nil
}

// #endregion generative-model

// #region defaults

// Default returns the calibrated generative model for the survival
// controller. The blend weights and target rows are tunable parameters,
// calibrated so that low-energy evidence concentrates viability mass on
// critical/low and success evidence concentrates goalProgress mass on
// onTrack/achieved.
func Default() *GenerativeModel {
	m := &GenerativeModel{
		Likelihoods: map[observe.Modality]*Likelihood{
			observe.ModalityEnergy: {
				Factor: FactorViability,
				Blend:  0.35,
				Targets: [][]float64{
					{0.70, 0.20, 0.06, 0.03, 0.01}, // depleted
					{0.25, 0.50, 0.17, 0.05, 0.03}, // low
					{0.05, 0.20, 0.50, 0.20, 0.05}, // medium
					{0.03, 0.05, 0.17, 0.50, 0.25}, // high
					{0.01, 0.03, 0.06, 0.30, 0.60}, // full
				},
			},
			observe.ModalityPhi: {
				Factor: FactorCoupling,
				Blend:  0.25,
				Targets: [][]float64{
					{0.50, 0.30, 0.12, 0.05, 0.03}, // low
					{0.25, 0.40, 0.22, 0.08, 0.05}, // reduced
					{0.05, 0.15, 0.40, 0.28, 0.12}, // elevated
					{0.02, 0.08, 0.20, 0.40, 0.30}, // high
				},
			},
			observe.ModalityTool: {
				Factor: FactorGoalProgress,
				Blend:  0.20,
				Targets: [][]float64{
					{0.55, 0.30, 0.10, 0.05}, // fail
					{0.20, 0.40, 0.30, 0.10}, // neutral
					{0.05, 0.15, 0.50, 0.30}, // success
				},
			},
			observe.ModalityCoherence: {
				Factor: FactorWorldState,
				Blend:  0.30,
				Targets: [][]float64{
					{0.30, 0.10, 0.35, 0.25}, // fragmented
					{0.30, 0.30, 0.30, 0.10}, // mixed
					{0.10, 0.60, 0.25, 0.05}, // consistent
				},
			},
			observe.ModalityTask: {
				Factor: FactorGoalProgress,
				Blend:  0.25,
				Targets: [][]float64{
					{0.25, 0.35, 0.25, 0.15}, // none
					{0.20, 0.45, 0.28, 0.07}, // queued
					{0.08, 0.25, 0.52, 0.15}, // active
					{0.05, 0.10, 0.30, 0.55}, // done
				},
			},
		},
		ActionModels: map[Action]ActionModel{
			ActionRecharge: {
				Targets: map[Factor][]float64{
					FactorViability:    {0.02, 0.08, 0.30, 0.40, 0.20},
					FactorGoalProgress: {0.20, 0.45, 0.25, 0.10},
				},
				Risk: 0,
			},
			ActionRestIdle: {
				Targets: map[Factor][]float64{
					FactorViability: {0.03, 0.12, 0.40, 0.32, 0.13},
				},
				Gain: map[Factor]float64{FactorWorldState: 0.2},
				Risk: 0,
			},
			ActionExecuteTask: {
				Targets: map[Factor][]float64{
					FactorGoalProgress: {0.05, 0.10, 0.40, 0.45},
					FactorViability:    {0.15, 0.30, 0.35, 0.15, 0.05},
				},
				Gain: map[Factor]float64{FactorGoalProgress: 0.3},
				Risk: 0.8,
			},
			ActionSenseMCP: {
				Targets: map[Factor][]float64{
					FactorWorldState: {0.15, 0.45, 0.30, 0.10},
				},
				Gain: map[Factor]float64{FactorWorldState: 0.8, FactorCoupling: 0.5},
				Risk: 0.1,
			},
			ActionExploreWorld: {
				Targets: map[Factor][]float64{
					FactorWorldState: {0.10, 0.35, 0.40, 0.15},
					FactorViability:  {0.08, 0.22, 0.40, 0.22, 0.08},
				},
				Gain: map[Factor]float64{FactorWorldState: 1.0},
				Risk: 0.5,
			},
			ActionSyncCoupling: {
				Targets: map[Factor][]float64{
					FactorCoupling: {0.05, 0.10, 0.25, 0.35, 0.25},
				},
				Gain: map[Factor]float64{FactorCoupling: 0.6},
				Risk: 0.2,
			},
			ActionPlanGoal: {
				Targets: map[Factor][]float64{
					FactorGoalProgress: {0.10, 0.25, 0.45, 0.20},
				},
				Gain: map[Factor]float64{FactorGoalProgress: 0.6},
				Risk: 0.1,
			},
		},
		Preferences: map[Factor][]float64{
			FactorViability:    {0.00, 0.05, 0.15, 0.35, 0.45},
			FactorWorldState:   {0.05, 0.55, 0.30, 0.10},
			FactorCoupling:     {0.05, 0.10, 0.25, 0.30, 0.30},
			FactorGoalProgress: {0.00, 0.10, 0.35, 0.55},
		},
		PrefWeights: map[Factor]float64{
			FactorViability:    1.0,
			FactorWorldState:   0.4,
			FactorCoupling:     0.3,
			FactorGoalProgress: 0.8,
		},
	}
	for _, l := range m.Likelihoods {
		l.BuildObsMatrix()
	}
	return m
}

// #endregion defaults
