package update

import (
	"errors"
	"math"
	"testing"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/observe"
)

func neutralObs() observe.Observation {
	return observe.Observation{
		Energy:    observe.EnergyMedium,
		Phi:       observe.PhiReduced,
		Tool:      observe.ToolNeutral,
		Coherence: observe.CoherenceMixed,
		Task:      observe.TaskNone,
	}
}

func TestUpdateKeepsBeliefValid(t *testing.T) {
	gm := model.Default()
	res, err := Update(belief.Default(), neutralObs(), gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := res.Belief.Validate(); err != nil {
		t.Fatalf("updated belief invalid: %v", err)
	}
	if res.Surprise < 0 {
		t.Fatalf("surprise must be >= 0, got %f", res.Surprise)
	}
	if len(res.Repaired) != 0 {
		t.Fatalf("no repair expected, got %v", res.Repaired)
	}
}

func TestUpdateFullEnergyIncreasesOptimalMass(t *testing.T) {
	gm := model.Default()
	prior := belief.Default()
	priorOptimal := prior.Factor(model.FactorViability)[4]

	obs := neutralObs()
	obs.Energy = observe.EnergyFull
	res, err := Update(prior, obs, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if got := res.Belief.Factor(model.FactorViability)[4]; got <= priorOptimal {
		t.Fatalf("full energy must strictly increase optimal mass: %f <= %f", got, priorOptimal)
	}
}

func TestUpdateDepletedEnergyIncreasesCriticalMass(t *testing.T) {
	gm := model.Default()
	prior := belief.Default()
	priorCritical := prior.Factor(model.FactorViability)[0]

	obs := neutralObs()
	obs.Energy = observe.EnergyDepleted
	res, err := Update(prior, obs, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if got := res.Belief.Factor(model.FactorViability)[0]; got <= priorCritical {
		t.Fatalf("depleted energy must strictly increase critical mass: %f <= %f", got, priorCritical)
	}
}

func TestUpdateMonotonicity(t *testing.T) {
	gm := model.Default()

	good := observe.Observation{
		Energy:    observe.EnergyFull,
		Phi:       observe.PhiHigh,
		Tool:      observe.ToolSuccess,
		Coherence: observe.CoherenceConsistent,
		Task:      observe.TaskActive,
	}
	bad := neutralObs()
	bad.Energy = observe.EnergyDepleted

	resGood, err := Update(belief.Default(), good, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	resBad, err := Update(belief.Default(), bad, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	goodOptimal := resGood.Belief.Factor(model.FactorViability)[4]
	badOptimal := resBad.Belief.Factor(model.FactorViability)[4]
	if goodOptimal <= badOptimal {
		t.Fatalf("optimal viability after good evidence (%f) must exceed after depleted evidence (%f)",
			goodOptimal, badOptimal)
	}
}

func TestUpdateRejectsOutOfRangeObservation(t *testing.T) {
	gm := model.Default()
	obs := neutralObs()
	obs.Phi = 4

	_, err := Update(belief.Default(), obs, gm, DefaultConfig())
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *observe.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *observe.ValidationError, got %T: %v", err, err)
	}
}

func TestUpdateDeterministic(t *testing.T) {
	gm := model.Default()
	obs := neutralObs()
	obs.Energy = observe.EnergyHigh

	r1, err := Update(belief.Default(), obs, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	r2, err := Update(belief.Default(), obs, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for _, f := range model.Factors() {
		a, b := r1.Belief.Factor(f), r2.Belief.Factor(f)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("non-deterministic at factor %s outcome %d", f, i)
			}
		}
	}
	if r1.Surprise != r2.Surprise {
		t.Fatal("surprise is not deterministic")
	}
}

func TestSurpriseZeroForFullyExpectedObservation(t *testing.T) {
	// A one-hot likelihood plus a point-mass prior makes the depleted
	// symbol fully expected: its modality surprise must vanish.
	gm := model.Default()
	gm.Likelihoods[observe.ModalityEnergy] = &model.Likelihood{
		Factor: model.FactorViability,
		Blend:  0.35,
		Targets: [][]float64{
			{1, 0, 0, 0, 0},
			{0, 1, 0, 0, 0},
			{0, 0, 1, 0, 0},
			{0, 0, 0, 1, 0},
			{0, 0, 0, 0, 1},
		},
	}
	gm.Likelihoods[observe.ModalityEnergy].BuildObsMatrix()

	prior := belief.Default()
	prior.SetFactor(model.FactorViability, []float64{1, 0, 0, 0, 0})

	obs := neutralObs()
	obs.Energy = observe.EnergyDepleted
	res, err := Update(prior, obs, gm, DefaultConfig())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if s := res.PerModality[observe.ModalityEnergy]; s > 1e-9 {
		t.Fatalf("fully expected symbol should have ~0 surprise, got %g", s)
	}
}

func TestBernoulliKL(t *testing.T) {
	if kl := BernoulliKL(0.3, 0.3); kl != 0 {
		t.Fatalf("KL of identical distributions must be 0, got %g", kl)
	}
	kl := BernoulliKL(0.8, 0.2)
	if kl <= 0 || math.IsNaN(kl) || math.IsInf(kl, 0) {
		t.Fatalf("expected finite positive KL, got %g", kl)
	}
	// Epsilon guards keep extreme inputs finite.
	edge := BernoulliKL(1, 0)
	if math.IsNaN(edge) || math.IsInf(edge, 0) {
		t.Fatalf("guarded KL must stay finite, got %g", edge)
	}
}
