package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
)

func TestEvaluateCoversVocabulary(t *testing.T) {
	scores := Evaluate(belief.Default(), model.Default(), DefaultConfig())
	if len(scores) != model.NumActions {
		t.Fatalf("expected %d scores, got %d", model.NumActions, len(scores))
	}
	for i, s := range scores {
		want, _ := model.ActionAt(i)
		if s.Action != want {
			t.Fatalf("score %d: expected action %q, got %q", i, want, s.Action)
		}
		if math.IsNaN(s.Total) || math.IsInf(s.Total, 0) {
			t.Fatalf("action %q: non-finite EFE %f", s.Action, s.Total)
		}
	}
}

func TestEvaluateRiskTracksLowViability(t *testing.T) {
	gm := model.Default()
	cfg := DefaultConfig()

	fragile := belief.Default()
	fragile.SetFactor(model.FactorViability, []float64{0.6, 0.3, 0.05, 0.03, 0.02})

	healthy := belief.Default()
	healthy.SetFactor(model.FactorViability, []float64{0.02, 0.03, 0.15, 0.4, 0.4})

	riskOf := func(scores []Score, a model.Action) float64 {
		for _, s := range scores {
			if s.Action == a {
				return s.Risk
			}
		}
		t.Fatalf("action %q missing from scores", a)
		return 0
	}

	fragileRisk := riskOf(Evaluate(fragile, gm, cfg), model.ActionExecuteTask)
	healthyRisk := riskOf(Evaluate(healthy, gm, cfg), model.ActionExecuteTask)
	if fragileRisk <= healthyRisk {
		t.Fatalf("execute.task risk should grow with low viability: %f <= %f", fragileRisk, healthyRisk)
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	scores := Evaluate(belief.Default(), model.Default(), DefaultConfig())
	p := Softmax(scores, 1.0)
	if err := p.Validate(); err != nil {
		t.Fatalf("softmax produced invalid policy: %v", err)
	}
	for i, v := range p.Probs() {
		if v <= 0 {
			t.Fatalf("entry %d is %f; softmax must keep every action explorable", i, v)
		}
	}
}

func TestSoftmaxEqualScoresUniform(t *testing.T) {
	scores := make([]Score, model.NumActions)
	for i := range scores {
		a, _ := model.ActionAt(i)
		scores[i] = Score{Action: a, Total: 0.42}
	}
	p := Softmax(scores, 1.0)
	uniform := 1.0 / float64(model.NumActions)
	for i, v := range p.Probs() {
		if math.Abs(v-uniform) > 1e-9 {
			t.Fatalf("entry %d: expected uniform %f, got %f", i, uniform, v)
		}
	}
}

func TestSoftmaxStableUnderLargeScores(t *testing.T) {
	scores := make([]Score, model.NumActions)
	for i := range scores {
		a, _ := model.ActionAt(i)
		scores[i] = Score{Action: a, Total: 1e6}
	}
	scores[2].Total = 1e6 + 3
	p := Softmax(scores, 1.0)
	if err := p.Validate(); err != nil {
		t.Fatalf("softmax overflowed on large scores: %v", err)
	}
	if p.Probs()[2] < 0.5 {
		t.Fatalf("dominant score should dominate, got %f", p.Probs()[2])
	}
}

func TestSoftmaxTemperaturePeaks(t *testing.T) {
	scores := make([]Score, model.NumActions)
	for i := range scores {
		a, _ := model.ActionAt(i)
		scores[i] = Score{Action: a}
	}
	scores[0].Total = 1.0

	hot := Softmax(scores, 2.0).Probs()[0]
	cold := Softmax(scores, 0.1).Probs()[0]
	if cold <= hot {
		t.Fatalf("lower temperature must peak the policy: cold=%f hot=%f", cold, hot)
	}
}

func TestFromProbsValidates(t *testing.T) {
	if _, err := FromProbs([]float64{1}); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy for wrong length, got %v", err)
	}
	bad := make([]float64, model.NumActions)
	bad[0] = 2
	if _, err := FromProbs(bad); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy for bad sum, got %v", err)
	}
}

func uniformPolicy(t *testing.T) Policy {
	t.Helper()
	probs := make([]float64, model.NumActions)
	for i := range probs {
		probs[i] = 1.0 / float64(model.NumActions)
	}
	p, err := FromProbs(probs)
	if err != nil {
		t.Fatalf("uniform policy invalid: %v", err)
	}
	return p
}

func TestSampleReturnsVocabularyMember(t *testing.T) {
	s := NewSampler(NewPCG(1, 2))
	p := uniformPolicy(t)
	for i := 0; i < 100; i++ {
		a, err := s.Sample(p)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if _, ok := model.ActionIndex(a); !ok {
			t.Fatalf("sampled action %q outside vocabulary", a)
		}
	}
}

func TestSampleCoversNonDegeneratePolicy(t *testing.T) {
	s := NewSampler(NewPCG(7, 11))
	p := uniformPolicy(t)

	seen := make(map[model.Action]int)
	for i := 0; i < 2000; i++ {
		a, err := s.Sample(p)
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		seen[a]++
	}
	for _, a := range model.Actions() {
		if seen[a] == 0 {
			t.Fatalf("action %q with probability > 0.05 never sampled in 2000 draws", a)
		}
	}
}

func TestSampleFailsLoudlyOnInvalidPolicy(t *testing.T) {
	s := NewSampler(NewPCG(1, 1))
	probs := make([]float64, model.NumActions)
	probs[0] = 0.5 // sums to 0.5, beyond tolerance

	_, err := s.Sample(Policy{probs: probs})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}
