package replay

import (
	"fmt"
	"log/slog"

	"github.com/jmswan/active-kernel/internal/engine"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/policy"
)

// #region result

// CycleResult captures the outcome of replaying one recorded cycle.
type CycleResult struct {
	CycleID  string
	Action   model.Action
	Surprise float64
	Policy   map[model.Action]float64
	Passed   bool
	Failures []string
}

// RunResult aggregates a full fixture replay.
type RunResult struct {
	Cycles []CycleResult
	Passed bool
}

// #endregion result

// #region harness

// Run replays every cycle of a fixture through a fresh engine with the
// fixture's pinned temperature and seed, checking each cycle's policy
// expectations. Deterministic: the same fixture always produces the same
// actions and pass/fail outcomes.
func Run(f *Fixture, logger *slog.Logger) (RunResult, error) {
	cfg := engine.DefaultConfig()
	if f.Config.Temperature > 0 {
		cfg.Policy.Temperature = f.Config.Temperature
	}
	rng := policy.NewPCG(f.Config.Seed[0], f.Config.Seed[1])

	eng, err := engine.New(cfg, rng, logger)
	if err != nil {
		return RunResult{}, fmt.Errorf("replay engine: %w", err)
	}

	out := RunResult{Passed: true}
	for _, c := range f.Cycles {
		res, err := runCycle(eng, c)
		if err != nil {
			return RunResult{}, fmt.Errorf("cycle %s: %w", c.CycleID, err)
		}
		if !res.Passed {
			out.Passed = false
		}
		out.Cycles = append(out.Cycles, res)
	}
	return out, nil
}

func runCycle(eng *engine.Engine, c FixtureCycle) (CycleResult, error) {
	obs := c.Observation.Observation()
	if _, err := eng.InferStates(obs); err != nil {
		return CycleResult{}, err
	}
	p, _ := eng.InferPolicies()
	a, err := eng.SampleAction(p)
	if err != nil {
		return CycleResult{}, err
	}

	dist := make(map[model.Action]float64, model.NumActions)
	for _, act := range model.Actions() {
		dist[act] = p.Prob(act)
	}

	res := CycleResult{
		CycleID: c.CycleID,
		Action:  a,
		Policy:  dist,
		Passed:  true,
	}
	// The kernel emits one event per completed cycle; it carries this
	// cycle's surprise.
	select {
	case ev := <-eng.Events():
		res.Surprise = ev.Surprise
	default:
	}

	for _, exp := range c.Expect {
		var combined float64
		for _, name := range exp.Actions {
			combined += p.Prob(model.Action(name))
		}
		if combined < exp.MinCombined {
			res.Passed = false
			res.Failures = append(res.Failures,
				fmt.Sprintf("combined P(%v)=%.4f below floor %.4f", exp.Actions, combined, exp.MinCombined))
		}
	}
	return res, nil
}

// #endregion harness
