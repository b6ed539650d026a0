package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmswan/active-kernel/internal/observe"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// sequence of observations plus policy expectations, replayed through a
// fresh engine.
type Fixture struct {
	Description string         `json:"description"`
	Config      FixtureConfig  `json:"config"`
	Cycles      []FixtureCycle `json:"cycles"`
}

// FixtureConfig pins the knobs that affect replay determinism.
type FixtureConfig struct {
	Temperature float64   `json:"temperature"`
	Seed        [2]uint64 `json:"seed"`
}

// FixtureObservation mirrors observe.Observation with JSON tags.
type FixtureObservation struct {
	Energy    int `json:"energy"`
	Phi       int `json:"phi"`
	Tool      int `json:"tool"`
	Coherence int `json:"coherence"`
	Task      int `json:"task"`
}

// Observation converts to the kernel type.
func (f FixtureObservation) Observation() observe.Observation {
	return observe.Observation{
		Energy:    f.Energy,
		Phi:       f.Phi,
		Tool:      f.Tool,
		Coherence: f.Coherence,
		Task:      f.Task,
	}
}

// Expectation asserts a combined probability floor over a set of actions
// in the post-cycle policy.
type Expectation struct {
	Actions     []string `json:"actions"`
	MinCombined float64  `json:"min_combined"`
}

// FixtureCycle is one recorded decision cycle.
type FixtureCycle struct {
	CycleID     string             `json:"cycle_id"`
	Observation FixtureObservation `json:"observation"`
	Expect      []Expectation      `json:"expect,omitempty"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads and parses a fixture JSON file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Cycles) == 0 {
		return nil, fmt.Errorf("fixture %s has no cycles", path)
	}
	return &f, nil
}

// #endregion load
