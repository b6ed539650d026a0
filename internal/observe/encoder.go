package observe

import "strings"

// #region telemetry

// Telemetry is the raw sample supplied by observation sources. Nil fields
// mean the source did not report that channel this cycle.
type Telemetry struct {
	EnergyFraction *float64 // battery/resource level in [0,1]
	Phi            *float64 // integration measure in [0,1]
	ToolRan        *bool    // whether a tool call happened since last cycle
	ToolSuccess    *bool    // outcome of the last tool call
	CoherenceScore *float64 // self-consistency measure in [0,1]
	TaskStatus     *string  // "none" | "queued" | "active" | "done"
}

// Merge overlays non-nil fields of other onto a copy of t.
func (t Telemetry) Merge(other Telemetry) Telemetry {
	if other.EnergyFraction != nil {
		t.EnergyFraction = other.EnergyFraction
	}
	if other.Phi != nil {
		t.Phi = other.Phi
	}
	if other.ToolRan != nil {
		t.ToolRan = other.ToolRan
	}
	if other.ToolSuccess != nil {
		t.ToolSuccess = other.ToolSuccess
	}
	if other.CoherenceScore != nil {
		t.CoherenceScore = other.CoherenceScore
	}
	if other.TaskStatus != nil {
		t.TaskStatus = other.TaskStatus
	}
	return t
}

// #endregion telemetry

// #region source

// Source supplies raw telemetry for a named collaborator (battery monitor,
// phi layer, tool runner, ...). A failing source degrades to defaults
// rather than failing the cycle.
type Source interface {
	Name() string
	Sample() (Telemetry, error)
}

// #endregion source

// #region defaults

// Defaults holds the neutral symbol per modality, used when a channel is
// missing from the telemetry.
type Defaults struct {
	Energy    int
	Phi       int
	Tool      int
	Coherence int
	Task      int
}

// DefaultDefaults returns the documented neutral symbols: medium energy,
// reduced phi, neutral tool outcome, mixed coherence, no task.
func DefaultDefaults() Defaults {
	return Defaults{
		Energy:    EnergyMedium,
		Phi:       PhiReduced,
		Tool:      ToolNeutral,
		Coherence: CoherenceMixed,
		Task:      TaskNone,
	}
}

// #endregion defaults

// #region encoder

// Encoder discretizes raw telemetry into Observations. Encoding is pure,
// deterministic, and total: every telemetry value maps to exactly one
// symbol and missing channels fall back to the configured defaults.
type Encoder struct {
	defaults Defaults
}

// NewEncoder creates an encoder with the given neutral defaults.
func NewEncoder(defaults Defaults) *Encoder {
	return &Encoder{defaults: defaults}
}

// Encode maps one telemetry sample to an Observation.
func (e *Encoder) Encode(t Telemetry) Observation {
	obs := Observation{
		Energy:    e.defaults.Energy,
		Phi:       e.defaults.Phi,
		Tool:      e.defaults.Tool,
		Coherence: e.defaults.Coherence,
		Task:      e.defaults.Task,
	}

	if t.EnergyFraction != nil {
		obs.Energy = encodeEnergy(*t.EnergyFraction)
	}
	if t.Phi != nil {
		obs.Phi = encodePhi(*t.Phi)
	}
	if t.ToolRan != nil && *t.ToolRan {
		obs.Tool = ToolFail
		if t.ToolSuccess != nil && *t.ToolSuccess {
			obs.Tool = ToolSuccess
		}
	}
	if t.CoherenceScore != nil {
		obs.Coherence = encodeCoherence(*t.CoherenceScore)
	}
	if t.TaskStatus != nil {
		obs.Task = encodeTask(*t.TaskStatus, e.defaults.Task)
	}

	return obs
}

// Gather merges telemetry from all sources (later sources win on overlap)
// and encodes the result. Source errors are collected and returned for
// logging, never block the observation.
func (e *Encoder) Gather(sources []Source) (Observation, []error) {
	var merged Telemetry
	var errs []error
	for _, src := range sources {
		sample, err := src.Sample()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		merged = merged.Merge(sample)
	}
	return e.Encode(merged), errs
}

// #endregion encoder

// #region thresholds

func encodeEnergy(frac float64) int {
	switch {
	case frac >= 0.8:
		return EnergyFull
	case frac >= 0.6:
		return EnergyHigh
	case frac >= 0.35:
		return EnergyMedium
	case frac >= 0.15:
		return EnergyLow
	default:
		return EnergyDepleted
	}
}

func encodePhi(phi float64) int {
	switch {
	case phi >= 0.75:
		return PhiHigh
	case phi >= 0.5:
		return PhiElevated
	case phi >= 0.25:
		return PhiReduced
	default:
		return PhiLow
	}
}

func encodeCoherence(score float64) int {
	switch {
	case score >= 0.66:
		return CoherenceConsistent
	case score >= 0.33:
		return CoherenceMixed
	default:
		return CoherenceFragmented
	}
}

func encodeTask(status string, fallback int) int {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "none":
		return TaskNone
	case "queued":
		return TaskQueued
	case "active":
		return TaskActive
	case "done":
		return TaskDone
	default:
		return fallback
	}
}

// #endregion thresholds
