package observe

import "fmt"

// #region modality

// Modality identifies one sensed channel of the observation tuple.
type Modality int

const (
	ModalityEnergy Modality = iota
	ModalityPhi
	ModalityTool
	ModalityCoherence
	ModalityTask

	numModalities
)

// NumModalities is the fixed width of an Observation.
const NumModalities = int(numModalities)

// String returns the modality name used in errors and logs.
func (m Modality) String() string {
	switch m {
	case ModalityEnergy:
		return "energy"
	case ModalityPhi:
		return "phi"
	case ModalityTool:
		return "tool"
	case ModalityCoherence:
		return "coherence"
	case ModalityTask:
		return "task"
	default:
		return fmt.Sprintf("modality(%d)", int(m))
	}
}

// Cardinality returns the number of discrete symbols for the modality.
func (m Modality) Cardinality() int {
	switch m {
	case ModalityEnergy:
		return 5 // depleted, low, medium, high, full
	case ModalityPhi:
		return 4 // low, reduced, elevated, high
	case ModalityTool:
		return 3 // fail, neutral, success
	case ModalityCoherence:
		return 3 // fragmented, mixed, consistent
	case ModalityTask:
		return 4 // none, queued, active, done
	default:
		return 0
	}
}

// Modalities returns all modalities in observation order.
func Modalities() []Modality {
	return []Modality{ModalityEnergy, ModalityPhi, ModalityTool, ModalityCoherence, ModalityTask}
}

// #endregion modality

// #region symbols

// Named energy symbols. Other modalities follow the same low-to-high ordering.
const (
	EnergyDepleted = 0
	EnergyLow      = 1
	EnergyMedium   = 2
	EnergyHigh     = 3
	EnergyFull     = 4

	PhiLow      = 0
	PhiReduced  = 1
	PhiElevated = 2
	PhiHigh     = 3

	ToolFail    = 0
	ToolNeutral = 1
	ToolSuccess = 2

	CoherenceFragmented = 0
	CoherenceMixed      = 1
	CoherenceConsistent = 2

	TaskNone   = 0
	TaskQueued = 1
	TaskActive = 2
	TaskDone   = 3
)

// #endregion symbols

// #region observation

// Observation is a fixed-width tuple of discrete symbols, one per modality.
type Observation struct {
	Energy    int
	Phi       int
	Tool      int
	Coherence int
	Task      int
}

// Symbol returns the symbol for the given modality.
func (o Observation) Symbol(m Modality) int {
	switch m {
	case ModalityEnergy:
		return o.Energy
	case ModalityPhi:
		return o.Phi
	case ModalityTool:
		return o.Tool
	case ModalityCoherence:
		return o.Coherence
	case ModalityTask:
		return o.Task
	default:
		return -1
	}
}

// Validate checks every symbol against its modality's cardinality.
// An out-of-range symbol means the encoder and engine disagree on the
// observation contract, so it is an error, never clamped.
func (o Observation) Validate() error {
	for _, m := range Modalities() {
		s := o.Symbol(m)
		if s < 0 || s >= m.Cardinality() {
			return &ValidationError{Modality: m, Value: s}
		}
	}
	return nil
}

// #endregion observation

// #region validation-error

// ValidationError reports an observation symbol outside its modality's range.
type ValidationError struct {
	Modality Modality
	Value    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("observation symbol %d out of range [0,%d) for modality %q",
		e.Value, e.Modality.Cardinality(), e.Modality)
}

// #endregion validation-error
