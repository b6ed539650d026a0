package observe

import (
	"errors"
	"testing"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

func TestEncodeFullTelemetry(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	obs := enc.Encode(Telemetry{
		EnergyFraction: fptr(0.92),
		Phi:            fptr(0.8),
		ToolRan:        bptr(true),
		ToolSuccess:    bptr(true),
		CoherenceScore: fptr(0.7),
		TaskStatus:     sptr("active"),
	})

	if obs.Energy != EnergyFull {
		t.Fatalf("expected full energy, got %d", obs.Energy)
	}
	if obs.Phi != PhiHigh {
		t.Fatalf("expected high phi, got %d", obs.Phi)
	}
	if obs.Tool != ToolSuccess {
		t.Fatalf("expected tool success, got %d", obs.Tool)
	}
	if obs.Coherence != CoherenceConsistent {
		t.Fatalf("expected consistent coherence, got %d", obs.Coherence)
	}
	if obs.Task != TaskActive {
		t.Fatalf("expected active task, got %d", obs.Task)
	}
	if err := obs.Validate(); err != nil {
		t.Fatalf("encoded observation should be valid: %v", err)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	sample := Telemetry{
		EnergyFraction: fptr(0.42),
		CoherenceScore: fptr(0.5),
	}
	a := enc.Encode(sample)
	b := enc.Encode(sample)
	if a != b {
		t.Fatalf("encoding is not deterministic: %+v != %+v", a, b)
	}
}

func TestEncodeMissingFieldsUseDefaults(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	obs := enc.Encode(Telemetry{})

	want := Observation{
		Energy:    EnergyMedium,
		Phi:       PhiReduced,
		Tool:      ToolNeutral,
		Coherence: CoherenceMixed,
		Task:      TaskNone,
	}
	if obs != want {
		t.Fatalf("expected neutral defaults %+v, got %+v", want, obs)
	}
}

func TestEncodeEnergyThresholds(t *testing.T) {
	cases := []struct {
		frac float64
		want int
	}{
		{0.0, EnergyDepleted},
		{0.14, EnergyDepleted},
		{0.15, EnergyLow},
		{0.35, EnergyMedium},
		{0.6, EnergyHigh},
		{0.8, EnergyFull},
		{1.0, EnergyFull},
	}
	enc := NewEncoder(DefaultDefaults())
	for _, c := range cases {
		obs := enc.Encode(Telemetry{EnergyFraction: fptr(c.frac)})
		if obs.Energy != c.want {
			t.Fatalf("energy %f: expected symbol %d, got %d", c.frac, c.want, obs.Energy)
		}
	}
}

func TestEncodeToolNotRunStaysNeutral(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	obs := enc.Encode(Telemetry{ToolRan: bptr(false), ToolSuccess: bptr(true)})
	if obs.Tool != ToolNeutral {
		t.Fatalf("tool did not run, expected neutral, got %d", obs.Tool)
	}
}

func TestEncodeUnknownTaskFallsBack(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	obs := enc.Encode(Telemetry{TaskStatus: sptr("sideways")})
	if obs.Task != TaskNone {
		t.Fatalf("unknown task status should fall back to default, got %d", obs.Task)
	}
}

type stubSource struct {
	name   string
	sample Telemetry
	err    error
}

func (s stubSource) Name() string               { return s.name }
func (s stubSource) Sample() (Telemetry, error) { return s.sample, s.err }

func TestGatherMergesAndDegrades(t *testing.T) {
	enc := NewEncoder(DefaultDefaults())
	sources := []Source{
		stubSource{name: "battery", sample: Telemetry{EnergyFraction: fptr(0.05)}},
		stubSource{name: "phi", err: errors.New("sensor offline")},
		stubSource{name: "tasks", sample: Telemetry{TaskStatus: sptr("queued")}},
	}

	obs, errs := enc.Gather(sources)
	if len(errs) != 1 {
		t.Fatalf("expected 1 source error, got %d", len(errs))
	}
	if obs.Energy != EnergyDepleted {
		t.Fatalf("expected depleted energy, got %d", obs.Energy)
	}
	if obs.Task != TaskQueued {
		t.Fatalf("expected queued task, got %d", obs.Task)
	}
	if obs.Phi != PhiReduced {
		t.Fatalf("failed source should leave phi at default, got %d", obs.Phi)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	obs := Observation{Energy: 5}
	err := obs.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Modality != ModalityEnergy || verr.Value != 5 {
		t.Fatalf("unexpected error contents: %+v", verr)
	}
}

func TestValidateRejectsNegative(t *testing.T) {
	obs := Observation{Task: -1}
	if err := obs.Validate(); err == nil {
		t.Fatal("expected validation error for negative symbol")
	}
}
