package stats

// #region stats

// Stats is a point-in-time snapshot of the tracker.
type Stats struct {
	InferenceCount  uint64
	AverageSurprise float64
}

// #endregion stats

// #region tracker

// Tracker accumulates per-cycle counters for the life of an engine
// instance. The mean is incremental (Welford), so it never overflows a
// stored sum no matter how long the instance runs.
type Tracker struct {
	count uint64
	mean  float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record folds one surprise value into the running mean. Called exactly
// once per state-inference pass; policy inference and sampling never
// touch the tracker.
func (t *Tracker) Record(surprise float64) {
	t.count++
	t.mean += (surprise - t.mean) / float64(t.count)
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Stats {
	return Stats{
		InferenceCount:  t.count,
		AverageSurprise: t.mean,
	}
}

// Reset zeroes the tracker. Only an explicit caller request resets stats.
func (t *Tracker) Reset() {
	t.count = 0
	t.mean = 0
}

// #endregion tracker
