package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/model"
	"github.com/jmswan/active-kernel/internal/observe"
	"github.com/jmswan/active-kernel/internal/policy"
	"github.com/jmswan/active-kernel/internal/stats"
	"github.com/jmswan/active-kernel/internal/update"
)

// #region config

// Config bundles the kernel's tunable parameters.
type Config struct {
	Update update.Config
	Policy policy.Config

	// EventBuffer is the capacity of the cycle-event channel. Events are
	// dropped, never blocked on, when the buffer is full.
	EventBuffer int
}

// DefaultConfig returns the calibrated kernel configuration.
func DefaultConfig() Config {
	return Config{
		Update:      update.DefaultConfig(),
		Policy:      policy.DefaultConfig(),
		EventBuffer: 16,
	}
}

// #endregion config

// #region cycle-event

// CycleEvent is emitted on the event channel after every completed
// decision cycle (state inference through sampling).
type CycleEvent struct {
	Cycle         uint64
	Surprise      float64
	Action        model.Action
	PolicyEntropy float64
	At            time.Time
}

// #endregion cycle-event

// #region engine

// Engine is the discrete-profile decision kernel. It is single-threaded
// and synchronous: one instance per logical agent, or serialize access
// behind the caller's own boundary.
type Engine struct {
	gm      *model.GenerativeModel
	beliefs belief.Belief
	tracker *stats.Tracker
	sampler *policy.Sampler
	cfg     Config
	logger  *slog.Logger
	events  chan CycleEvent

	cycle        uint64
	lastSurprise float64
}

// New constructs a kernel with the default generative model, the
// documented default belief prior, and the closed action vocabulary.
// A nil rng falls back to a time-seeded source; a nil logger falls back
// to slog.Default().
func New(cfg Config, rng policy.Rand, logger *slog.Logger) (*Engine, error) {
	gm := model.Default()
	if err := gm.Validate(); err != nil {
		return nil, fmt.Errorf("generative model: %w", err)
	}
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = policy.NewPCG(now, now>>32)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gm:      gm,
		beliefs: belief.Default(),
		tracker: stats.NewTracker(),
		sampler: policy.NewSampler(rng),
		cfg:     cfg,
		logger:  logger,
		events:  make(chan CycleEvent, max(cfg.EventBuffer, 1)),
	}, nil
}

// Beliefs returns a read-only snapshot of the current beliefs.
func (e *Engine) Beliefs() belief.Belief {
	return e.beliefs.Clone()
}

// Stats returns a snapshot of the running counters.
func (e *Engine) Stats() stats.Stats {
	return e.tracker.Snapshot()
}

// Events is the typed cycle-event channel. Consumers subscribe
// independently of the kernel's control flow; a slow consumer loses
// events rather than stalling inference.
func (e *Engine) Events() <-chan CycleEvent {
	return e.events
}

// Model exposes the generative model for collaborators that need the
// preference vectors (read-only by convention).
func (e *Engine) Model() *model.GenerativeModel {
	return e.gm
}

// #endregion engine

// #region infer-states

// InferStates validates the observation, runs the belief-updater pass,
// records statistics, and returns the new belief snapshot.
func (e *Engine) InferStates(obs observe.Observation) (belief.Belief, error) {
	res, err := update.Update(e.beliefs, obs, e.gm, e.cfg.Update)
	if err != nil {
		return belief.Belief{}, fmt.Errorf("infer states: %w", err)
	}
	for _, f := range res.Repaired {
		e.logger.Warn("degenerate belief repaired to uniform", "factor", f.String())
	}
	e.beliefs = res.Belief
	e.tracker.Record(res.Surprise)
	e.cycle++
	e.lastSurprise = res.Surprise
	e.logger.Debug("state inference complete",
		"cycle", e.cycle, "surprise", res.Surprise)
	return e.beliefs.Clone(), nil
}

// #endregion infer-states

// #region infer-policies

// InferPolicies computes the EFE scores for every action from the current
// beliefs and converts them into a policy by temperature softmax. Pure
// with respect to belief state; recomputed fresh on every call.
func (e *Engine) InferPolicies() (policy.Policy, []policy.Score) {
	scores := policy.Evaluate(e.beliefs, e.gm, e.cfg.Policy)
	p := policy.Softmax(scores, e.cfg.Policy.Temperature)
	return p, scores
}

// #endregion infer-policies

// #region sample-action

// SampleAction draws one action from the policy and emits the cycle event.
// The policy is validated, never repaired; an invariant violation here is
// an evaluator bug.
func (e *Engine) SampleAction(p policy.Policy) (model.Action, error) {
	a, err := e.sampler.Sample(p)
	if err != nil {
		return "", err
	}
	e.emit(CycleEvent{
		Cycle:         e.cycle,
		Surprise:      e.lastSurprise,
		Action:        a,
		PolicyEntropy: p.Entropy(),
		At:            time.Now().UTC(),
	})
	return a, nil
}

func (e *Engine) emit(ev CycleEvent) {
	select {
	case e.events <- ev:
	default:
		// No consumer keeping up; drop rather than block the cycle.
	}
}

// #endregion sample-action
