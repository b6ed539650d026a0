package market

import (
	"fmt"
	"math"
	"time"

	"github.com/jmswan/active-kernel/internal/belief"
	"github.com/jmswan/active-kernel/internal/update"
)

// #region config

// Config holds the continuous-profile parameters.
type Config struct {
	// LearningRate is the convex blend weight toward the market price on
	// each belief update.
	LearningRate float64
	// TrendWeight and MomentumWeight shift the initial subjective
	// probability away from the raw price.
	TrendWeight    float64
	MomentumWeight float64
	// VolatilityScale maps observed volatility to confidence loss.
	VolatilityScale float64
	// RiskTolerance scales the Kelly fraction (fractional Kelly).
	RiskTolerance float64
	// ExplorationBonus scales epistemic value.
	ExplorationBonus float64
	// MaxPositionFraction caps the bankroll share of any one position.
	MaxPositionFraction float64
	// HoldBaseline is the standing score of doing nothing.
	HoldBaseline float64
}

// DefaultConfig returns the calibrated market configuration.
func DefaultConfig() Config {
	return Config{
		LearningRate:        0.3,
		TrendWeight:         0.10,
		MomentumWeight:      0.05,
		VolatilityScale:     8.0,
		RiskTolerance:       0.25,
		ExplorationBonus:    0.2,
		MaxPositionFraction: 0.15,
		HoldBaseline:        0.01,
	}
}

// #endregion config

// #region belief

// Belief is the continuous-profile belief about one market outcome: a
// subjective probability plus a confidence derived inversely from
// observed volatility.
type Belief struct {
	Probability float64
	Confidence  float64
	LastPrice   float64
	UpdatedAt   time.Time
}

// FormBelief builds an initial belief from a market price in (0,1) and
// the derived trend/momentum/volatility scalars.
func FormBelief(price, trend, momentum, volatility float64, cfg Config) (Belief, error) {
	if price <= 0 || price >= 1 {
		return Belief{}, fmt.Errorf("market price %f outside (0,1)", price)
	}
	p := price + cfg.TrendWeight*trend + cfg.MomentumWeight*momentum
	p = clampOpen(p)
	return Belief{
		Probability: p,
		Confidence:  confidenceFrom(volatility, cfg),
		LastPrice:   price,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}

// UpdateBelief blends the subjective probability toward the latest market
// price and recomputes confidence from the latest volatility. Surprise is
// the Bernoulli KL divergence between market price and prior subjective
// probability.
func UpdateBelief(b Belief, price, volatility float64, cfg Config) (Belief, float64, error) {
	if price <= 0 || price >= 1 {
		return Belief{}, 0, fmt.Errorf("market price %f outside (0,1)", price)
	}
	surprise := update.BernoulliKL(price, b.Probability)
	alpha := cfg.LearningRate
	next := Belief{
		Probability: clampOpen((1-alpha)*b.Probability + alpha*price),
		Confidence:  confidenceFrom(volatility, cfg),
		LastPrice:   price,
		UpdatedAt:   time.Now().UTC(),
	}
	return next, surprise, nil
}

func confidenceFrom(volatility float64, cfg Config) float64 {
	if volatility < 0 {
		volatility = 0
	}
	return 1 / (1 + cfg.VolatilityScale*volatility)
}

func clampOpen(p float64) float64 {
	const margin = 1e-4
	if p < margin {
		return margin
	}
	if p > 1-margin {
		return 1 - margin
	}
	return p
}

// #endregion belief

// #region neuromod

// Neuromod optionally scales risk appetite and exploration for one
// decision. The zero value is replaced by unit scales.
type Neuromod struct {
	RiskScale        float64
	ExplorationScale float64
}

func (n Neuromod) orUnit() Neuromod {
	if n.RiskScale == 0 {
		n.RiskScale = 1
	}
	if n.ExplorationScale == 0 {
		n.ExplorationScale = 1
	}
	return n
}

// #endregion neuromod

// #region trading-policy

// TradeAction is the continuous profile's closed vocabulary.
type TradeAction string

const (
	Buy  TradeAction = "buy"
	Sell TradeAction = "sell"
	Hold TradeAction = "hold"
)

// TradingPolicy is a single decision with its EFE decomposition and a
// justification built from the same numbers that made the decision.
type TradingPolicy struct {
	Action         TradeAction
	TargetShares   float64
	EFE            float64
	PragmaticValue float64
	EpistemicValue float64
	Reason         string
}

// #endregion trading-policy

// #region infer-policy

// InferPolicy scores buy, sell, and hold from the current belief and
// market state, and returns the best decision. Pragmatic value is a
// confidence- and risk-scaled Kelly fraction; epistemic value rewards
// belief/market disagreement, discounted as volatility rises.
func InferPolicy(b Belief, price, volatility float64, currentShares, bankroll float64, cfg Config, nm Neuromod) (TradingPolicy, error) {
	if price <= 0 || price >= 1 {
		return TradingPolicy{}, fmt.Errorf("market price %f outside (0,1)", price)
	}
	nm = nm.orUnit()

	edge := b.Probability - price
	disagreement := math.Abs(edge)
	epistemic := cfg.ExplorationBonus * nm.ExplorationScale * disagreement / (1 + volatility)

	buyKelly := kellyFraction(edge, price) * b.Confidence * cfg.RiskTolerance * nm.RiskScale
	sellKelly := kellyFraction(-edge, 1-price) * b.Confidence * cfg.RiskTolerance * nm.RiskScale

	candidates := []struct {
		action    TradeAction
		pragmatic float64
		epistemic float64
		kelly     float64
	}{
		{Buy, buyKelly, epistemic, buyKelly},
		{Sell, sellKelly, epistemic, sellKelly},
		{Hold, cfg.HoldBaseline, 0, 0},
	}

	best := candidates[0]
	bestEFE := best.pragmatic + best.epistemic
	for _, c := range candidates[1:] {
		efe := c.pragmatic + c.epistemic
		if efe > bestEFE {
			best, bestEFE = c, efe
		}
	}

	shares := 0.0
	if best.action != Hold {
		fraction := math.Min(best.kelly, cfg.MaxPositionFraction)
		if fraction > 0 {
			shares = fraction * bankroll / price
		}
	}
	if best.action == Sell && currentShares > 0 {
		// Closing a long position never exceeds what is held.
		shares = math.Min(shares, currentShares)
	}

	tp := TradingPolicy{
		Action:         best.action,
		TargetShares:   shares,
		EFE:            bestEFE,
		PragmaticValue: best.pragmatic,
		EpistemicValue: best.epistemic,
		Reason: fmt.Sprintf("%s: edge=%+.4f kelly=%.4f confidence=%.2f vol=%.4f",
			best.action, edge, best.kelly, b.Confidence, volatility),
	}
	return tp, nil
}

// kellyFraction returns edge/odds for a binary contract bought at cost,
// epsilon-guarded and floored at 0 when there is no positive edge.
func kellyFraction(edge, cost float64) float64 {
	if edge <= 0 {
		return 0
	}
	odds := (1 - cost) / math.Max(cost, belief.Epsilon)
	if odds < belief.Epsilon {
		return 0
	}
	return edge / odds
}

// #endregion infer-policy
