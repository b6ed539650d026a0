package market

import (
	"math"

	"github.com/jmswan/active-kernel/internal/belief"
)

// #region producer

// SignalProducer derives the trend, momentum, and volatility scalars the
// continuous profile consumes from a rolling window of market prices.
type SignalProducer struct {
	window int
	prices []float64
}

// Signals bundles one window's derived scalars.
type Signals struct {
	Trend      float64 // mean per-step direction in [-1, 1]
	Momentum   float64 // last-step price change, tanh-squashed
	Volatility float64 // stddev of per-step returns, >= 0
}

// NewSignalProducer creates a producer with the given window size
// (minimum 2).
func NewSignalProducer(window int) *SignalProducer {
	if window < 2 {
		window = 2
	}
	return &SignalProducer{window: window}
}

// Push appends a price and drops the oldest once the window is full.
func (p *SignalProducer) Push(price float64) {
	p.prices = append(p.prices, price)
	if len(p.prices) > p.window {
		p.prices = p.prices[1:]
	}
}

// Ready reports whether enough prices have arrived to derive signals.
func (p *SignalProducer) Ready() bool {
	return len(p.prices) >= 2
}

// Produce computes all signals from the current window. With fewer than
// two prices everything degrades to zero rather than failing the cycle.
func (p *SignalProducer) Produce() Signals {
	if !p.Ready() {
		return Signals{}
	}
	return Signals{
		Trend:      p.trend(),
		Momentum:   p.momentum(),
		Volatility: p.volatility(),
	}
}

// #endregion producer

// #region derivations

// trend is the mean sign of per-step moves: +1 all up, -1 all down.
func (p *SignalProducer) trend() float64 {
	var sum float64
	steps := len(p.prices) - 1
	for i := 1; i < len(p.prices); i++ {
		d := p.prices[i] - p.prices[i-1]
		switch {
		case d > 0:
			sum++
		case d < 0:
			sum--
		}
	}
	return sum / float64(steps)
}

// momentum squashes the most recent step change into (-1, 1).
func (p *SignalProducer) momentum() float64 {
	last := p.prices[len(p.prices)-1] - p.prices[len(p.prices)-2]
	return math.Tanh(last * 10)
}

// volatility is the standard deviation of per-step returns.
func (p *SignalProducer) volatility() float64 {
	steps := len(p.prices) - 1
	returns := make([]float64, 0, steps)
	var mean float64
	for i := 1; i < len(p.prices); i++ {
		prev := p.prices[i-1]
		if prev < belief.Epsilon {
			continue
		}
		r := (p.prices[i] - prev) / prev
		returns = append(returns, r)
		mean += r
	}
	if len(returns) == 0 {
		return 0
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// #endregion derivations
