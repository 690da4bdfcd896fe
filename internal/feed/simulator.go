// Package feed keeps a displayed quote alive between authoritative refreshes.
// The poll interval is too coarse for a live chart feel, so between polls a
// bounded random walk is applied on a fast timer. Jittered values are
// cosmetic: they are never persisted and only the next poll result is
// authoritative.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/brokerlite/internal/marketdata"
	"go.uber.org/zap"
)

// State is the simulator lifecycle state for one instrument.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateJittering
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateJittering:
		return "jittering"
	default:
		return "idle"
	}
}

// Jitter magnitude bounds, as a fraction of price per tick.
const (
	jitterMin = 0.00005 // 0.005%
	jitterMax = 0.0003  // 0.03%
)

// FetchFunc returns the authoritative quote for a symbol.
type FetchFunc func(ctx context.Context, symbol string) *marketdata.Quote

// Simulator drives the {idle, polling, jittering} loop for one instrument.
// Each subscribed instrument runs its own Simulator; they share no mutable
// state with each other.
type Simulator struct {
	symbol         string
	fetch          FetchFunc
	pollInterval   time.Duration
	jitterInterval time.Duration
	logger         *zap.Logger

	out chan marketdata.Quote

	mu      sync.Mutex
	state   State
	stopped bool
	cancel  context.CancelFunc
	rng     *rand.Rand
}

// NewSimulator creates a feed simulator for a single instrument.
func NewSimulator(symbol string, fetch FetchFunc, pollInterval, jitterInterval time.Duration, logger *zap.Logger) *Simulator {
	return &Simulator{
		symbol:         symbol,
		fetch:          fetch,
		pollInterval:   pollInterval,
		jitterInterval: jitterInterval,
		logger:         logger,
		out:            make(chan marketdata.Quote, 16),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Updates returns the stream of quotes: each authoritative poll result
// followed by jittered ticks until the next poll.
func (s *Simulator) Updates() <-chan marketdata.Quote {
	return s.out
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the poll/jitter loop. It is a no-op when already running
// or after Stop; a stopped Simulator cannot be restarted because its update
// channel is already closed.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle || s.stopped {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StatePolling
	s.mu.Unlock()

	go s.run(runCtx)
}

// Stop cancels the loop. The update channel is closed once the loop exits
// and the Simulator is done for good.
func (s *Simulator) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Simulator) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		close(s.out)
	}()

	for {
		s.setState(StatePolling)
		quote := s.fetch(ctx, s.symbol)
		if ctx.Err() != nil {
			return
		}
		if quote == nil {
			// Fetch contract is total, but guard anyway and retry next poll.
			s.logger.Warn("feed fetch returned no quote", zap.String("symbol", s.symbol))
			select {
			case <-time.After(s.pollInterval):
				continue
			case <-ctx.Done():
				return
			}
		}

		s.emit(*quote)
		s.setState(StateJittering)

		// A fresh ticker per poll cycle: the jitter timer is restarted, not
		// continued, whenever an authoritative value arrives.
		if !s.jitterUntilNextPoll(ctx, *quote) {
			return
		}
	}
}

// jitterUntilNextPoll emits jittered ticks derived from the last
// authoritative quote until the poll interval elapses. Returns false when
// the context was cancelled.
func (s *Simulator) jitterUntilNextPoll(ctx context.Context, last marketdata.Quote) bool {
	ticker := time.NewTicker(s.jitterInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(s.pollInterval)
	defer deadline.Stop()

	current := last
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return true
		case <-ticker.C:
			current = s.applyJitter(current, last.Spread)
			s.emit(current)
		}
	}
}

// applyJitter perturbs the price by a bounded symmetric random step and
// recomputes bid/ask from the last known spread.
func (s *Simulator) applyJitter(q marketdata.Quote, spread float64) marketdata.Quote {
	s.mu.Lock()
	frac := jitterMin + s.rng.Float64()*(jitterMax-jitterMin)
	up := s.rng.Float64() > 0.5
	s.mu.Unlock()

	variance := q.Price * frac
	if up {
		q.Price += variance
	} else {
		q.Price -= variance
	}

	if spread == 0 {
		spread = q.Price * 0.0002
	}
	q.Spread = spread
	q.Bid = q.Price - spread/2
	q.Ask = q.Price + spread/2
	q.Timestamp = time.Now().UnixMilli()
	return q
}

func (s *Simulator) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// emit delivers without blocking; a slow consumer drops ticks rather than
// stalling the loop.
func (s *Simulator) emit(q marketdata.Quote) {
	select {
	case s.out <- q:
	default:
	}
}
