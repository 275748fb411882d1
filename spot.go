package interact

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// SpotState is the visible state of a spot while it resolves its offer.
type SpotState int32

const (
	SpotIdle SpotState = iota
	// SpotLoading is the first fetch: there is nothing to show yet.
	SpotLoading
	// SpotRefreshing is a later fetch: the previous offer stays visible.
	SpotRefreshing
	SpotReady
)

func (s SpotState) String() string {
	switch s {
	case SpotLoading:
		return "loading"
	case SpotRefreshing:
		return "refreshing"
	case SpotReady:
		return "ready"
	}
	return "idle"
}

// SpotResult is what a spot renders. Offer is always set.
type SpotResult struct {
	Offer      Offer
	Display    OfferDisplay
	Source     OfferSource
	Reason     string
	Normalized NormalizedOfferResult
}

type SpotOption func(*Spot)

// WithSpotTimeout sets how long a fetch waits before showing the fallback.
func WithSpotTimeout(timeout time.Duration) SpotOption {
	return func(sp *Spot) {
		sp.timeout = timeout
	}
}

func WithFallbackCatalog(catalog *FallbackCatalog) SpotOption {
	return func(sp *Spot) {
		sp.fallback = catalog
	}
}

// Spot is one offer slot of a page bound to a visitor session. It always
// yields an offer: the personalized one when the server provides it in time,
// the fallback otherwise.
type Spot struct {
	session  *Session
	id       string
	config   SpotConfig
	fallback *FallbackCatalog
	timeout  time.Duration

	fetched atomic.Bool
	state   atomic.Int32
}

// Spot returns the slot spotID of the session.
func (s *Session) Spot(spotID string, config SpotConfig, opts ...SpotOption) *Spot {
	sp := &Spot{
		session:  s,
		id:       spotID,
		config:   config,
		fallback: DefaultFallbackCatalog(),
		timeout:  DefaultSpotTimeout,
	}
	for _, opt := range opts {
		opt(sp)
	}
	return sp
}

func (sp *Spot) State() SpotState {
	return SpotState(sp.state.Load())
}

type fetchOutcome struct {
	res *Result
	err error
}

// Fetch retrieves the offer for aud. The request is raced against the spot
// timeout; when the timer wins the request keeps running so the session it
// starts is still stored, but its result is dropped.
func (sp *Spot) Fetch(ctx context.Context, aud Audience, locale string) SpotResult {
	if sp.fetched.Swap(true) {
		sp.state.Store(int32(SpotRefreshing))
	} else {
		sp.state.Store(int32(SpotLoading))
	}
	defer sp.state.Store(int32(SpotReady))

	done := make(chan fetchOutcome, 1)
	go func() {
		res, err := sp.session.GetOffers(context.WithoutCancel(ctx), sp.id, aud, sp.config)
		done <- fetchOutcome{res: res, err: err}
	}()

	timer := time.NewTimer(sp.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return sp.fallbackResult(locale, NormalizedOfferResult{Reason: ReasonTransport}, out.err)
		}
		n := NormalizeOffers(out.res)
		if !n.Found() {
			return sp.fallbackResult(locale, n, nil)
		}
		return SpotResult{Offer: *n.Offer, Display: n.Offer.Display(), Source: SourcePersonalized, Normalized: n}
	case <-timer.C:
		return sp.fallbackResult(locale, NormalizedOfferResult{Reason: ReasonTimeout}, ErrTimeout)
	case <-ctx.Done():
		return sp.fallbackResult(locale, NormalizedOfferResult{Reason: ReasonTimeout}, ctx.Err())
	}
}

func (sp *Spot) fallbackResult(locale string, n NormalizedOfferResult, err error) SpotResult {
	c := sp.session.client
	c.metrics.IncrementFallbacks(n.Reason)

	attrs := []any{
		slog.String("spot", sp.id),
		slog.String("visitor", sp.session.key),
		slog.String("reason", n.Reason),
	}
	if err != nil && !errors.Is(err, ErrTimeout) {
		attrs = append(attrs, "error", err)
	}
	if len(n.Messages) > 0 {
		attrs = append(attrs, slog.Any("messages", n.Messages))
	}
	c.log.Info("showing fallback offer", attrs...)

	offer := sp.fallback.Offer(locale)
	return SpotResult{
		Offer:      offer,
		Display:    offer.Display(),
		Source:     SourceFallback,
		Reason:     n.Reason,
		Normalized: n,
	}
}
