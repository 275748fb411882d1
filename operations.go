package interact

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// SpotConfig describes what an offer slot asks of the server.
type SpotConfig struct {
	// InteractionPoint defaults to the spot id.
	InteractionPoint string
	Event            string
	// EventVars are the event parameters in "name,value,type;..." form.
	EventVars string
	MaxOffers int

	// RenderFunc, when set, is called with the result of a successful call.
	RenderFunc func(spotID string, res *Result)
	// ErrorFunc, when set, is called with the error of a failed call.
	ErrorFunc func(err error)
}

func (sc SpotConfig) interactionPoint(spotID string) string {
	return valueOr(sc.InteractionPoint, spotID)
}

func (sc SpotConfig) done(spotID string, res *Result, err error) {
	if err != nil {
		if sc.ErrorFunc != nil {
			sc.ErrorFunc(err)
		}
		return
	}
	if sc.RenderFunc != nil {
		sc.RenderFunc(spotID, res)
	}
}

// GetOffers asks for the offers of the spot's interaction point. A session is
// started first when none is held. The call never posts an event.
func (s *Session) GetOffers(ctx context.Context, spotID string, aud Audience, spot SpotConfig) (*Result, error) {
	b, release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := b.check(aud); err != nil {
		return nil, err
	}
	if b.state.SessionID == "" {
		b.bootstrap()
	}
	b.add(buildGetOffersAction(spot.interactionPoint(spotID), spot.MaxOffers))

	res, err := b.submit(ctx, "getOffers", false)
	spot.done(spotID, res, err)
	return res, err
}

// PostEvent posts the spot's event, preceded by whatever the session check
// requires.
func (s *Session) PostEvent(ctx context.Context, spotID string, aud Audience, spot SpotConfig) (*Result, error) {
	b, release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := b.check(aud); err != nil {
		return nil, err
	}
	b.bootstrap()
	b.add(buildPostEventAction(spot.Event, ParseNameValuePairs(spot.EventVars)))

	res, err := b.submit(ctx, "postEvent", false)
	if err == nil && s.client.config.IDManagement {
		b.switchToProfileAudience(ctx, res)
	}
	spot.done(spotID, res, err)
	return res, err
}

// PostEventAndGetOffers posts the spot's event and asks for offers in the
// same batch. The response handed to RenderFunc is the first one carrying
// offers, or the last one when none does. A failed batch is rendered and
// returned whole so its status stays visible.
func (s *Session) PostEventAndGetOffers(ctx context.Context, spotID string, aud Audience, spot SpotConfig) (*Result, error) {
	b, release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := b.check(aud); err != nil {
		return nil, err
	}
	b.bootstrap()
	b.add(
		buildPostEventAction(spot.Event, ParseNameValuePairs(spot.EventVars)),
		buildGetOffersAction(spot.interactionPoint(spotID), spot.MaxOffers),
	)

	res, err := b.submit(ctx, "postEventAndGetOffers", false)
	if err != nil {
		spot.done(spotID, nil, err)
		return nil, err
	}
	rendered := res
	if !res.IsBatch() || res.StatusCode() == 0 {
		if selected := selectOfferResponse(res); selected != nil {
			rendered = &Result{Response: selected, Body: res.Body}
		}
	}
	spot.done(spotID, rendered, nil)
	return res, nil
}

// PostAccept records that the visitor accepted an offer. The treatment code
// is sent as the tracking code parameter unless it is already a list of
// "name,value,type" pairs.
func (s *Session) PostAccept(ctx context.Context, treatmentCode string) (*Result, error) {
	b, release, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	cfg := s.client.config
	if err := b.check(ResolveAudience(cfg, b.userID, nil, b.state.AudienceID)); err != nil {
		return nil, err
	}
	b.bootstrap()
	b.add(buildPostEventAction(cfg.AcceptEvent, trackingParams(treatmentCode)))
	return b.submit(ctx, "postAccept", false)
}

// PostPresentEvent records that an offer was shown. It needs a live session.
func (s *Session) PostPresentEvent(ctx context.Context, trackingCode string) (*Result, error) {
	b, release, err := s.requireSession(ctx, "postPresentEvent")
	if err != nil {
		return nil, err
	}
	defer release()

	b.add(buildPostEventAction(s.client.config.ContactEvent, trackingParams(trackingCode)))
	return b.submit(ctx, "postPresentEvent", false)
}

// GetProfile returns the profile of the current session.
func (s *Session) GetProfile(ctx context.Context) (*Response, error) {
	b, release, err := s.requireSession(ctx, "getProfile")
	if err != nil {
		return nil, err
	}
	defer release()

	b.add(SimpleAction{Name: actionGetProfile})
	res, err := b.submit(ctx, "getProfile", false)
	if err != nil {
		return nil, err
	}
	return firstResponse(res), nil
}

// SetDebug toggles server side logging for the current session.
func (s *Session) SetDebug(ctx context.Context, debug bool) (*Result, error) {
	b, release, err := s.requireSession(ctx, "setDebug")
	if err != nil {
		return nil, err
	}
	defer release()

	b.add(SetDebugAction{Name: actionSetDebug, Debug: debug})
	return b.submit(ctx, "setDebug", false)
}

// EndSession closes the session on the server and forgets it locally, even
// when the server call fails. The audience is kept.
func (s *Session) EndSession(ctx context.Context) (*Result, error) {
	b, release, err := s.requireSession(ctx, "endSession")
	if err != nil {
		return nil, err
	}
	defer release()

	b.add(SimpleAction{Name: actionEndSession})
	res, err := b.submit(ctx, "endSession", true)

	b.state.clearSession()
	b.state.Token = ""
	b.state.TokenExpires = time.Time{}
	b.save(ctx, s.client.log)
	return res, err
}

// PersistedAudienceID returns the audience id stored with the session, in
// "KeyName,KeyValue,ValueType" form.
func (s *Session) PersistedAudienceID(ctx context.Context) (string, error) {
	state, err := s.client.store.Load(ctx, s.key)
	if err != nil {
		return "", err
	}
	return restoreAudienceID(state.AudienceID), nil
}

func (s *Session) requireSession(ctx context.Context, op string) (*batch, func(), error) {
	b, release, err := s.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	if b.state.SessionID == "" {
		release()
		s.client.log.Warn("no interact session to run the operation on",
			slog.String("operation", op),
			slog.String("visitor", s.key),
		)
		return nil, nil, ErrNoSession
	}
	return b, release, nil
}

// switchToProfileAudience moves the session to the customer audience found
// in the profile returned by the last batch.
func (b *batch) switchToProfileAudience(ctx context.Context, res *Result) {
	cfg := b.session.client.config
	var customerID string
	for _, r := range res.Responses() {
		if p, ok := r.ProfileValue(cfg.CustomerAudience); ok && len(p.String()) > 1 {
			customerID = p.String()
			break
		}
	}
	if customerID == "" {
		return
	}

	aud := CustomerAudience(cfg, customerID)
	if formatAudienceID(aud.ID) == b.state.AudienceID {
		return
	}
	a, ok := buildSetAudienceAction(cfg, aud.Pairs(), aud.Level, nil, b.userID)
	if !ok {
		return
	}
	b.plan = SessionPlan{Audience: aud}
	b.state.AudienceID = formatAudienceID(aud.ID)
	b.add(a)
	if _, err := b.submit(ctx, "setAudience", false); err != nil {
		b.session.client.log.Warn("audience switch from profile failed",
			slog.String("visitor", b.session.key),
			"error", err,
		)
	}
}

// selectOfferResponse picks the first response carrying offers, else the last.
func selectOfferResponse(res *Result) *Response {
	responses := res.Responses()
	if len(responses) == 0 {
		return nil
	}
	for i := range responses {
		if responses[i].HasOffers() {
			return &responses[i]
		}
	}
	return &responses[len(responses)-1]
}

func trackingParams(code string) []NameValuePair {
	if strings.Contains(code, ",") {
		return ParseNameValuePairs(code)
	}
	return []NameValuePair{NewNameValuePair(TrackingCodeParam, code, TypeString)}
}

// Reset forgets everything stored for the visitor, audience included. The
// next operation starts over as a first visit.
func (s *Session) Reset(ctx context.Context) error {
	release := s.client.locks.lock(s.key)
	defer release()
	return s.client.store.Delete(ctx, s.key)
}
