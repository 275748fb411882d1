package interact

import (
	"time"
)

// SessionState is what the client persists per visitor between calls.
type SessionState struct {
	// SessionID is the server-issued id sent with every batch ("sessionId").
	SessionID string
	// SSID mirrors SessionID for the inactivity check ("ssId").
	SSID string
	// Timestamp is the last successful activity ("ssTs").
	Timestamp time.Time
	// AudienceID is the current audience id with '|' separators ("audId").
	AudienceID string

	// Token is the session continuation token ("m_tokenId").
	Token        string
	TokenExpires time.Time
}

// tokenValid reports whether the continuation token can be sent at now.
func (s SessionState) tokenValid(now time.Time) bool {
	return s.Token != "" && now.Before(s.TokenExpires)
}

// clearSession drops the session keys, leaving the audience in place.
func (s *SessionState) clearSession() {
	s.SessionID = ""
	s.SSID = ""
	s.Timestamp = time.Time{}
}

// SessionPlan is the decision taken before an operation: which bootstrap
// commands must precede it and on behalf of which audience.
type SessionPlan struct {
	StartSession bool
	SetAudience  bool
	NewVisitor   bool
	// Expired is set when a stored session ran past the inactivity window.
	Expired bool
	// PrevAudienceID is the audience being replaced by SetAudience.
	PrevAudienceID string
	// Audience is the effective audience. It differs from the requested one
	// when a customer session is kept for a visitor request.
	Audience Audience
}

// checkSession decides, from the requested audience and the stored state,
// whether a session must be started or the audience switched. It performs no
// I/O: the updated state is returned for the caller to persist.
func checkSession(cfg Config, aud Audience, state SessionState, now time.Time) (SessionPlan, SessionState, error) {
	plan := SessionPlan{Audience: aud}
	if aud.ID == "" {
		return plan, state, ErrMissingAudience
	}

	formatted := formatAudienceID(aud.ID)
	switch {
	case state.AudienceID == "":
		state.AudienceID = formatted
		plan.StartSession = true
		plan.NewVisitor = aud.Level == cfg.VisitorLevel

	case restoreAudienceID(state.AudienceID) != aud.ID:
		restored := restoreAudienceID(state.AudienceID)
		visitorKey := audienceKey(cfg.VisitorAudienceID)
		if aud.Key() == visitorKey && audienceKey(restored) != visitorKey {
			// A visitor request on a customer session keeps the customer.
			plan.Audience = Audience{ID: restored, Level: cfg.CustomerLevel}
		} else {
			plan.SetAudience = true
			plan.PrevAudienceID = restored
			state.AudienceID = formatted
		}
	}

	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if state.SSID == "" || (!state.Timestamp.IsZero() && now.Sub(state.Timestamp) > timeout) {
		plan.Expired = state.SSID != ""
		plan.StartSession = true
		state.clearSession()
	} else {
		state.Timestamp = now
	}

	return plan, state, nil
}
