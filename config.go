package interact

import (
	"strings"
	"time"
)

const (
	// Number of seconds to wait for a request to
	// complete before terminating the request.
	DefaultRequestTimeout = 10 * time.Second

	// Inactivity window after which a new session is started.
	DefaultSessionTimeout = 30 * time.Minute

	// How long a spot waits for personalization before showing the fallback.
	DefaultSpotTimeout = 10 * time.Second

	// Lifetime of the session continuation token returned by the server.
	TokenTTL = 15 * time.Minute

	DefaultInteractiveChannel = "Banking Web Site"
	DefaultVisitorLevel       = "Visitor"
	DefaultCustomerLevel      = "Customer"
	DefaultVisitorAudienceID  = "VisitorID,0,string"
	DefaultCustomerAudience   = "CustomerID"
	DefaultVisitorAltIDVar    = "AlternateID"
	DefaultSessionVars        = "UACIWaitForSegmentation,true,string"
	DefaultAcceptEvent        = "accept"
	DefaultContactEvent       = "contact"
	DefaultMaxOffers          = 1

	// Parameter carrying the treatment or tracking code of an offer.
	TrackingCodeParam = "UACIOfferTrackingCode"
)

// Config holds everything a Client needs to talk to an Interact server.
// A Config is read-only once the client is built.
type Config struct {
	ServerURL string

	// Interactive channel name sent on startSession.
	InteractiveChannel string

	VisitorLevel  string
	CustomerLevel string

	// Predefined audience used to start a session for a first time visitor.
	VisitorAudienceID string
	// Profile variable receiving the first time visitor id on session start.
	VisitorAltIDVar string

	CustomerAudience     string
	CustomerAudienceType ValueType

	// Session variables sent on startSession, in "name,value,type;..." form.
	SessionVars string
	// Event parameter receiving the previous audience id on an audience switch.
	PrevAudIDVar string

	AcceptEvent  string
	ContactEvent string

	SessionTimeout time.Duration
	RequestTimeout time.Duration

	// ServerDebug is sent as the debug flag of startSession.
	ServerDebug bool
	// Debug logs outgoing payloads and raw responses.
	Debug bool
	// IDManagement requests the profile after session bootstrap and switches
	// to the customer audience found in it.
	IDManagement bool

	Username string
	Password string
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	return Config{
		InteractiveChannel:   DefaultInteractiveChannel,
		VisitorLevel:         DefaultVisitorLevel,
		CustomerLevel:        DefaultCustomerLevel,
		VisitorAudienceID:    DefaultVisitorAudienceID,
		VisitorAltIDVar:      DefaultVisitorAltIDVar,
		CustomerAudience:     DefaultCustomerAudience,
		CustomerAudienceType: TypeNumeric,
		SessionVars:          DefaultSessionVars,
		AcceptEvent:          DefaultAcceptEvent,
		ContactEvent:         DefaultContactEvent,
		SessionTimeout:       DefaultSessionTimeout,
		RequestTimeout:       DefaultRequestTimeout,
		ServerDebug:          true,
	}
}

// withDefaults fills the zero fields of c from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.InteractiveChannel == "" {
		c.InteractiveChannel = d.InteractiveChannel
	}
	if c.VisitorLevel == "" {
		c.VisitorLevel = d.VisitorLevel
	}
	if c.CustomerLevel == "" {
		c.CustomerLevel = d.CustomerLevel
	}
	if c.VisitorAudienceID == "" {
		c.VisitorAudienceID = d.VisitorAudienceID
	}
	if c.CustomerAudience == "" {
		c.CustomerAudience = d.CustomerAudience
	}
	if c.CustomerAudienceType == "" {
		c.CustomerAudienceType = d.CustomerAudienceType
	}
	if c.AcceptEvent == "" {
		c.AcceptEvent = d.AcceptEvent
	}
	if c.ContactEvent == "" {
		c.ContactEvent = d.ContactEvent
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = d.SessionTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}
