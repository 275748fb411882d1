package interact

import (
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

type Option func(c *Client)

var _ = []Option{
	WithConfig(Config{}),
	WithSessionTimeout(0),
	WithRequestTimeout(0),
	WithInteractiveChannel(""),
	WithAudienceLevels("", ""),
	WithVisitorAudience("", ""),
	WithCustomerAudience("", TypeNumeric),
	WithSessionVars(""),
	WithPreviousAudienceVar(""),
	WithIDManagement(),
	WithEvents("", ""),
	WithDebug(),
	WithServerDebug(true),
	WithCredentials("", ""),
	WithCustomHeaders(nil),
}

// WithConfig replaces the whole configuration. Zero fields fall back to
// DefaultConfig. Options given after it still apply.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithSessionTimeout sets the inactivity window after which a new session
// is started.
func WithSessionTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.SessionTimeout = timeout
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.RequestTimeout = timeout
	}
}

func WithInteractiveChannel(name string) Option {
	return func(c *Client) {
		c.config.InteractiveChannel = name
	}
}

func WithAudienceLevels(visitor, customer string) Option {
	return func(c *Client) {
		c.config.VisitorLevel = visitor
		c.config.CustomerLevel = customer
	}
}

// WithVisitorAudience sets the predefined audience of first time visitors
// and the profile variable receiving their alternate id.
func WithVisitorAudience(audienceID, altIDVar string) Option {
	return func(c *Client) {
		c.config.VisitorAudienceID = audienceID
		c.config.VisitorAltIDVar = altIDVar
	}
}

func WithCustomerAudience(name string, typ ValueType) Option {
	return func(c *Client) {
		c.config.CustomerAudience = name
		c.config.CustomerAudienceType = typ
	}
}

// WithSessionVars sets the "name,value,type;..." parameters of startSession.
func WithSessionVars(vars string) Option {
	return func(c *Client) {
		c.config.SessionVars = vars
	}
}

func WithPreviousAudienceVar(name string) Option {
	return func(c *Client) {
		c.config.PrevAudIDVar = name
	}
}

func WithIDManagement() Option {
	return func(c *Client) {
		c.config.IDManagement = true
	}
}

func WithEvents(accept, contact string) Option {
	return func(c *Client) {
		c.config.AcceptEvent = accept
		c.config.ContactEvent = contact
	}
}

// WithDebug logs outgoing payloads and raw responses at debug level.
func WithDebug() Option {
	return func(c *Client) {
		c.config.Debug = true
	}
}

// WithServerDebug sets the debug flag sent on startSession.
func WithServerDebug(enabled bool) Option {
	return func(c *Client) {
		c.config.ServerDebug = enabled
	}
}

// WithCredentials sets the user name and password sent when no session
// token is held.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.config.Username = username
		c.config.Password = password
	}
}

func WithCustomHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if c.client == nil {
			c.client = resty.New()
		}
		c.client.SetHeaders(headers)
	}
}

// WithRestyClient sets the resty client used for requests. A timeout is
// applied when the client has none.
func WithRestyClient(client *resty.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithSessionStore sets where session state is kept. An in-memory store is
// used otherwise.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithIdentityProvider sets the source of the logged-in user id.
func WithIdentityProvider(provider IdentityProvider) Option {
	return func(c *Client) {
		c.identity = provider
	}
}

func WithMetrics(registry MetricsRegistry) Option {
	return func(c *Client) {
		c.metrics = registry
	}
}
