package interact

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to an Interact server on behalf of many visitors. Each
// visitor's session is addressed through Session.
type Client struct {
	config    Config
	client    *resty.Client
	transport *transport
	store     SessionStore
	identity  IdentityProvider
	metrics   MetricsRegistry
	log       *slog.Logger
	locks     keyedMutex
	now       func() time.Time
}

// NewClient creates a Client for the server at serverURL. Options are
// applied over DefaultConfig; a non-empty serverURL wins over one set by
// WithConfig.
func NewClient(serverURL string, options ...Option) *Client {
	c := &Client{
		config:  DefaultConfig(),
		store:   NewMemoryStore(),
		metrics: NoopRegistry{},
		log:     slog.Default(),
		now:     time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	if serverURL != "" {
		c.config.ServerURL = serverURL
	}
	c.config = c.config.withDefaults()
	c.log = c.log.With(slog.String("interact_server", c.config.ServerURL))

	if c.client == nil {
		c.client = resty.New()
		c.client.SetTimeout(c.config.RequestTimeout)
	} else if c.client.GetClient().Timeout == 0 {
		c.client.SetTimeout(c.config.RequestTimeout)
	}
	c.client.SetHeader("User-Agent", getUserAgent())
	c.client.SetLogger(restySlogLogger{c.log})
	c.client.OnBeforeRequest(newRestyLogRequestMiddleware(c.log))
	c.client.OnAfterResponse(newRestyLogResponseMiddleware(c.log))

	c.transport = &transport{
		client:   c.client,
		log:      c.log,
		debug:    c.config.Debug,
		username: c.config.Username,
		password: c.config.Password,
	}
	return c
}

// Config returns the configuration the client runs with.
func (c *Client) Config() Config {
	return c.config
}

// CurrentUserID resolves the logged-in user through the identity provider.
func (c *Client) CurrentUserID(ctx context.Context) string {
	if c.identity == nil {
		return ""
	}
	return strings.TrimSpace(c.identity.CurrentUserID(ctx))
}

// Session returns the handle for the visitor identified by key. Operations
// on the same key are serialized.
func (c *Client) Session(key string) *Session {
	return &Session{client: c, key: key}
}

// GetVersion asks the server for its version. It needs no session.
func (c *Client) GetVersion(ctx context.Context) (*Response, error) {
	if c.config.ServerURL == "" {
		c.log.Error("interact server URL is not configured")
		return nil, ErrMissingServerURL
	}
	b := &batch{session: c.Session(""), actions: []Action{SimpleAction{Name: actionGetVersion}}}
	res, err := b.submit(ctx, "getVersion", false)
	if err != nil {
		return nil, err
	}
	return firstResponse(res), nil
}

// Session is a visitor-bound view of the client.
type Session struct {
	client *Client
	key    string
}

// Key returns the visitor key the session is stored under.
func (s *Session) Key() string {
	return s.key
}

// State returns the stored state of the session.
func (s *Session) State(ctx context.Context) (SessionState, error) {
	return s.client.store.Load(ctx, s.key)
}

// batch is one operation in flight: the plan taken, the state being
// threaded through it and the commands queued for submission.
type batch struct {
	session *Session
	plan    SessionPlan
	state   SessionState
	userID  string
	actions []Action
	persist bool
}

// begin locks the visitor and loads its state. The returned release must be
// called once the batch is done.
func (s *Session) begin(ctx context.Context) (*batch, func(), error) {
	c := s.client
	if c.config.ServerURL == "" {
		c.log.Error("interact server URL is not configured")
		return nil, nil, ErrMissingServerURL
	}

	release := c.locks.lock(s.key)
	state, err := c.store.Load(ctx, s.key)
	if err != nil {
		release()
		return nil, nil, err
	}
	return &batch{session: s, state: state, userID: c.CurrentUserID(ctx), persist: true}, release, nil
}

// check runs the session check for aud over the loaded state.
func (b *batch) check(aud Audience) error {
	c := b.session.client
	plan, state, err := checkSession(c.config, aud, b.state, c.now())
	if err != nil {
		c.log.Error("interact audience id is not configured", slog.String("visitor", b.session.key))
		return err
	}
	if plan.Expired {
		c.log.Info("session expired, starting a new one", slog.String("visitor", b.session.key))
	}
	b.plan, b.state = plan, state
	return nil
}

func (b *batch) add(actions ...Action) {
	b.actions = append(b.actions, actions...)
}

// bootstrap queues the session start or audience switch the plan requires.
func (b *batch) bootstrap() {
	b.add(bootstrapActions(b.session.client.config, b.plan, b.userID)...)
}

// submit posts the queued commands as one batch. Session ids found in the
// reply become the current session. A non-zero batch status is logged with
// its advisory messages and the result is still returned.
func (b *batch) submit(ctx context.Context, op string, endSession bool) (*Result, error) {
	c := b.session.client
	log := c.log.With(slog.String("operation", op), slog.String("visitor", b.session.key))

	if b.persist {
		if err := c.store.Save(ctx, b.session.key, b.state); err != nil {
			return nil, err
		}
	}

	payload := batchRequest{SessionID: b.state.SessionID, Commands: b.actions}
	b.actions = nil

	reqCtx := withBatchInfo(ctx, batchInfo{operation: op, visitor: b.session.key, commands: len(payload.Commands)})
	began := time.Now()
	body, err := c.transport.post(reqCtx, c.config.ServerURL, payload, &b.state, endSession, c.now())
	c.metrics.RecordBatchLatency(op, time.Since(began))
	if err != nil {
		c.metrics.IncrementBatches(op, outcomeFailure)
		log.Warn("interact batch failed", "error", err)
		b.save(ctx, log)
		return nil, err
	}

	res, err := DecodeResult(body)
	if err != nil {
		c.metrics.IncrementBatches(op, outcomeFailure)
		log.Warn("could not decode interact response", "error", err)
		b.save(ctx, log)
		return nil, &TransportError{StatusCode: 200, Status: "200 OK", Body: string(body), Err: ErrMalformedResponse}
	}

	now := c.now()
	ids := res.SessionIDs()
	for _, id := range ids {
		b.state.SessionID = id
		b.state.SSID = id
		b.state.Timestamp = now
	}
	if len(ids) > 0 && b.plan.StartSession {
		c.metrics.IncrementSessionsStarted()
	}

	if res.IsBatch() && res.StatusCode() > 0 {
		c.metrics.IncrementBatches(op, outcomeBatchError)
		msgs := make([]string, 0)
		for _, m := range res.Messages() {
			msgs = append(msgs, m.Message)
		}
		log.Warn("interact call(s) failed",
			slog.Int("batch_status", res.StatusCode()),
			slog.Any("messages", msgs),
		)
	} else {
		c.metrics.IncrementBatches(op, outcomeSuccess)
	}

	b.save(ctx, log)
	return res, nil
}

func (b *batch) save(ctx context.Context, log *slog.Logger) {
	if !b.persist {
		return
	}
	if err := b.session.client.store.Save(ctx, b.session.key, b.state); err != nil {
		log.Error("failed to persist interact session", "error", err)
	}
}

func firstResponse(res *Result) *Response {
	responses := res.Responses()
	if len(responses) == 0 {
		return nil
	}
	r := responses[0]
	return &r
}
