package interact

// Action is one command of a batch in the form the server accepts.
type Action interface {
	ActionName() string
}

const (
	actionStartSession = "startSession"
	actionGetOffers    = "getOffers"
	actionPostEvent    = "postEvent"
	actionSetAudience  = "setAudience"
	actionGetProfile   = "getProfile"
	actionGetVersion   = "getVersion"
	actionEndSession   = "endSession"
	actionSetDebug     = "setDebug"
)

type StartSessionAction struct {
	Name                  string          `json:"action"`
	InteractiveChannel    string          `json:"ic"`
	AudienceID            []NameValuePair `json:"audienceID"`
	AudienceLevel         string          `json:"audienceLevel"`
	RelyOnExistingSession bool            `json:"relyOnExistingSession"`
	Debug                 bool            `json:"debug"`
	Parameters            []NameValuePair `json:"parameters"`
}

func (a StartSessionAction) ActionName() string { return a.Name }

type GetOffersAction struct {
	Name             string `json:"action"`
	InteractionPoint string `json:"ip"`
	NumberRequested  int    `json:"numberRequested"`
}

func (a GetOffersAction) ActionName() string { return a.Name }

type PostEventAction struct {
	Name  string          `json:"action"`
	Event string          `json:"event"`
	Data  []NameValuePair `json:"data"`
}

func (a PostEventAction) ActionName() string { return a.Name }

type SetAudienceAction struct {
	Name     string          `json:"action"`
	Audience []NameValuePair `json:"audience"`
	Level    string          `json:"level"`
	Data     []NameValuePair `json:"data"`
}

func (a SetAudienceAction) ActionName() string { return a.Name }

type SetDebugAction struct {
	Name  string `json:"action"`
	Debug bool   `json:"debug"`
}

func (a SetDebugAction) ActionName() string { return a.Name }

// SimpleAction is a command without arguments.
type SimpleAction struct {
	Name string `json:"action"`
}

func (a SimpleAction) ActionName() string { return a.Name }

// batchRequest is the body posted to the servlet.
type batchRequest struct {
	SessionID string   `json:"sessionId,omitempty"`
	Commands  []Action `json:"commands"`
}

// buildStartSessionAction starts a session. A logged-in user always starts at
// the customer level with the customer id; anyone else starts as a visitor
// with the given audience pairs.
func buildStartSessionAction(cfg Config, audience, params []NameValuePair, userID string) StartSessionAction {
	a := StartSessionAction{
		Name:                  actionStartSession,
		InteractiveChannel:    valueOr(cfg.InteractiveChannel, DefaultInteractiveChannel),
		RelyOnExistingSession: true,
		Debug:                 cfg.ServerDebug,
		Parameters:            nonNil(params),
	}
	if userID != "" {
		a.AudienceID = []NameValuePair{customerPair(cfg, userID)}
		a.AudienceLevel = cfg.CustomerLevel
		return a
	}

	if len(audience) == 0 {
		audience = ParseNameValuePairs(valueOr(cfg.VisitorAudienceID, DefaultVisitorAudienceID))
	}
	a.AudienceID = audience
	a.AudienceLevel = cfg.VisitorLevel
	return a
}

func buildGetOffersAction(interactionPoint string, maxOffers int) GetOffersAction {
	if maxOffers <= 0 {
		maxOffers = DefaultMaxOffers
	}
	return GetOffersAction{Name: actionGetOffers, InteractionPoint: interactionPoint, NumberRequested: maxOffers}
}

func buildPostEventAction(event string, data []NameValuePair) PostEventAction {
	return PostEventAction{Name: actionPostEvent, Event: event, Data: nonNil(data)}
}

// buildSetAudienceAction returns false when the command must be left out of
// the batch: an anonymous visitor's audience travels with startSession.
func buildSetAudienceAction(cfg Config, audience []NameValuePair, level string, data []NameValuePair, userID string) (SetAudienceAction, bool) {
	if userID == "" && level == cfg.VisitorLevel {
		return SetAudienceAction{}, false
	}
	return SetAudienceAction{
		Name:     actionSetAudience,
		Audience: nonNil(audience),
		Level:    valueOr(level, cfg.CustomerLevel),
		Data:     nonNil(data),
	}, true
}

// bootstrapActions returns the commands a plan requires ahead of an operation.
func bootstrapActions(cfg Config, plan SessionPlan, userID string) []Action {
	var actions []Action
	aud := plan.Audience

	switch {
	case plan.StartSession && plan.NewVisitor:
		params := ParseNameValuePairs(joinPairs(newVisitorAltID(cfg, aud), cfg.SessionVars))
		visitor := ParseNameValuePairs(cfg.VisitorAudienceID)
		actions = append(actions, buildStartSessionAction(cfg, visitor, params, userID))
		if a, ok := buildSetAudienceAction(cfg, aud.Pairs(), aud.Level, nil, userID); ok {
			actions = append(actions, a)
		}
		if cfg.IDManagement {
			actions = append(actions, SimpleAction{Name: actionGetProfile})
		}

	case plan.StartSession:
		actions = append(actions, buildStartSessionAction(cfg, aud.Pairs(), ParseNameValuePairs(cfg.SessionVars), userID))

	case plan.SetAudience:
		var data []NameValuePair
		if cfg.PrevAudIDVar != "" {
			data = []NameValuePair{NewNameValuePair(cfg.PrevAudIDVar, formatAudienceID(plan.PrevAudienceID), TypeString)}
		}
		if a, ok := buildSetAudienceAction(cfg, aud.Pairs(), aud.Level, data, userID); ok {
			actions = append(actions, a)
		}
		if cfg.IDManagement {
			actions = append(actions, SimpleAction{Name: actionGetProfile})
		}
	}
	return actions
}

// newVisitorAltID passes the first time visitor id as a profile variable.
func newVisitorAltID(cfg Config, aud Audience) string {
	if cfg.VisitorAltIDVar == "" {
		return ""
	}
	return cfg.VisitorAltIDVar + "," + aud.field(1) + "," + aud.field(2)
}

func joinPairs(parts ...string) string {
	joined := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if joined != "" {
			joined += ";"
		}
		joined += p
	}
	return joined
}

func nonNil(pairs []NameValuePair) []NameValuePair {
	if pairs == nil {
		return []NameValuePair{}
	}
	return pairs
}
