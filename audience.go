package interact

import (
	"net/url"
	"strconv"
	"strings"
)

// Audience is the identity the server decides for: an id in
// "KeyName,KeyValue,ValueType" form and an audience level name.
type Audience struct {
	ID    string
	Level string
}

// Key returns the audience key name, e.g. "VisitorID".
func (a Audience) Key() string {
	return audienceKey(a.ID)
}

// Pairs returns the audience id as name/value pairs.
func (a Audience) Pairs() []NameValuePair {
	return ParseNameValuePairs(a.ID)
}

// field returns the i-th comma separated field of the audience id.
func (a Audience) field(i int) string {
	fields := strings.Split(a.ID, ",")
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// VisitorAudience returns the anonymous audience for a visitor id.
func VisitorAudience(cfg Config, visitorID string) Audience {
	key := audienceKey(cfg.VisitorAudienceID)
	return Audience{ID: key + "," + visitorID + "," + string(TypeString), Level: cfg.VisitorLevel}
}

// CustomerAudience returns the identified audience for a customer id.
func CustomerAudience(cfg Config, customerID string) Audience {
	return Audience{
		ID:    cfg.CustomerAudience + "," + customerID + "," + string(cfg.CustomerAudienceType),
		Level: cfg.CustomerLevel,
	}
}

// ResolveAudience picks the audience for a page request: a logged-in user is
// a customer; a "utm_email" query value is a visitor; an "id" query value is a
// customer; otherwise the audience persisted with the session is reused, and
// a first visit gets the default visitor audience.
func ResolveAudience(cfg Config, userID string, query url.Values, persistedAudID string) Audience {
	switch {
	case userID != "":
		return CustomerAudience(cfg, userID)
	case query.Has("utm_email"):
		return VisitorAudience(cfg, valueOr(query.Get("utm_email"), "0"))
	case query.Has("id"):
		return CustomerAudience(cfg, valueOr(query.Get("id"), "0"))
	case persistedAudID == "":
		return Audience{ID: cfg.VisitorAudienceID, Level: cfg.VisitorLevel}
	}

	id := restoreAudienceID(persistedAudID)
	level := cfg.VisitorLevel
	if strings.Contains(id, cfg.CustomerAudience) {
		level = cfg.CustomerLevel
	}
	return Audience{ID: id, Level: level}
}

// customerPair is the audience pair forced on startSession for a logged-in
// user. Ids that are not numbers are sent as strings.
func customerPair(cfg Config, userID string) NameValuePair {
	if cfg.CustomerAudienceType == TypeNumeric {
		if f, err := strconv.ParseFloat(userID, 64); err == nil {
			return NewNameValuePair(cfg.CustomerAudience, f, TypeNumeric)
		}
		return NewNameValuePair(cfg.CustomerAudience, userID, TypeString)
	}
	return NewNameValuePair(cfg.CustomerAudience, userID, cfg.CustomerAudienceType)
}

func audienceKey(id string) string {
	key, _, _ := strings.Cut(id, ",")
	return key
}

// formatAudienceID is the persisted form of an audience id.
func formatAudienceID(id string) string {
	return strings.ReplaceAll(id, ",", "|")
}

func restoreAudienceID(s string) string {
	return strings.ReplaceAll(s, "|", ",")
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
