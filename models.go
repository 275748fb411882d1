package interact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
)

// Batch status codes returned by the server.
const (
	StatusSuccess  = 0
	StatusWarning  = 1
	StatusNoOffers = 2
)

type MessageLevel int

const (
	MessageInfo MessageLevel = iota
	MessageWarning
	MessageError
)

// AdvisoryMessage is a diagnostic returned next to a response.
type AdvisoryMessage struct {
	Level   MessageLevel `json:"msgLevel"`
	Message string       `json:"msg"`
	Detail  string       `json:"detailMsg"`
	Code    flexString   `json:"msgCode"`
}

// OfferList holds the offers returned for one interaction point.
type OfferList struct {
	InteractionPoint string  `json:"ip"`
	DefaultString    string  `json:"defaultString"`
	Offers           []Offer `json:"offers"`
}

// Response is the result of one command of a batch.
type Response struct {
	SessionID  string            `json:"sessionId,omitempty"`
	StatusCode int               `json:"statusCode"`
	OfferLists []OfferList       `json:"offerLists"`
	Profile    []NameValuePair   `json:"profile"`
	Version    string            `json:"version,omitempty"`
	Messages   []AdvisoryMessage `json:"messages"`
}

// UnmarshalJSON accepts both "offerLists" and "offerList", and both
// "messages" and "advisoryMessages". Missing arrays decode as empty.
func (r *Response) UnmarshalJSON(data []byte) error {
	var aux struct {
		SessionID        string            `json:"sessionId"`
		StatusCode       flexInt           `json:"statusCode"`
		OfferLists       []OfferList       `json:"offerLists"`
		OfferList        []OfferList       `json:"offerList"`
		Profile          []NameValuePair   `json:"profile"`
		Version          flexString        `json:"version"`
		Messages         []AdvisoryMessage `json:"messages"`
		AdvisoryMessages []AdvisoryMessage `json:"advisoryMessages"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.SessionID = aux.SessionID
	r.StatusCode = int(aux.StatusCode)
	r.Version = string(aux.Version)

	r.OfferLists = aux.OfferLists
	if len(r.OfferLists) == 0 {
		r.OfferLists = aux.OfferList
	}
	if r.OfferLists == nil {
		r.OfferLists = []OfferList{}
	}

	r.Messages = aux.Messages
	if len(r.Messages) == 0 {
		r.Messages = aux.AdvisoryMessages
	}
	if r.Messages == nil {
		r.Messages = []AdvisoryMessage{}
	}

	r.Profile = make([]NameValuePair, 0, len(aux.Profile))
	for _, p := range aux.Profile {
		r.Profile = append(r.Profile, NewNameValuePair(p.Name, p.Value, p.Type))
	}
	return nil
}

// ProfileValue returns the profile entry with the given name, ignoring case.
func (r Response) ProfileValue(name string) (NameValuePair, bool) {
	return findPair(r.Profile, name)
}

// ServerVersion parses the version string reported by the server.
func (r Response) ServerVersion() (semver.Version, error) {
	if r.Version == "" {
		return semver.Version{}, fmt.Errorf("response carries no version")
	}
	// Interact reports four part versions ("12.1.0.3"); the build number is dropped.
	v := r.Version
	if parts := strings.SplitN(v, ".", 4); len(parts) == 4 {
		v = strings.Join(parts[:3], ".")
	}
	return semver.ParseTolerant(v)
}

// HasOffers reports whether any offer list of the response holds an offer.
func (r Response) HasOffers() bool {
	for _, l := range r.OfferLists {
		if len(l.Offers) > 0 {
			return true
		}
	}
	return false
}

// BatchResponse is the result of a batch: one Response per command. A
// non-zero BatchStatusCode means at least one command failed and Responses
// are only good for diagnostics.
type BatchResponse struct {
	BatchStatusCode int        `json:"batchStatusCode"`
	Responses       []Response `json:"responses"`
}

func (b *BatchResponse) UnmarshalJSON(data []byte) error {
	var aux struct {
		BatchStatusCode flexInt    `json:"batchStatusCode"`
		Responses       []Response `json:"responses"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.BatchStatusCode = int(aux.BatchStatusCode)
	b.Responses = aux.Responses
	if b.Responses == nil {
		b.Responses = []Response{}
	}
	return nil
}

// Result is a decoded server reply. Exactly one of Batch and Response is set.
type Result struct {
	Batch    *BatchResponse
	Response *Response
	Body     []byte
}

// DecodeResult decodes a raw server body, dispatching on the presence of
// "batchStatusCode". An empty or null body yields a nil Result.
func DecodeResult(body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var probe struct {
		BatchStatusCode json.RawMessage `json:"batchStatusCode"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}

	res := &Result{Body: body}
	if probe.BatchStatusCode != nil {
		res.Batch = new(BatchResponse)
		if err := json.Unmarshal(trimmed, res.Batch); err != nil {
			return nil, err
		}
		return res, nil
	}

	res.Response = new(Response)
	if err := json.Unmarshal(trimmed, res.Response); err != nil {
		return nil, err
	}
	return res, nil
}

// IsBatch reports whether the server answered with a batch envelope.
func (r *Result) IsBatch() bool {
	return r != nil && r.Batch != nil
}

// StatusCode is the batch status code, or the status code of a single response.
func (r *Result) StatusCode() int {
	switch {
	case r == nil:
		return 0
	case r.Batch != nil:
		return r.Batch.BatchStatusCode
	case r.Response != nil:
		return r.Response.StatusCode
	}
	return 0
}

// Responses returns every per-command response in order.
func (r *Result) Responses() []Response {
	switch {
	case r == nil:
		return nil
	case r.Batch != nil:
		return r.Batch.Responses
	case r.Response != nil:
		return []Response{*r.Response}
	}
	return nil
}

// SessionIDs returns every non-empty session id found in the responses.
func (r *Result) SessionIDs() []string {
	var ids []string
	for _, resp := range r.Responses() {
		if resp.SessionID != "" {
			ids = append(ids, resp.SessionID)
		}
	}
	return ids
}

// Messages returns the advisory messages of all responses.
func (r *Result) Messages() []AdvisoryMessage {
	var msgs []AdvisoryMessage
	for _, resp := range r.Responses() {
		msgs = append(msgs, resp.Messages...)
	}
	return msgs
}

// flexString decodes a JSON string, number, or array (first element).
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case '[':
		var v []flexString
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = ""
		if len(v) > 0 {
			*s = v[0]
		}
	default:
		*s = flexString(data)
	}
	return nil
}

// flexInt decodes a JSON number or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}

	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*i = 0
			return nil
		}
	} else {
		s = string(data)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid status code %q", s)
	}
	*i = flexInt(f)
	return nil
}
