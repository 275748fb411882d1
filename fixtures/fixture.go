package fixtures

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const ServletPath = "/servlet/RestServlet"
const SessionID = "abc123"
const InteractionPoint = "ipMortgage"
const OfferName = "Mortgage Rate Cut"
const OfferCode = "MORT-01"
const TreatmentCode = "TC-9001"
const Token = "tok-1"

// SessionOffersJson answers a startSession + getOffers batch.
const SessionOffersJson = `
{
	"batchStatusCode": 0,
	"responses": [
		{
			"sessionId": "abc123",
			"statusCode": 0,
			"offerLists": [],
			"messages": [],
			"profile": []
		},
		{
			"sessionId": "abc123",
			"statusCode": 0,
			"offerLists": [{
				"ip": "ipMortgage",
				"defaultString": "",
				"offers": [{
					"n": "Mortgage Rate Cut",
					"code": ["MORT-01"],
					"treatmentCode": "TC-9001",
					"score": 80,
					"desc": "Lower your rate",
					"attributes": [
						{"n": "offer_title", "v": "Switch and save", "t": "string"},
						{"n": "AbsoluteBannerURL", "v": "https://cdn.example.com/mortgage.jpg", "t": "string"},
						{"n": "offer_cta", "v": "Apply now", "t": "string"}
					]
				}]
			}],
			"messages": []
		}
	]
}
`

// OffersJson answers a getOffers batch on a running session.
const OffersJson = `
{
	"batchStatusCode": 0,
	"responses": [{
		"sessionId": "abc123",
		"statusCode": 0,
		"offerLists": [{
			"ip": "ipMortgage",
			"offers": [{"n": "Mortgage Rate Cut", "code": "MORT-01", "treatmentCode": "TC-9001", "score": 80}]
		}]
	}]
}
`

// SingleOfferListJson is a bare response using the singular "offerList".
const SingleOfferListJson = `
{
	"sessionId": "abc123",
	"statusCode": 0,
	"offerList": [{
		"ip": "ipMortgage",
		"offers": [{"n": "Mortgage Rate Cut", "code": ["MORT-01", "MORT-02"], "treatmentCode": "TC-9001"}]
	}]
}
`

const EmptyOffersJson = `
{
	"batchStatusCode": 0,
	"responses": [{
		"sessionId": "abc123",
		"statusCode": 0,
		"offerLists": [{"ip": "ipMortgage", "offers": []}]
	}]
}
`

const BatchNoOffersJson = `
{
	"batchStatusCode": 2,
	"responses": [{
		"sessionId": "abc123",
		"statusCode": 2,
		"messages": [{"msgLevel": 1, "msg": "No offers for interaction point", "detailMsg": "", "msgCode": 18}]
	}]
}
`

const BatchErrorJson = `
{
	"batchStatusCode": 1,
	"responses": [{
		"statusCode": 1,
		"messages": [{"msgLevel": 2, "msg": "Invalid audience level", "detailMsg": "Visitorz", "msgCode": "5"}]
	}]
}
`

const EventJson = `
{
	"batchStatusCode": 0,
	"responses": [{"sessionId": "abc123", "statusCode": 0}]
}
`

// ProfileCustomerJson answers a postEvent whose session profile holds a
// customer id.
const ProfileCustomerJson = `
{
	"batchStatusCode": 0,
	"responses": [
		{"sessionId": "abc123", "statusCode": 0},
		{
			"sessionId": "abc123",
			"statusCode": 0,
			"profile": [
				{"n": "CustomerID", "v": 1001, "t": "numeric"},
				{"n": "Segment", "v": "Gold", "t": "string"}
			]
		}
	]
}
`

const VersionJson = `
{"statusCode": 0, "version": "12.1.0.3"}
`

// Reply is one canned answer of the fake server.
type Reply struct {
	Status int
	Body   string
	// Token is returned in the m_tokenId header when set.
	Token string
	Delay time.Duration
}

func OK(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Request is a request received by the fake server.
type Request struct {
	Path   string
	Header http.Header
	Raw    []byte
	Body   struct {
		SessionID *string          `json:"sessionId"`
		Commands  []map[string]any `json:"commands"`
	}
}

// Actions returns the action names of the batch in order.
func (r Request) Actions() []string {
	actions := make([]string, 0, len(r.Body.Commands))
	for _, c := range r.Body.Commands {
		name, _ := c["action"].(string)
		actions = append(actions, name)
	}
	return actions
}

// InteractServer is a fake Interact servlet answering replies in order and
// repeating the last one.
type InteractServer struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []Reply
	requests []Request
}

func NewInteractServer(t testing.TB, replies ...Reply) *InteractServer {
	s := &InteractServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *InteractServer) handle(rw http.ResponseWriter, req *http.Request) {
	raw, _ := io.ReadAll(req.Body)
	r := Request{Path: req.URL.Path, Header: req.Header.Clone(), Raw: raw}
	_ = json.Unmarshal(raw, &r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, r)
	reply := Reply{Status: http.StatusOK, Body: EventJson}
	if len(s.replies) > 0 {
		reply = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	s.mu.Unlock()

	if reply.Delay > 0 {
		time.Sleep(reply.Delay)
	}
	if reply.Token != "" {
		rw.Header().Set("m_tokenId", reply.Token)
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(reply.Status)
	_, _ = io.WriteString(rw, reply.Body)
}

// Requests returns what the server received so far.
func (s *InteractServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request.
func (s *InteractServer) Last() Request {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return Request{}
	}
	return reqs[len(reqs)-1]
}
