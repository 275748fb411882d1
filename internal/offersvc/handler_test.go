package offersvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interact "github.com/telcoshop/interact-go-client"
	"github.com/telcoshop/interact-go-client/fixtures"
)

const testVisitor = "0f8fad5b-d9cb-469f-a165-70867728950e"

func newTestService(t *testing.T, server *fixtures.InteractServer, opts ...interact.Option) http.Handler {
	t.Helper()
	opts = append(opts, interact.WithIdentityProvider(interact.CustomerDataIdentity{}))
	client := interact.NewClient(server.URL, opts...)
	h := NewHandler(client, Options{MaxOffers: 1, SpotTimeout: time.Second}, nil)
	reg := prometheus.NewRegistry()
	return Router(h, NewHTTPMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func visitorCookie() *http.Cookie {
	return &http.Cookie{Name: VisitorCookie, Value: testVisitor}
}

func decodeOffer(t *testing.T, rec *httptest.ResponseRecorder) OfferResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var body OfferResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestOfferIsPersonalized(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson))
	svc := newTestService(t, server)

	rec := get(t, svc, "/v1/offers/"+fixtures.InteractionPoint, visitorCookie())

	body := decodeOffer(t, rec)
	assert.Equal(t, interact.SourcePersonalized, body.Source)
	assert.Equal(t, fixtures.InteractionPoint, body.InteractionPoint)
	assert.Equal(t, "Switch and save", body.Title)
	assert.Equal(t, fixtures.TreatmentCode, body.TreatmentCode)
	assert.Equal(t, []string{"startSession", "getOffers"}, server.Last().Actions())
	assert.Empty(t, rec.Result().Cookies(), "a known visitor keeps its cookie")
}

func TestOfferMintsAVisitorCookie(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson))
	svc := newTestService(t, server)

	rec := get(t, svc, "/v1/offers/"+fixtures.InteractionPoint)

	decodeOffer(t, rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookie, cookies[0].Name)
	assert.Len(t, cookies[0].Value, 36)
	assert.True(t, cookies[0].HttpOnly)
}

func TestOfferFallsBackInTheRequestedLocale(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.Reply{Status: http.StatusServiceUnavailable, Body: "down"})
	fallback, err := interact.NewFallbackCatalog("en", map[string]interact.FallbackStrings{
		"en": {Title: "Special offer"},
		"fr": {Title: "Offre spéciale"},
	})
	require.NoError(t, err)
	client := interact.NewClient(server.URL)
	svc := Router(NewHandler(client, Options{Fallback: fallback}, nil), nil, nil)

	body := decodeOffer(t, get(t, svc, "/v1/offers/ipHome?locale=fr", visitorCookie()))
	assert.Equal(t, interact.SourceFallback, body.Source)
	assert.Equal(t, interact.ReasonTransport, body.Reason)
	assert.Equal(t, "Offre spéciale", body.Title)
	assert.Equal(t, interact.FallbackOfferCode, body.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/offers/ipHome", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
	req.AddCookie(visitorCookie())
	rec := httptest.NewRecorder()
	svc.ServeHTTP(rec, req)
	assert.Equal(t, "Offre spéciale", decodeOffer(t, rec).Title)
}

func TestOfferForALoggedInCustomer(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson))
	svc := newTestService(t, server)
	record := url.QueryEscape(`{"loginData":{"id":"1001"}}`)

	get(t, svc, "/v1/offers/"+fixtures.InteractionPoint, visitorCookie(), &http.Cookie{Name: "telco_customer_data", Value: record})

	start := server.Last().Body.Commands[0]
	assert.Equal(t, "startSession", start["action"])
	assert.Equal(t, "Customer", start["audienceLevel"])
}

func TestOfferAudienceFromQuery(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson))
	svc := newTestService(t, server)

	get(t, svc, "/v1/offers/"+fixtures.InteractionPoint+"?id=555", visitorCookie())

	start := server.Last().Body.Commands[0]
	assert.Equal(t, []any{map[string]any{"n": "CustomerID", "v": float64(555), "t": "numeric"}}, start["audienceID"])
}

func TestAccept(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson), fixtures.OK(fixtures.EventJson))
	svc := newTestService(t, server)
	decodeOffer(t, get(t, svc, "/v1/offers/"+fixtures.InteractionPoint, visitorCookie()))

	rec := post(t, svc, "/v1/offers/accept", `{"treatmentCode":"TC-9001"}`, visitorCookie())

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"postEvent"}, server.Last().Actions())
	assert.Equal(t, "accept", server.Last().Body.Commands[0]["event"])
}

func TestAcceptValidation(t *testing.T) {
	server := fixtures.NewInteractServer(t)
	svc := newTestService(t, server)

	assert.Equal(t, http.StatusBadRequest, post(t, svc, "/v1/offers/accept", `{}`, visitorCookie()).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, svc, "/v1/offers/accept", `not json`, visitorCookie()).Code)
	assert.Equal(t, http.StatusNoContent, post(t, svc, "/v1/offers/accept", `{"treatmentCode":"DEFAULT_OFFER"}`, visitorCookie()).Code)
	assert.Empty(t, server.Requests())
}

func TestAcceptUpstreamFailure(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.Reply{Status: http.StatusInternalServerError, Body: "boom"})
	svc := newTestService(t, server)

	rec := post(t, svc, "/v1/offers/accept", `{"treatmentCode":"TC-1"}`, visitorCookie())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPresentNeedsASession(t *testing.T) {
	server := fixtures.NewInteractServer(t)
	svc := newTestService(t, server)

	rec := post(t, svc, "/v1/offers/present", `{"trackingCode":"TC-1"}`, visitorCookie())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, server.Requests())
}

func TestPresent(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson), fixtures.OK(fixtures.EventJson))
	svc := newTestService(t, server)
	decodeOffer(t, get(t, svc, "/v1/offers/"+fixtures.InteractionPoint, visitorCookie()))

	rec := post(t, svc, "/v1/offers/present", `{"trackingCode":"TC-9001"}`, visitorCookie())

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "contact", server.Last().Body.Commands[0]["event"])
}

func TestHealthAndMetrics(t *testing.T) {
	server := fixtures.NewInteractServer(t, fixtures.OK(fixtures.SessionOffersJson))
	svc := newTestService(t, server)

	health := get(t, svc, "/healthz")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok", health.Body.String())

	decodeOffer(t, get(t, svc, "/v1/offers/"+fixtures.InteractionPoint, visitorCookie()))
	metrics := get(t, svc, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `offers_requests_total{code="200",route="/v1/offers/{interactionPoint}"} 1`)
}
