package offersvc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	interact "github.com/telcoshop/interact-go-client"
)

const (
	VisitorCookie      = "interact_visitor"
	customerDataSuffix = "_customer_data"
	visitorCookieAge   = 365 * 24 * time.Hour
)

// Options tunes how offers are fetched.
type Options struct {
	MaxOffers   int
	SpotTimeout time.Duration
	Fallback    *interact.FallbackCatalog
}

// Handler serves offers to storefront pages. Each browser is one visitor,
// identified by the interact_visitor cookie.
type Handler struct {
	client *interact.Client
	opts   Options
	log    *slog.Logger
}

func NewHandler(client *interact.Client, opts Options, log *slog.Logger) *Handler {
	if opts.Fallback == nil {
		opts.Fallback = interact.DefaultFallbackCatalog()
	}
	if opts.SpotTimeout <= 0 {
		opts.SpotTimeout = interact.DefaultSpotTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{client: client, opts: opts, log: log}
}

// OfferResponse is the body of GET /v1/offers/{interactionPoint}.
type OfferResponse struct {
	interact.OfferDisplay
	InteractionPoint string               `json:"interactionPoint"`
	Source           interact.OfferSource `json:"source"`
	Reason           string               `json:"reason,omitempty"`
}

type acceptRequest struct {
	TreatmentCode string `json:"treatmentCode"`
}

type presentRequest struct {
	TrackingCode string `json:"trackingCode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Offer always answers 200 with an offer: the fallback stands in for
// anything the server could not provide.
func (h *Handler) Offer(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "interactionPoint")
	visitor := h.visitorKey(w, r)
	ctx := withCustomerData(r.Context(), r)
	session := h.client.Session(visitor)

	persisted, err := session.PersistedAudienceID(ctx)
	if err != nil {
		h.log.Warn("could not load visitor session", slog.String("visitor", visitor), "error", err)
	}
	aud := interact.ResolveAudience(h.client.Config(), h.client.CurrentUserID(ctx), r.URL.Query(), persisted)

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}

	spot := session.Spot(ip,
		interact.SpotConfig{InteractionPoint: ip, MaxOffers: h.opts.MaxOffers},
		interact.WithSpotTimeout(h.opts.SpotTimeout),
		interact.WithFallbackCatalog(h.opts.Fallback),
	)
	res := spot.Fetch(ctx, aud, locale)

	writeJSON(w, http.StatusOK, OfferResponse{
		OfferDisplay:     res.Display,
		InteractionPoint: ip,
		Source:           res.Source,
		Reason:           res.Reason,
	})
}

// Accept records an accepted offer. Accepting the fallback offer is a no-op.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TreatmentCode) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "treatmentCode is required"})
		return
	}
	if req.TreatmentCode == interact.FallbackOfferCode {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx := withCustomerData(r.Context(), r)
	session := h.client.Session(h.visitorKey(w, r))
	if _, err := session.PostAccept(ctx, req.TreatmentCode); err != nil {
		h.writeError(w, "postAccept", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Present records that an offer was shown on the page.
func (h *Handler) Present(w http.ResponseWriter, r *http.Request) {
	var req presentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.TrackingCode) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "trackingCode is required"})
		return
	}
	if req.TrackingCode == interact.FallbackOfferCode {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx := withCustomerData(r.Context(), r)
	session := h.client.Session(h.visitorKey(w, r))
	if _, err := session.PostPresentEvent(ctx, req.TrackingCode); err != nil {
		h.writeError(w, "postPresentEvent", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	h.log.Warn("interact call failed", slog.String("operation", op), "error", err)

	var te *interact.TransportError
	switch {
	case errors.Is(err, interact.ErrNoSession):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, interact.ErrMissingServerURL), errors.Is(err, interact.ErrMissingAudience):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.As(err, &te):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// visitorKey returns the visitor id from its cookie, minting one on the
// first visit.
func (h *Handler) visitorKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// withCustomerData attaches the "{brand}_customer_data" cookies of the
// request for the customer data identity provider.
func withCustomerData(ctx context.Context, r *http.Request) context.Context {
	data := make(map[string]string)
	for _, c := range r.Cookies() {
		if !strings.HasSuffix(c.Name, customerDataSuffix) {
			continue
		}
		v, err := url.QueryUnescape(c.Value)
		if err != nil {
			v = c.Value
		}
		data[c.Name] = v
	}
	if len(data) == 0 {
		return ctx
	}
	return interact.WithCustomerData(ctx, data)
}
