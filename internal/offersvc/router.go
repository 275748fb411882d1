package offersvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Router(h *Handler, m *HTTPMetrics, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	if m != nil {
		r.Use(m.Measure)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/v1/offers", func(r chi.Router) {
		r.Get("/{interactionPoint}", h.Offer)
		r.Post("/accept", h.Accept)
		r.Post("/present", h.Present)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}
