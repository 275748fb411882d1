package interact

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	servletPath = "/servlet/RestServlet"

	tokenHeader     = "m_tokenId"
	userHeader      = "m_user_name"
	passwordHeader  = "m_user_password"
	requestIDHeader = "X-Request-Id"

	contentTypeJSON = "application/json; charset=utf-8"
)

// transport posts batches to the servlet. It is the only place doing I/O.
type transport struct {
	client   *resty.Client
	log      *slog.Logger
	debug    bool
	username string
	password string
}

// post sends payload and returns the raw body on HTTP 200. The continuation
// token in state is sent when valid and replaced by the one the server
// returns; a reply without one, or an endSession call, clears it.
func (t *transport) post(ctx context.Context, serverURL string, payload batchRequest, state *SessionState, endSession bool, now time.Time) ([]byte, error) {
	req := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeJSON).
		SetHeader(requestIDHeader, uuid.NewString()).
		SetBody(payload)

	if state.tokenValid(now) {
		req.SetHeader(tokenHeader, state.Token)
	} else if t.username != "" {
		req.SetHeader(userHeader, url.PathEscape(t.username))
		req.SetHeader(passwordHeader, url.PathEscape(t.password))
	}

	if t.debug {
		if b, err := json.Marshal(payload); err == nil {
			t.log.Debug("executing commands", slog.String("payload", string(b)))
		}
	}

	resp, err := req.Post(serverURL + servletPath)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if token := resp.Header().Get(tokenHeader); token != "" && !endSession {
		state.Token = token
		state.TokenExpires = now.Add(TokenTTL)
	} else {
		state.Token = ""
		state.TokenExpires = time.Time{}
	}

	body := resp.Body()
	if t.debug {
		t.log.Debug("received response",
			slog.Int("status", resp.StatusCode()),
			slog.String("body", string(body)),
		)
	}

	if resp.StatusCode() != http.StatusOK {
		return body, &TransportError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       string(body),
		}
	}
	return body, nil
}
