package interact

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// This file exports internal functions for testing purposes only.
// It is compiled only when running tests (no build tags needed).

func (c *Client) ExposeRestyClient() *resty.Client {
	return c.client
}

// SetClockForTest replaces the clock used for session timeouts and tokens.
func (c *Client) SetClockForTest(now func() time.Time) {
	c.now = now
}

// GetUserAgentForTest exposes the getUserAgent function for external tests.
func GetUserAgentForTest() string {
	return getUserAgent()
}
