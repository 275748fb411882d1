package interact_test

import (
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"

	interact "github.com/telcoshop/interact-go-client"
)

func TestCustomRestyClientTimeoutIsNotOverriddenWithDefaultTimeout(t *testing.T) {
	customResty := resty.New().SetTimeout(13 * time.Millisecond)

	client := interact.NewClient("http://interact.local", interact.WithRestyClient(customResty))

	internal := client.ExposeRestyClient()
	assert.Equal(t, 13*time.Millisecond, internal.GetClient().Timeout)
}

func TestCustomRestyClientHasDefaultTimeoutIfNotProvided(t *testing.T) {
	customResty := resty.New()

	client := interact.NewClient("http://interact.local", interact.WithRestyClient(customResty))

	internal := client.ExposeRestyClient()
	assert.Equal(t, 10*time.Second, internal.GetClient().Timeout)
}

func TestRequestTimeoutOptionIsApplied(t *testing.T) {
	client := interact.NewClient("http://interact.local", interact.WithRequestTimeout(250*time.Millisecond))

	internal := client.ExposeRestyClient()
	assert.Equal(t, 250*time.Millisecond, internal.GetClient().Timeout)
}

func TestCustomHeadersAreSet(t *testing.T) {
	client := interact.NewClient("http://interact.local", interact.WithCustomHeaders(map[string]string{"X-Brand": "telco"}))

	internal := client.ExposeRestyClient()
	assert.Equal(t, "telco", internal.Header.Get("X-Brand"))
}
