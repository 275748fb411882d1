package interact

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const customerDataSuffix = "_customer_data"

// IdentityProvider resolves the logged-in user for the current call. An empty
// id means the visitor is anonymous.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) string
}

// IdentityFunc adapts a function to IdentityProvider.
type IdentityFunc func(ctx context.Context) string

func (f IdentityFunc) CurrentUserID(ctx context.Context) string {
	return f(ctx)
}

// StaticIdentity always resolves to the same user id.
type StaticIdentity string

func (s StaticIdentity) CurrentUserID(context.Context) string {
	return string(s)
}

type customerDataKey struct{}

// WithCustomerData attaches the storefront's stored customer records
// ("{brand}_customer_data" → JSON) to ctx for CustomerDataIdentity.
func WithCustomerData(ctx context.Context, data map[string]string) context.Context {
	return context.WithValue(ctx, customerDataKey{}, data)
}

// CustomerDataFromContext returns the records attached by WithCustomerData.
func CustomerDataFromContext(ctx context.Context) map[string]string {
	data, _ := ctx.Value(customerDataKey{}).(map[string]string)
	return data
}

// CustomerDataIdentity reads the user id from the "loginData.id" field of the
// brand's customer record. Without a brand key, the first record whose key
// ends in "_customer_data" is used.
type CustomerDataIdentity struct {
	BrandKey string
}

func (c CustomerDataIdentity) CurrentUserID(ctx context.Context) string {
	data := CustomerDataFromContext(ctx)
	if len(data) == 0 {
		return ""
	}

	if c.BrandKey != "" {
		return loginID(data[c.BrandKey+customerDataSuffix])
	}

	keys := maps.Keys(data)
	slices.Sort(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, customerDataSuffix) {
			return loginID(data[k])
		}
	}
	return ""
}

func loginID(record string) string {
	if record == "" {
		return ""
	}
	var customer struct {
		LoginData struct {
			ID flexString `json:"id"`
		} `json:"loginData"`
	}
	if err := json.Unmarshal([]byte(record), &customer); err != nil {
		return ""
	}
	return string(customer.LoginData.ID)
}
