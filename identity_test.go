package interact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerDataIdentity(t *testing.T) {
	tests := []struct {
		name     string
		brand    string
		data     map[string]string
		expected string
	}{
		{
			name:     "brand record",
			brand:    "telco",
			data:     map[string]string{"telco_customer_data": `{"loginData":{"id":"1001"}}`, "other_customer_data": `{"loginData":{"id":"9"}}`},
			expected: "1001",
		},
		{
			name:     "numeric id",
			brand:    "telco",
			data:     map[string]string{"telco_customer_data": `{"loginData":{"id":1001}}`},
			expected: "1001",
		},
		{
			name:     "unknown brand scans for any record",
			data:     map[string]string{"cart": "{}", "mobile_customer_data": `{"loginData":{"id":"77"}}`},
			expected: "77",
		},
		{
			name:     "missing brand record",
			brand:    "telco",
			data:     map[string]string{"mobile_customer_data": `{"loginData":{"id":"77"}}`},
			expected: "",
		},
		{
			name:     "broken record",
			data:     map[string]string{"telco_customer_data": `{loginData`},
			expected: "",
		},
		{
			name:     "logged out",
			data:     map[string]string{"telco_customer_data": `{}`},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithCustomerData(context.Background(), tt.data)

			assert.Equal(t, tt.expected, CustomerDataIdentity{BrandKey: tt.brand}.CurrentUserID(ctx))
		})
	}
}

func TestCustomerDataIdentityWithoutData(t *testing.T) {
	assert.Empty(t, CustomerDataIdentity{}.CurrentUserID(context.Background()))
}

func TestIdentityFunc(t *testing.T) {
	var p IdentityProvider = IdentityFunc(func(context.Context) string { return " 42 " })
	client := NewClient("http://interact.local", WithIdentityProvider(p))

	assert.Equal(t, "42", client.CurrentUserID(context.Background()))
	assert.Empty(t, NewClient("http://interact.local").CurrentUserID(context.Background()))
}
