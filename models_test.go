package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telcoshop/interact-go-client/fixtures"
)

func TestDecodeResultBatch(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.SessionOffersJson))

	require.NoError(t, err)
	require.True(t, res.IsBatch())
	assert.Equal(t, 0, res.StatusCode())
	require.Len(t, res.Responses(), 2)
	assert.Equal(t, []string{fixtures.SessionID, fixtures.SessionID}, res.SessionIDs())

	offer := res.Responses()[1].OfferLists[0].Offers[0]
	assert.Equal(t, fixtures.OfferName, offer.Name)
	assert.Equal(t, fixtures.OfferCode, offer.Code, "array codes are flattened to the first element")
	assert.Equal(t, fixtures.TreatmentCode, offer.TreatmentCode)
	assert.Equal(t, float64(80), offer.Score)
}

func TestDecodeResultSingleResponse(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.SingleOfferListJson))

	require.NoError(t, err)
	assert.False(t, res.IsBatch())
	require.NotNil(t, res.Response)
	require.Len(t, res.Response.OfferLists, 1, "offerList is read as offerLists")
	assert.Equal(t, "MORT-01", res.Response.OfferLists[0].Offers[0].Code)
}

func TestDecodeResultEmptyBody(t *testing.T) {
	for _, body := range []string{"", "  ", "null"} {
		res, err := DecodeResult([]byte(body))
		assert.NoError(t, err)
		assert.Nil(t, res)
	}
}

func TestDecodeResultMalformed(t *testing.T) {
	_, err := DecodeResult([]byte("<html>Service Unavailable</html>"))

	assert.Error(t, err)
}

func TestResponseMissingArraysDecodeAsEmpty(t *testing.T) {
	res, err := DecodeResult([]byte(`{"sessionId":"s1","statusCode":"0"}`))

	require.NoError(t, err)
	r := res.Response
	assert.NotNil(t, r.OfferLists)
	assert.NotNil(t, r.Profile)
	assert.NotNil(t, r.Messages)
	assert.Empty(t, r.OfferLists)
	assert.False(t, r.HasOffers())
}

func TestBatchMessagesAreCollected(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.BatchErrorJson))

	require.NoError(t, err)
	assert.Equal(t, 1, res.StatusCode())
	msgs := res.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Invalid audience level", msgs[0].Message)
	assert.Equal(t, MessageError, msgs[0].Level)
	assert.Equal(t, "5", string(msgs[0].Code))
	assert.Empty(t, res.SessionIDs())
}

func TestAdvisoryMessagesAlias(t *testing.T) {
	res, err := DecodeResult([]byte(`{"statusCode":1,"advisoryMessages":[{"msg":"warn","msgCode":12}]}`))

	require.NoError(t, err)
	require.Len(t, res.Messages(), 1)
	assert.Equal(t, "12", string(res.Messages()[0].Code))
}

func TestProfileValue(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.ProfileCustomerJson))
	require.NoError(t, err)

	p, ok := res.Responses()[1].ProfileValue("customerid")

	require.True(t, ok)
	assert.Equal(t, "1001", p.String())
	assert.Equal(t, TypeNumeric, p.Type)
}

func TestServerVersion(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.VersionJson))
	require.NoError(t, err)

	v, err := res.Response.ServerVersion()

	require.NoError(t, err)
	assert.Equal(t, uint64(12), v.Major)
	assert.Equal(t, uint64(1), v.Minor)
	assert.Equal(t, uint64(0), v.Patch)

	_, err = Response{}.ServerVersion()
	assert.Error(t, err)
}

func TestOfferDisplay(t *testing.T) {
	res, err := DecodeResult([]byte(fixtures.SessionOffersJson))
	require.NoError(t, err)

	d := res.Responses()[1].OfferLists[0].Offers[0].Display()

	assert.Equal(t, "Switch and save", d.Title)
	assert.Equal(t, "Lower your rate", d.Description, "desc is used when no copy attribute is set")
	assert.Equal(t, "https://cdn.example.com/mortgage.jpg", d.ImageURL)
	assert.Equal(t, "Apply now", d.CTA)
	assert.Equal(t, "#", d.LinkURL)
}

func TestOfferDisplayDefaults(t *testing.T) {
	d := Offer{Name: "Bare"}.Display()

	assert.Equal(t, "Bare", d.Title)
	assert.Equal(t, "Great offer just for you!", d.Description)
	assert.Equal(t, "/placeholder-offer.jpg", d.ImageURL)
	assert.Equal(t, "Learn More", d.CTA)
	assert.Equal(t, "#", d.LinkURL)
}
