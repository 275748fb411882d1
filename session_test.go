package interact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func liveState(audID string) SessionState {
	return SessionState{
		SessionID:  "abc123",
		SSID:       "abc123",
		Timestamp:  testNow.Add(-5 * time.Minute),
		AudienceID: audID,
	}
}

func TestCheckSessionRequiresAudience(t *testing.T) {
	_, _, err := checkSession(DefaultConfig(), Audience{Level: DefaultVisitorLevel}, SessionState{}, testNow)

	assert.ErrorIs(t, err, ErrMissingAudience)
}

func TestCheckSessionFreshVisitor(t *testing.T) {
	cfg := DefaultConfig()

	plan, state, err := checkSession(cfg, VisitorAudience(cfg, "0"), SessionState{}, testNow)

	require.NoError(t, err)
	assert.True(t, plan.StartSession)
	assert.True(t, plan.NewVisitor)
	assert.False(t, plan.SetAudience)
	assert.False(t, plan.Expired)
	assert.Equal(t, "VisitorID|0|string", state.AudienceID)
	assert.Empty(t, state.SessionID)
}

func TestCheckSessionFreshCustomerIsNotANewVisitor(t *testing.T) {
	cfg := DefaultConfig()

	plan, state, err := checkSession(cfg, CustomerAudience(cfg, "1001"), SessionState{}, testNow)

	require.NoError(t, err)
	assert.True(t, plan.StartSession)
	assert.False(t, plan.NewVisitor)
	assert.Equal(t, "CustomerID|1001|numeric", state.AudienceID)
}

func TestCheckSessionLiveSessionOnlyRefreshesTimestamp(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("VisitorID|0|string")

	plan, state, err := checkSession(cfg, VisitorAudience(cfg, "0"), stored, testNow)

	require.NoError(t, err)
	assert.Equal(t, SessionPlan{Audience: VisitorAudience(cfg, "0")}, plan)
	assert.Equal(t, testNow, state.Timestamp)
	assert.Equal(t, "abc123", state.SessionID)
}

func TestCheckSessionTimeoutForcesNewSession(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("VisitorID|0|string")
	stored.Timestamp = testNow.Add(-31 * time.Minute)

	plan, state, err := checkSession(cfg, VisitorAudience(cfg, "0"), stored, testNow)

	require.NoError(t, err)
	assert.True(t, plan.StartSession)
	assert.True(t, plan.Expired)
	assert.Empty(t, state.SessionID)
	assert.Empty(t, state.SSID)
	assert.True(t, state.Timestamp.IsZero())
	assert.Equal(t, "VisitorID|0|string", state.AudienceID, "the audience survives the expiry")
}

func TestCheckSessionHonoursConfiguredTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionTimeout = 5 * time.Minute
	stored := liveState("VisitorID|0|string")
	stored.Timestamp = testNow.Add(-6 * time.Minute)

	plan, _, err := checkSession(cfg, VisitorAudience(cfg, "0"), stored, testNow)

	require.NoError(t, err)
	assert.True(t, plan.StartSession)
}

func TestCheckSessionWithoutSessionIDStartsOne(t *testing.T) {
	cfg := DefaultConfig()
	stored := SessionState{AudienceID: "VisitorID|0|string"}

	plan, _, err := checkSession(cfg, VisitorAudience(cfg, "0"), stored, testNow)

	require.NoError(t, err)
	assert.True(t, plan.StartSession)
	assert.False(t, plan.Expired)
	assert.False(t, plan.NewVisitor)
}

func TestCheckSessionVisitorToCustomerSwitchesAudience(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("VisitorID|0|string")

	plan, state, err := checkSession(cfg, CustomerAudience(cfg, "1001"), stored, testNow)

	require.NoError(t, err)
	assert.True(t, plan.SetAudience)
	assert.False(t, plan.StartSession)
	assert.Equal(t, "VisitorID,0,string", plan.PrevAudienceID)
	assert.Equal(t, "CustomerID|1001|numeric", state.AudienceID)
}

func TestCheckSessionNeverDowngradesCustomerToVisitor(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("CustomerID|1001|numeric")

	plan, state, err := checkSession(cfg, VisitorAudience(cfg, "0"), stored, testNow)

	require.NoError(t, err)
	assert.False(t, plan.SetAudience)
	assert.False(t, plan.StartSession)
	assert.Equal(t, Audience{ID: "CustomerID,1001,numeric", Level: DefaultCustomerLevel}, plan.Audience)
	assert.Equal(t, "CustomerID|1001|numeric", state.AudienceID)
}

func TestCheckSessionCustomerToOtherCustomerSwitchesAudience(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("CustomerID|1001|numeric")

	plan, state, err := checkSession(cfg, CustomerAudience(cfg, "2002"), stored, testNow)

	require.NoError(t, err)
	assert.True(t, plan.SetAudience)
	assert.Equal(t, "CustomerID,1001,numeric", plan.PrevAudienceID)
	assert.Equal(t, "CustomerID|2002|numeric", state.AudienceID)
}

func TestCheckSessionDoesNotMutateItsInput(t *testing.T) {
	cfg := DefaultConfig()
	stored := liveState("VisitorID|0|string")
	stored.Timestamp = testNow.Add(-time.Hour)
	before := stored

	_, _, err := checkSession(cfg, CustomerAudience(cfg, "1001"), stored, testNow)

	require.NoError(t, err)
	assert.Equal(t, before, stored)
}

func TestTokenValid(t *testing.T) {
	s := SessionState{Token: "tok", TokenExpires: testNow.Add(time.Minute)}

	assert.True(t, s.tokenValid(testNow))
	assert.False(t, s.tokenValid(testNow.Add(2*time.Minute)))
	assert.False(t, SessionState{}.tokenValid(testNow))
}
