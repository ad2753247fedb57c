package models

import (
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectedApp(t *testing.T) {
	app, err := NewConnectedApp(1, "Slack", "team chat", "slack", nil)
	require.NoError(t, err)

	assert.Equal(t, AppStatusDisconnected, app.Status)
	assert.False(t, app.IsConnected())
	assert.Nil(t, app.AccessToken)

	_, err = NewConnectedApp(0, "Slack", "", "", nil)
	assert.Error(t, err)
}

func TestConnectedApp_Connect(t *testing.T) {
	app, _ := NewConnectedApp(1, "Slack", "", "", nil)
	expiry := time.Now().UTC().Add(time.Hour)

	app.Connect("access-token", "refresh-token", &expiry)

	assert.True(t, app.IsConnected())
	assert.True(t, app.HasValidToken())
	require.NotNil(t, app.RefreshToken)
	assert.Equal(t, "refresh-token", *app.RefreshToken)

	drained := app.DrainEvents()
	require.Len(t, drained, 1)
	assert.Equal(t, events.AppConnectedEvent, drained[0].GetType())
}

func TestConnectedApp_Disconnect_ClearsTokens(t *testing.T) {
	app, _ := NewConnectedApp(1, "Slack", "", "", nil)
	expiry := time.Now().UTC().Add(time.Hour)
	app.Connect("access-token", "refresh-token", &expiry)
	app.DrainEvents()

	app.Disconnect()

	assert.Equal(t, AppStatusDisconnected, app.Status)
	assert.Nil(t, app.AccessToken)
	assert.Nil(t, app.RefreshToken)
	assert.Nil(t, app.TokenExpiry)
	assert.False(t, app.HasValidToken())

	drained := app.DrainEvents()
	require.Len(t, drained, 1)
	assert.Equal(t, events.AppDisconnectedEvent, drained[0].GetType())
}

func TestConnectedApp_HasValidToken(t *testing.T) {
	app, _ := NewConnectedApp(1, "Slack", "", "", nil)

	// No token at all.
	assert.False(t, app.HasValidToken())

	// Token without expiry is valid.
	app.Connect("tok", "", nil)
	assert.True(t, app.HasValidToken())

	// Expired token is invalid.
	past := time.Now().UTC().Add(-time.Minute)
	app.TokenExpiry = &past
	assert.False(t, app.HasValidToken())
}

func TestConnectedApp_NeedsTokenRefresh(t *testing.T) {
	app, _ := NewConnectedApp(1, "Slack", "", "", nil)

	// No expiry, no refresh needed.
	app.Connect("tok", "refresh", nil)
	assert.False(t, app.NeedsTokenRefresh())

	// Expires within the lookahead window.
	soon := time.Now().UTC().Add(time.Minute)
	app.TokenExpiry = &soon
	assert.True(t, app.NeedsTokenRefresh())

	// Expires far in the future.
	later := time.Now().UTC().Add(time.Hour)
	app.TokenExpiry = &later
	assert.False(t, app.NeedsTokenRefresh())

	// Near expiry but no refresh token available.
	app.RefreshToken = nil
	app.TokenExpiry = &soon
	assert.False(t, app.NeedsTokenRefresh())
}

func TestConnectedApp_RefreshedTokens(t *testing.T) {
	app, _ := NewConnectedApp(1, "Slack", "", "", nil)

	// Not connected yet.
	err := app.RefreshedTokens("new", nil)
	assert.ErrorIs(t, err, ErrAppNotConnected)

	// Connected without a refresh token.
	app.Connect("tok", "", nil)
	err = app.RefreshedTokens("new", nil)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.True(t, IsPreconditionViolation(err))

	// Connected with a refresh token.
	expiry := time.Now().UTC().Add(time.Hour)
	app.Connect("tok", "refresh", &expiry)

	newExpiry := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, app.RefreshedTokens("new-access", &newExpiry))
	assert.Equal(t, "new-access", *app.AccessToken)
	assert.Equal(t, newExpiry, *app.TokenExpiry)
}
