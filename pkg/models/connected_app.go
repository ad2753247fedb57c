package models

import (
	"time"

	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/identity"
)

// AppStatus represents the connection state of an external application.
type AppStatus string

const (
	AppStatusConnected    AppStatus = "connected"
	AppStatusDisconnected AppStatus = "disconnected"
	AppStatusError        AppStatus = "error"
)

// tokenRefreshLookahead is how close to expiry a token is considered due for
// refresh.
const tokenRefreshLookahead = 5 * time.Minute

// ConnectedApp records a user's connection to a third-party service that
// workflow steps may depend on at run time.
type ConnectedApp struct {
	ID           identity.ConnectedAppID `json:"id"`
	UserID       identity.UserID         `json:"user_id" validate:"required"`
	Name         string                  `json:"name"    validate:"required"`
	Description  string                  `json:"description"`
	Icon         string                  `json:"icon,omitempty"`
	Status       AppStatus               `json:"status"`
	Config       map[string]any          `json:"config,omitempty"`
	AccessToken  *string                 `json:"access_token,omitempty"`
	RefreshToken *string                 `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time              `json:"token_expiry,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	Version      int64                   `json:"version"` // Bumped by the repository on every update

	pending []events.Event
}

// NewConnectedApp creates a disconnected app record owned by userID.
func NewConnectedApp(userID identity.UserID, name, description, icon string, config map[string]any) (*ConnectedApp, error) {
	if userID <= 0 {
		return nil, identity.ErrInvalidID
	}

	now := time.Now().UTC()

	return &ConnectedApp{
		UserID:      userID,
		Name:        name,
		Description: description,
		Icon:        icon,
		Status:      AppStatusDisconnected,
		Config:      config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Connect stores the credentials and marks the app connected.
func (a *ConnectedApp) Connect(accessToken, refreshToken string, expiry *time.Time) {
	a.AccessToken = &accessToken

	if refreshToken != "" {
		a.RefreshToken = &refreshToken
	}

	a.TokenExpiry = expiry
	a.Status = AppStatusConnected
	a.touch()

	a.record(events.AppConnected{
		BaseEvent: events.NewBaseEvent(events.AppConnectedEvent, 0, a.UserID.Int64()),
		AppID:     a.ID.Int64(),
		AppName:   a.Name,
	})
}

// Disconnect marks the app disconnected and clears all tokens. The access
// token is never retained past disconnection.
func (a *ConnectedApp) Disconnect() {
	a.AccessToken = nil
	a.RefreshToken = nil
	a.TokenExpiry = nil
	a.Status = AppStatusDisconnected
	a.touch()

	a.record(events.AppDisconnected{
		BaseEvent: events.NewBaseEvent(events.AppDisconnectedEvent, 0, a.UserID.Int64()),
		AppID:     a.ID.Int64(),
		AppName:   a.Name,
	})
}

// MarkAsError records a connection fault.
func (a *ConnectedApp) MarkAsError() {
	a.Status = AppStatusError
	a.touch()
}

// IsConnected reports whether the app is currently connected.
func (a *ConnectedApp) IsConnected() bool {
	return a.Status == AppStatusConnected
}

// HasValidToken reports whether an access token is present and not expired.
func (a *ConnectedApp) HasValidToken() bool {
	if a.AccessToken == nil || *a.AccessToken == "" {
		return false
	}

	if a.TokenExpiry == nil {
		return true
	}

	return a.TokenExpiry.After(time.Now().UTC())
}

// NeedsTokenRefresh reports whether the token expires within the refresh
// lookahead window and a refresh token is available.
func (a *ConnectedApp) NeedsTokenRefresh() bool {
	if a.TokenExpiry == nil || a.RefreshToken == nil || *a.RefreshToken == "" {
		return false
	}

	return a.TokenExpiry.Before(time.Now().UTC().Add(tokenRefreshLookahead))
}

// RefreshedTokens replaces the access token after a refresh exchange. It
// fails when the app holds no refresh token or is not connected.
func (a *ConnectedApp) RefreshedTokens(accessToken string, expiry *time.Time) error {
	if !a.IsConnected() {
		return ErrAppNotConnected
	}

	if a.RefreshToken == nil || *a.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	a.AccessToken = &accessToken
	a.TokenExpiry = expiry
	a.touch()

	return nil
}

// Events returns the buffered domain events without draining them.
func (a *ConnectedApp) Events() []events.Event {
	return a.pending
}

// DrainEvents returns the buffered domain events and clears the buffer.
func (a *ConnectedApp) DrainEvents() []events.Event {
	drained := a.pending
	a.pending = nil

	return drained
}

func (a *ConnectedApp) record(e events.Event) {
	a.pending = append(a.pending, e)
}

func (a *ConnectedApp) touch() {
	a.UpdatedAt = time.Now().UTC()
}
