// Package matrix adapts the gomatrix client to the small transport
// surface the bot needs: login, an inbound message callback, and
// plain-text sends. Connection lifecycle and sync batching belong to
// the library.
package matrix

import (
	"errors"
	"fmt"

	"github.com/matrix-org/gomatrix"

	"github.com/cratewatch/cratewatch/internal/common/logger"
)

// ErrLoginFailed indicates the homeserver rejected the login
var ErrLoginFailed = errors.New("matrix login failed")

// MessageFunc receives one inbound room message.
type MessageFunc func(roomID, sender, body string)

// Transport is a logged-in Matrix session.
type Transport struct {
	client *gomatrix.Client
	userID string
}

// Connect logs in to the homeserver with a username and password and
// returns a ready transport. Login failure is fatal to the caller;
// there is no retry.
func Connect(homeserverURL, username, password string) (*Transport, error) {
	client, err := gomatrix.NewClient(homeserverURL, "", "")
	if err != nil {
		return nil, fmt.Errorf("invalid homeserver URL %s: %w", homeserverURL, err)
	}

	resp, err := client.Login(&gomatrix.ReqLogin{
		Type:                     "m.login.password",
		User:                     username,
		Password:                 password,
		InitialDeviceDisplayName: "cratewatch",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	client.SetCredentials(resp.UserID, resp.AccessToken)
	logger.Debug("logged in as %s", resp.UserID)

	return &Transport{
		client: client,
		userID: resp.UserID,
	}, nil
}

// UserID returns the logged-in user's Matrix ID.
func (t *Transport) UserID() string {
	return t.userID
}

// OnMessage registers fn for every inbound m.room.message event. The
// bot's own messages are filtered out so replies cannot feed back
// into the dispatcher.
func (t *Transport) OnMessage(fn MessageFunc) {
	syncer := t.client.Syncer.(*gomatrix.DefaultSyncer)
	syncer.OnEventType("m.room.message", func(ev *gomatrix.Event) {
		if ev.Sender == t.userID {
			return
		}
		body, ok := ev.Body()
		if !ok {
			return
		}
		fn(ev.RoomID, ev.Sender, body)
	})
}

// SendText sends a plain-text message to a room.
func (t *Transport) SendText(roomID, body string) error {
	_, err := t.client.SendText(roomID, body)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", roomID, err)
	}
	return nil
}

// JoinRoom joins the configured room so history and new events are
// delivered. Joining a room the bot is already in is a no-op on the
// server side.
func (t *Transport) JoinRoom(roomID string) error {
	if _, err := t.client.JoinRoom(roomID, "", nil); err != nil {
		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}
	return nil
}

// Run blocks in the sync loop, delivering inbound events to the
// registered callbacks until Stop is called or the server errors.
func (t *Transport) Run() error {
	if err := t.client.Sync(); err != nil {
		return fmt.Errorf("sync loop ended: %w", err)
	}
	return nil
}

// Stop makes Run return after the current sync request completes.
func (t *Transport) Stop() {
	t.client.StopSync()
}
