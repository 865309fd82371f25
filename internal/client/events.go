package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cloudconsole/internal/model"

	"github.com/gorilla/websocket"
)

func (c *Client) eventsURL() string {
	u := c.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/events"
}

// Events subscribes to the change feed. The channel is closed when ctx is
// done or the connection drops.
func (c *Client) Events(ctx context.Context) (<-chan model.ChangeEvent, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.eventsURL(), http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("events: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("events: %w", err)
	}

	out := make(chan model.ChangeEvent, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer close(done)
		for {
			var ev model.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
