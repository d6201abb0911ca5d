package relayclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	relayws "github.com/vasifvortex/azercell-project3/adapters/websocket"
	"github.com/vasifvortex/azercell-project3/domain"
)

func (c *Client) wsURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/ws"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/ws"
	default:
		return c.baseURL + "/ws"
	}
}

// StreamWS asks one question over a fresh websocket session and reads typed
// events until the answer ends.
func (c *Client) StreamWS(ctx context.Context, req domain.ChatRequest, onChunk func(string)) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return &StatusError{Code: resp.StatusCode, Body: http.StatusText(resp.StatusCode)}
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(relayws.Request{Query: req.Query, System: req.System}); err != nil {
		return err
	}

	for {
		var ev relayws.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		switch ev.Type {
		case relayws.EventChunk:
			onChunk(ev.Text)
		case relayws.EventError:
			return &RelayError{Message: ev.Error}
		case relayws.EventEnd:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		default:
			return &RelayError{Message: fmt.Sprintf("Invalid relay event type %q", ev.Type)}
		}
	}
}
