package websocket

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/vasifvortex/azercell-project3/utils/log"
)

// Handler upgrades GET /ws and keeps the session open until either side
// closes it.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := log.WithRequestID(context.Background(), c.Response().Header().Get(echo.HeaderXRequestID))
	if userID, ok := c.Get("user_id").(string); ok {
		ctx = log.WithUserID(ctx, userID)
	}

	client := NewClient(ctx, conn, s.serve)
	if !s.hub.Register(client) {
		client.Close()
		return nil
	}
	defer s.hub.Unregister(client)

	client.Run()

	<-client.Context().Done()

	return nil
}
