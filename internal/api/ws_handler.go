package api

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/campusdesk/portal/internal/models"
	wsl "github.com/campusdesk/portal/internal/ws"
)

// wsConnect joins an upgraded connection to the caller's user room. The
// identity was validated from the query token before the upgrade and
// travels in locals. Joining is the client's responsibility on
// (re)connect; there is no queued redelivery, the client re-fetches
// after a gap.
func (s *Server) wsConnect() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		ident, ok := conn.Locals(identityKey).(models.Identity)
		if !ok || ident.UserID == "" {
			_ = conn.Close()
			return
		}

		client := wsl.NewClient(conn, ident.UserID)
		socketID := uuid.New().String()

		s.hub.Join(ident.UserID, client)
		if s.presence != nil {
			if err := s.presence.Connected(context.Background(), ident.UserID, socketID); err != nil {
				s.log.Warnw("presence update failed", "user_id", ident.UserID, "err", err)
			}
		}
		s.log.Infow("websocket joined", "user_id", ident.UserID, "socket_id", socketID)

		go client.WritePump(s.cfg.PingInterval, s.cfg.WriteDeadline)
		// blocks until the peer disconnects
		client.ReadPump(s.cfg.WS.MaxMessageSize, s.cfg.PingInterval*2)

		s.hub.Leave(ident.UserID, client)
		if s.presence != nil {
			_ = s.presence.Disconnected(context.Background(), ident.UserID, socketID)
		}
		s.log.Infow("websocket left", "user_id", ident.UserID, "socket_id", socketID)
	}
}
