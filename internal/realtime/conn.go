package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

// Serve runs a session over an upgraded connection and blocks until the
// peer goes away. userID is zero for anonymous connections.
func (r *Relay) Serve(ctx context.Context, conn *websocket.Conn, userID int64) {
	s := NewSession(uuid.NewString(), userID)
	r.hub.Register(s)
	log.Debug().Str("session_id", s.ID).Int64("user_id", userID).Msg("realtime session opened")

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, s)
	}()

	r.readPump(ctx, conn, s)
	r.hub.Unregister(s)
	<-done
	log.Debug().Str("session_id", s.ID).Msg("realtime session closed")
}

func (r *Relay) readPump(ctx context.Context, conn *websocket.Conn, s *Session) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session_id", s.ID).Msg("realtime read failed")
			}
			return
		}
		r.handleFrame(ctx, s, raw)
	}
}

func (r *Relay) handleFrame(ctx context.Context, s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		reply(s, errorFrame("Invalid message"))
		return
	}

	switch env.Event {
	case EventPrivateMessage:
		var pm PrivateMessage
		if len(env.Data) == 0 || json.Unmarshal(env.Data, &pm) != nil {
			reply(s, errorFrame("Missing fields"))
			return
		}
		if _, err := r.Send(ctx, s.UserID, int64(pm.ToUserID), pm.Message); err != nil {
			reply(s, errorFrame(clientMessage(err)))
		}
	default:
		reply(s, errorFrame("Unknown event"))
	}
}

// clientMessage hides internal failures from the peer.
func clientMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.ErrInternal {
		return appErr.Message
	}
	return "Failed to send message"
}

// reply queues a frame for this session only.
func reply(s *Session, frame []byte) {
	select {
	case s.Send <- frame:
	default:
	}
}

func writePump(conn *websocket.Conn, s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
