package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/tessro/nowsync/internal/nowplaying"
)

const writeTimeout = 5 * time.Second

// Command is a control message sent by a WebSocket client.
type Command struct {
	Command  string   `json:"command"`
	Position *float64 `json:"position,omitempty"`
}

type commandError struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Error   string `json:"error"`
}

// handleWebSocket streams the state to the client: the current snapshot on
// connect, then one frame per update. Incoming frames are commands.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := s.player.Subscribe()
	defer unsubscribe()

	go s.readCommands(ctx, cancel, conn)

	if err := s.send(ctx, conn, newMessage(s.player.Snapshot(), s.player.Status(), nowplaying.ChangeNone, time.Now())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "client closed")
				return
			}
			if err := s.send(ctx, conn, newMessage(u.State, u.Status, u.Changed, time.Now())); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		s.log.Debug().Err(err).Msg("websocket write failed")
		return err
	}
	return nil
}

func (s *Server) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		var cmd Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				s.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		s.log.Debug().Str("command", cmd.Command).Msg("websocket command")
		if err := s.control(ctx, cmd.Command, cmd.Position); err != nil {
			_ = s.send(ctx, conn, commandError{Type: "error", Command: cmd.Command, Error: err.Error()})
		}
	}
}
