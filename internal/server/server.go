// Package server exposes the now-playing client over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/core"
	nserrors "github.com/tessro/nowsync/internal/errors"
	"github.com/tessro/nowsync/internal/nowplaying"
)

const shutdownTimeout = 5 * time.Second

// Player is the client surface the bridge needs. *client.Client implements it.
type Player interface {
	Snapshot() core.NowPlayingState
	Status() client.Status
	Subscribe() (<-chan client.Update, func())
	Execute(ctx context.Context, cmd core.Command) error
	SeekTo(ctx context.Context, position time.Duration) error
	Refresh(ctx context.Context)
}

// Server is the HTTP and WebSocket bridge.
type Server struct {
	player Player
	log    zerolog.Logger
	mux    *http.ServeMux
	addr   string
	// origins are extra origin host patterns allowed to open the WebSocket
	// and post commands. The bridge's own origin is always allowed.
	origins []string
}

// New creates a bridge for player listening on addr. Pages served from other
// origins may only connect when they match one of allowedOrigins.
func New(addr string, player Player, log zerolog.Logger, allowedOrigins ...string) *Server {
	s := &Server{
		player:  player,
		log:     log.With().Str("component", "server").Logger(),
		mux:     http.NewServeMux(),
		addr:    addr,
		origins: allowedOrigins,
	}
	s.mux.HandleFunc("GET /api/nowplaying", s.handleNowPlaying)
	s.mux.HandleFunc("GET /api/artwork", s.handleArtwork)
	s.mux.HandleFunc("POST /api/control/{command}", s.handleControl)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s
}

// Handler returns the bridge's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("bridge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Message is the JSON document describing the now-playing state. It is the
// body of GET /api/nowplaying and every WebSocket frame sent to clients.
type Message struct {
	Type       string        `json:"type"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Album      string        `json:"album"`
	Playing    bool          `json:"playing"`
	Duration   float64       `json:"duration"`
	Elapsed    float64       `json:"elapsed"`
	Position   float64       `json:"position"`
	Source     core.Source   `json:"source"`
	HasArtwork bool          `json:"has_artwork"`
	Changed    string        `json:"changed,omitempty"`
	Status     client.Status `json:"status"`
}

func newMessage(st core.NowPlayingState, status client.Status, changed nowplaying.Change, now time.Time) Message {
	m := Message{
		Type:       "nowplaying",
		Title:      st.Title,
		Artist:     st.Artist,
		Album:      st.Album,
		Playing:    st.IsPlaying,
		Duration:   st.Duration,
		Elapsed:    st.ElapsedTime,
		Position:   st.Position(now),
		Source:     core.LookupSource(st.SourceAppID),
		HasArtwork: st.HasArtwork(),
		Status:     status,
	}
	if changed != nowplaying.ChangeNone {
		m.Changed = changed.String()
	}
	return m
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newMessage(s.player.Snapshot(), s.player.Status(), nowplaying.ChangeNone, time.Now()))
}

func (s *Server) handleArtwork(w http.ResponseWriter, r *http.Request) {
	st := s.player.Snapshot()
	if !st.HasArtwork() {
		writeError(w, http.StatusNotFound, "no artwork")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(st.Artwork))
	w.Header().Set("Content-Length", strconv.Itoa(len(st.Artwork)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(st.Artwork)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if s.rejectOrigin(w, r) {
		return
	}
	name := r.PathValue("command")

	var position *float64
	if v := r.URL.Query().Get("position"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid position")
			return
		}
		position = &f
	}

	if err := s.control(r.Context(), name, position); err != nil {
		status := http.StatusBadGateway
		if nserrors.Is(err, nserrors.ErrUnknownCommand) || errors.Is(err, errMissingPosition) || errors.Is(err, errInvalidPosition) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "command": name})
}

var (
	errMissingPosition = errors.New("seek requires a position in seconds")
	errInvalidPosition = errors.New("invalid position")
)

// control runs a named command. position is required for seek only.
func (s *Server) control(ctx context.Context, name string, position *float64) error {
	switch name {
	case "refresh":
		s.player.Refresh(ctx)
		return nil
	case "seek":
		if position == nil {
			return errMissingPosition
		}
		if p := *position; p < 0 || math.IsNaN(p) || math.IsInf(p, 0) || p >= math.MaxInt64/float64(time.Second) {
			return fmt.Errorf("%w: %v", errInvalidPosition, p)
		}
		return s.player.SeekTo(ctx, time.Duration(*position*float64(time.Second)))
	}

	cmd, ok := core.ParseCommand(name)
	if !ok {
		return fmt.Errorf("%w: %s", nserrors.ErrUnknownCommand, name)
	}
	return s.player.Execute(ctx, cmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
