// Package remote exposes the viewer's UI event surface over a websocket
// control channel and an HTTP state endpoint.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/vehicle"
	"github.com/Faultbox/carviewer/internal/logger"
	"github.com/Faultbox/carviewer/internal/viewer"
)

// ErrClosed is reported to clients whose command was still queued when the
// server shut down.
var ErrClosed = errors.New("remote server closed")

// ErrLoadDisabled is returned for load commands unless WithLoad(true) was
// given.
var ErrLoadDisabled = errors.New("load is disabled on this server")

// Target is the viewer surface the server drives. Post and Snapshot are
// called from connection goroutines; every other method is only called from
// inside a posted function.
type Target interface {
	Post(fn func())
	Snapshot() viewer.State

	RequestPose(name string) error
	SetSteer(dir vehicle.SteerState) vehicle.SteerState
	SetExposure(value float32)
	Orbit(deltaX, deltaY float32)
	Zoom(delta float32)
	Load(ctx context.Context, path string)
	ViewState() viewer.ViewState
}

var _ Target = (*viewer.Viewer)(nil)

// Server serves /ws (control), /state (snapshot JSON) and /healthz.
type Server struct {
	target    Target
	allowLoad bool
	upgrader  websocket.Upgrader
	mux      *http.ServeMux
	http     *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	log *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLoad lets clients open model files by path.
func WithLoad(allow bool) Option {
	return func(s *Server) { s.allowLoad = allow }
}

// NewServer creates a server for target listening on addr.
func NewServer(addr string, target Target, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		target: target,
		upgrader: websocket.Upgrader{
			CheckOrigin: localOrigin,
		},
		mux:     http.NewServeMux(),
		clients: map[*websocket.Conn]struct{}{},
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.Named("remote"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("/ws", s.HandleControlWS)
	s.mux.HandleFunc("/state", s.HandleState)
	s.mux.HandleFunc("/healthz", s.HandleHealth)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// localOrigin accepts requests without an Origin header (non-browser
// clients) and pages served from a loopback host.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handler returns the route table, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.log.Info("remote control listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, closes open sockets and releases
// handlers still waiting on the frame loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		for c := range s.clients {
			c.Close()
		}
		s.clients = map[*websocket.Conn]struct{}{}
		s.mu.Unlock()
	})
	return s.http.Shutdown(ctx)
}

// Clients returns the number of open control sockets.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// HandleControlWS upgrades the request and answers one Reply per message.
func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err), zap.String("origin", r.Header.Get("Origin")))
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	s.log.Debug("client connected", zap.String("remote", r.RemoteAddr))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := s.execute(data)
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.clients[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// execute decodes one message, runs it on the frame goroutine and waits for
// the outcome.
func (s *Server) execute(data []byte) Reply {
	cmd, act, err := decode(data)
	reply := Reply{ID: cmd.ID, Type: cmd.Type}
	if err == nil && cmd.Type == TypeLoad && !s.allowLoad {
		err = ErrLoadDisabled
	}
	if err != nil {
		reply.Error = err.Error()
		s.log.Warn("rejected command", zap.String("type", cmd.Type), zap.Error(err))
		return reply
	}

	done := make(chan Reply, 1)
	s.target.Post(func() {
		r := reply
		if err := act(s.ctx, s.target, &r); err != nil {
			r.Error = err.Error()
		} else {
			r.OK = true
		}
		vs := s.target.ViewState()
		r.View = &vs
		done <- r
	})

	select {
	case r := <-done:
		if r.Error != "" {
			s.log.Info("command failed", zap.String("type", r.Type), zap.String("error", r.Error))
		}
		return r
	case <-s.ctx.Done():
		reply.Error = ErrClosed.Error()
		return reply
	}
}

// HandleState writes the last published snapshot.
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.target.Snapshot()); err != nil {
		s.log.Debug("state encode failed", zap.Error(err))
	}
}

// HandleHealth reports liveness and the open socket count.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.target.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"frames":  snap.Frames,
		"clients": s.Clients(),
		"loaded":  snap.AssetLoaded,
	})
}
