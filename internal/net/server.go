package net

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/duskspire/server/internal/config"
)

// Gateway routes raw messages from sessions into room inboxes. Implemented
// by the room manager; net stays ignorant of room internals.
type Gateway interface {
	// HandleJoin consumes the first message of a connection. A non-nil
	// error closes the connection.
	HandleJoin(sess *Session, raw []byte) error
	// HandleMessage consumes every subsequent message.
	HandleMessage(sess *Session, raw []byte)
	// HandleDisconnect fires exactly once when the connection dies.
	HandleDisconnect(sess *Session)
}

// Server upgrades websocket connections and pumps their messages into the
// gateway. Each connection gets a read goroutine (this handler) and a
// write goroutine (session writeLoop).
type Server struct {
	gateway  Gateway
	cfg      config.NetworkConfig
	rate     config.RateLimitConfig
	nextID   atomic.Uint64
	upgrader websocket.Upgrader
	log      *zap.Logger
	httpSrv  *http.Server
}

func NewServer(gateway Gateway, cfg config.NetworkConfig, rate config.RateLimitConfig, log *zap.Logger) *Server {
	return &Server{
		gateway: gateway,
		cfg:     cfg,
		rate:    rate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: s.cfg.BindAddress, Handler: mux}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	mps := 0
	if s.rate.Enabled {
		mps = s.rate.MessagesPerSecond
	}
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.cfg.OutQueueSize, mps, s.cfg.WriteTimeout, s.log)
	s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

	go sess.writeLoop()
	defer func() {
		sess.Close()
		s.gateway.HandleDisconnect(sess)
		s.log.Info("client disconnected", zap.Uint64("session", id))
	}()

	// First message must be a join request.
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	if err := s.gateway.HandleJoin(sess, raw); err != nil {
		s.log.Debug("join rejected", zap.Uint64("session", id), zap.Error(err))
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !sess.allowMessage() {
			return
		}
		s.gateway.HandleMessage(sess, raw)
	}
}
