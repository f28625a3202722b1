package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is only ever touched by the owning
// room's tick goroutine.
type Session struct {
	ID   uint64
	conn *websocket.Conn

	// OutQueue is drained by the writer goroutine.
	OutQueue chan []byte

	// outBuf holds messages buffered during a tick; FlushOutput moves them
	// to OutQueue once per tick. Touched only by the room goroutine.
	outBuf [][]byte

	IP string

	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second message rate limiter (read goroutine only, no lock).
	msgPerSec  int
	msgCount   int
	msgResetAt int64

	log *zap.Logger
}

func NewSession(conn *websocket.Conn, id uint64, outSize, msgPerSec int, writeTimeout time.Duration, log *zap.Logger) *Session {
	return &Session{
		ID:           id,
		conn:         conn,
		OutQueue:     make(chan []byte, outSize),
		IP:           conn.RemoteAddr().String(),
		writeTimeout: writeTimeout,
		closeCh:      make(chan struct{}),
		msgPerSec:    msgPerSec,
		log:          log.With(zap.Uint64("session", id)),
	}
}

// NewLocalSession creates an in-process session with no socket. Output
// accumulates in OutQueue instead of going to a writer goroutine; headless
// tooling and tests drain it directly.
func NewLocalSession(id uint64, log *zap.Logger) *Session {
	return &Session{
		ID:       id,
		OutQueue: make(chan []byte, 256),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
}

// Send buffers a message for this connection. Not written to the socket
// until FlushOutput runs at the end of the tick. Room goroutine only.
func (s *Session) Send(data []byte) {
	if data == nil || s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writer
// goroutine. Non-blocking: a full queue means a client that cannot keep up
// with the patch rate, and the session is dropped (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow connection")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Close shuts the session down. Safe to call from any goroutine, any
// number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// allowMessage applies the per-second inbound rate limit. Called from the
// read goroutine only.
func (s *Session) allowMessage() bool {
	if s.msgPerSec <= 0 {
		return true
	}
	now := time.Now().Unix()
	if now != s.msgResetAt {
		s.msgCount = 0
		s.msgResetAt = now
	}
	s.msgCount++
	if s.msgCount > s.msgPerSec {
		s.log.Warn("message rate exceeded, dropping connection", zap.Int("mps", s.msgCount))
		return false
	}
	return true
}

// writeLoop runs in its own goroutine, draining OutQueue to the socket.
func (s *Session) writeLoop() {
	defer s.Close()
	for {
		select {
		case data := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
