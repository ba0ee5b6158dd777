package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// TCPServer accepts framed TCP connections.
type TCPServer struct {
	listener net.Listener
	hub      *Hub
	timeout  time.Duration
	log      *zap.Logger
}

func ListenTCP(addr string, hub *Hub, writeTimeout time.Duration, log *zap.Logger) (*TCPServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &TCPServer{listener: ln, hub: hub, timeout: writeTimeout, log: log}, nil
}

// Serve accepts connections until ctx is cancelled.
func (s *TCPServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.hub.Attach(NewTCPConn(conn, s.timeout))
	}
}

func (s *TCPServer) Addr() net.Addr {
	return s.listener.Addr()
}

// WSServer accepts WebSocket connections carrying one message per binary
// frame.
type WSServer struct {
	hub     *Hub
	timeout time.Duration
	log     *zap.Logger
}

func NewWSServer(hub *Hub, writeTimeout time.Duration, log *zap.Logger) *WSServer {
	return &WSServer{hub: hub, timeout: writeTimeout, log: log}
}

func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debug("websocket accept failed", zap.Error(err))
		return
	}
	sess := s.hub.Attach(NewWSConn(c, r.RemoteAddr, s.timeout))
	if sess == nil {
		return
	}
	// the connection belongs to the session until it closes
	select {
	case <-sess.Done():
	case <-r.Context().Done():
		sess.Close()
	}
}

// ListenAndServe serves WebSocket clients on addr until ctx is cancelled.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
