package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// ErrConnClosed is returned by in-memory connections after Close.
var ErrConnClosed = errors.New("connection closed")

// Conn is one message-oriented client connection. Read and Write may run
// concurrently with each other; Close unblocks both.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
	RemoteAddr() string
}

// tcpConn carries messages as length-prefixed frames.
type tcpConn struct {
	c       net.Conn
	timeout time.Duration
}

func NewTCPConn(c net.Conn, writeTimeout time.Duration) Conn {
	return &tcpConn{c: c, timeout: writeTimeout}
}

func (t *tcpConn) Read(context.Context) ([]byte, error) {
	return ReadFrame(t.c)
}

func (t *tcpConn) Write(_ context.Context, data []byte) error {
	if t.timeout > 0 {
		t.c.SetWriteDeadline(time.Now().Add(t.timeout))
	}
	return WriteFrame(t.c, data)
}

func (t *tcpConn) Close() error       { return t.c.Close() }
func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

// wsConn carries one message per binary WebSocket message.
type wsConn struct {
	c       *websocket.Conn
	addr    string
	timeout time.Duration
}

func NewWSConn(c *websocket.Conn, addr string, writeTimeout time.Duration) Conn {
	return &wsConn{c: c, addr: addr, timeout: writeTimeout}
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := w.c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageBinary {
		return nil, fmt.Errorf("unexpected websocket message type %v", typ)
	}
	return data, nil
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return w.c.Write(ctx, websocket.MessageBinary, data)
}

func (w *wsConn) Close() error       { return w.c.Close(websocket.StatusNormalClosure, "") }
func (w *wsConn) RemoteAddr() string { return w.addr }

// pipeConn is one end of an in-memory connection pair.
type pipeConn struct {
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	once   *sync.Once
	name   string
}

// Pipe returns two connected in-memory ends. Closing either end closes both.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	closed := make(chan struct{})
	once := &sync.Once{}
	a := &pipeConn{in: ba, out: ab, closed: closed, once: once, name: "pipe-a"}
	b := &pipeConn{in: ab, out: ba, closed: closed, once: once, name: "pipe-b"}
	return a, b
}

func (p *pipeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, ErrConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeConn) Write(ctx context.Context, data []byte) error {
	select {
	case <-p.closed:
		return ErrConnClosed
	default:
	}
	select {
	case p.out <- append([]byte(nil), data...):
		return nil
	case <-p.closed:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeConn) RemoteAddr() string { return p.name }
