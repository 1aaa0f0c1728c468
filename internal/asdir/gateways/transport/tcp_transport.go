package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/gateways/wire"
)

// TCPTransport carries the session protocol over persistent TCP
// connections: one connection per client, length-framed binary messages,
// strictly one in-flight request — the next frame is not read until the
// current response has been written.
type TCPTransport struct {
	addr     string
	maxConns int
	codec    wire.Codec
	logger   log.Logger

	mu       sync.RWMutex
	running  bool
	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewTCPTransport creates a TCP transport bound to addr. maxConns caps
// concurrent client connections; zero means unlimited.
func NewTCPTransport(addr string, maxConns int, codec wire.Codec, logger log.Logger) *TCPTransport {
	return &TCPTransport{
		addr:     addr,
		maxConns: maxConns,
		codec:    codec,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start binds the listener and launches the accept loop.
func (t *TCPTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP transport already running")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", t.addr, err)
	}
	if t.maxConns > 0 {
		ln = netutil.LimitListener(ln, t.maxConns)
	}

	t.listener = ln
	t.running = true

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   ln.Addr().String(),
		"max_conns": t.maxConns,
	}, "session transport started")

	t.wg.Add(1)
	go t.acceptLoop(ctx, handler)

	return nil
}

// Stop closes the listener and waits for connection tasks to drain.
func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	close(t.stopCh)
	closeErr := t.listener.Close()
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "session transport stopped")
	return closeErr
}

// Address returns the bound address, resolved after Start (useful when
// binding to port 0).
func (t *TCPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

func (t *TCPTransport) acceptLoop(ctx context.Context, handler RequestHandler) {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			t.mu.RLock()
			running := t.running
			t.mu.RUnlock()
			if !running || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{"error": err.Error()}, "failed to accept connection")
			continue
		}
		t.wg.Add(1)
		go t.serveConn(ctx, conn, handler)
	}
}

// serveConn runs one connection's session until it closes: read one frame,
// dispatch, write one response, repeat for repeatable request kinds.
// Protocol violations and handler refusals end the session with a plain
// close — no error frame is sent.
func (t *TCPTransport) serveConn(ctx context.Context, conn net.Conn, handler RequestHandler) {
	defer t.wg.Done()
	defer func() { _ = conn.Close() }()

	// Unblock the pending read when the server shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-t.stopCh:
			_ = conn.Close()
		case <-done:
		}
	}()

	client := conn.RemoteAddr()
	for {
		payload, err := wire.ReadFrame(conn, wire.MaxRequestFrame)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				t.logger.Debug(map[string]any{"client": client.String()}, "client closed connection")
			} else {
				t.logger.Warn(map[string]any{
					"client": client.String(),
					"error":  err.Error(),
				}, "closing connection on bad frame")
			}
			return
		}

		req, err := t.codec.DecodeRequest(payload)
		if err != nil {
			t.logger.Warn(map[string]any{
				"client": client.String(),
				"error":  err.Error(),
				"size":   len(payload),
			}, "closing connection on undecodable request")
			return
		}

		t.logger.Debug(map[string]any{
			"client": client.String(),
			"kind":   req.Kind.String(),
		}, "received request")

		resp, err := handler.Handle(ctx, req, client)
		if err != nil {
			// Rate-limit refusals, validation failures, and store errors
			// all close without a response frame.
			t.logger.Warn(map[string]any{
				"client": client.String(),
				"kind":   req.Kind.String(),
				"error":  err.Error(),
			}, "closing connection on request failure")
			return
		}

		data, err := t.codec.EncodeResponse(resp)
		if err != nil {
			t.logger.Error(map[string]any{
				"client": client.String(),
				"kind":   req.Kind.String(),
				"error":  err.Error(),
			}, "failed to encode response")
			return
		}
		if err := wire.WriteFrame(conn, data); err != nil {
			t.logger.Warn(map[string]any{
				"client": client.String(),
				"error":  err.Error(),
			}, "failed to write response")
			return
		}

		t.logger.Debug(map[string]any{
			"client":  client.String(),
			"kind":    req.Kind.String(),
			"size":    len(data),
			"records": len(resp.Records),
		}, "sent response")

		if req.Kind.OneShot() {
			return
		}
	}
}
