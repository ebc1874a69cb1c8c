package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBufferSize   = 1024
	defaultWorkers      = 64
	defaultDrainTimeout = 10 * time.Second
)

// Handler processes one datagram payload and returns the reply text.
type Handler interface {
	Execute(ctx context.Context, payload []byte) string
}

// Server owns the datagram socket. A dedicated receive loop reads packets and
// hands each one to a bounded pool of handler goroutines, so a slow command
// never blocks reception of the next datagram. Replies are best-effort
// single datagrams back to the sender.
type Server struct {
	addr         string
	handler      Handler
	log          *zap.Logger
	bufferSize   int
	drainTimeout time.Duration

	conn    *net.UDPConn
	workers chan struct{}
	wg      sync.WaitGroup
	ready   chan struct{}
}

type Option func(*Server)

// WithBufferSize caps the receive buffer. Oversized datagrams are truncated
// and parsed as-is; rejection happens at the protocol layer, not here.
func WithBufferSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithWorkers bounds the number of concurrently processed datagrams.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = make(chan struct{}, n)
		}
	}
}

func WithDrainTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

func NewServer(addr string, handler Handler, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.L()
	}
	s := &Server{
		addr:         addr,
		handler:      handler,
		log:          logger.With(zap.String("component", "udp_server")),
		bufferSize:   defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		workers:      make(chan struct{}, defaultWorkers),
		ready:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe binds the socket and serves until ctx is cancelled, then
// closes the socket and waits for in-flight handlers to finish. Handlers are
// never aborted mid-mutation; the drain timeout only bounds the final wait.
func (s *Server) ListenAndServe(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("udp: resolve %s: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("udp: listen %s: %w", s.addr, err)
	}
	s.conn = conn
	close(s.ready)
	s.log.Info("udp_server_started", zap.String("addr", conn.LocalAddr().String()))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, s.bufferSize)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn("udp_receive_error", zap.Error(err))
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		// Block here, not in the handler: backpressure on the receive
		// loop keeps the worker count bounded.
		s.workers <- struct{}{}
		s.wg.Add(1)
		go s.handle(ctx, payload, raddr)
	}

	return s.drain()
}

// LocalAddr reports the bound address once ListenAndServe has opened the
// socket. It blocks until then.
func (s *Server) LocalAddr() net.Addr {
	<-s.ready
	return s.conn.LocalAddr()
}

func (s *Server) handle(ctx context.Context, payload []byte, raddr *net.UDPAddr) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler_panic",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
		<-s.workers
		s.wg.Done()
	}()

	reply := s.handler.Execute(context.WithoutCancel(ctx), payload)
	if _, err := s.conn.WriteToUDP([]byte(reply), raddr); err != nil {
		// Fire-and-forget transport; the client retries or gives up.
		s.log.Debug("udp_reply_failed", zap.String("peer", raddr.String()), zap.Error(err))
	}
}

func (s *Server) drain() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("udp_server_stopped")
		return nil
	case <-time.After(s.drainTimeout):
		s.log.Warn("udp_server_drain_timeout")
		return errors.New("udp: shutdown drain timed out")
	}
}
