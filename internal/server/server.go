package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/KilimcininKorOglu/fakeldap/internal/config"
	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
)

// Server errors.
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
)

// Server accepts LDAP connections and serves them from a directory.
type Server struct {
	config  config.ServerConfig
	handler *Handler
	logger  logging.Logger

	listener net.Listener
	conns    map[*Connection]struct{}
	running  bool
	mu       sync.Mutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a Server for dir. It does not listen until Start is called.
func New(cfg config.ServerConfig, dir *directory.Service, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		config:  cfg,
		handler: NewHandler(dir),
		logger:  logger,
		conns:   make(map[*Connection]struct{}),
	}
}

// Start binds the listen address and serves connections in the background.
// It returns once the listener is open.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		return err
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	s.logger.Info("LDAP server listening", "address", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptConnections(listener)

	return nil
}

// Addr returns the listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to exit or ctx to end.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrServerNotRunning
	}
	s.running = false

	listener := s.listener
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.cancel()
	listener.Close()
	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("LDAP server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptConnections(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept error", "error", err.Error())
				continue
			}
		}

		c := NewConnection(conn, s.handler, s.logger)
		c.SetTimeouts(s.config.ReadTimeout, s.config.WriteTimeout)

		if !s.track(c) {
			if s.ctx.Err() == nil {
				s.logger.Warn("connection limit reached, rejecting client",
					"client", conn.RemoteAddr().String(),
					"max_connections", s.config.MaxConnections)
			}
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(c)
	}
}

func (s *Server) handleConnection(c *Connection) {
	defer s.wg.Done()
	defer s.untrack(c)

	c.Handle(s.ctx)
}

// track registers c unless the server is stopping or full.
func (s *Server) track(c *Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	if s.config.MaxConnections > 0 && len(s.conns) >= s.config.MaxConnections {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// ConnectionCount returns the number of open client connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
