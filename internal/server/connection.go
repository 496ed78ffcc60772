package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	ber "github.com/go-asn1-ber/asn1-ber"

	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/ldap"
	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
)

// Connection errors
var (
	// ErrConnectionClosed is returned when writing to a closed connection
	ErrConnectionClosed = errors.New("server: connection closed")
)

// Connection is one client connection and its bind state.
type Connection struct {
	// conn is the underlying network connection
	conn net.Conn
	// handler answers decoded requests
	handler *Handler
	// readTimeout and writeTimeout bound each read and write; zero disables
	readTimeout  time.Duration
	writeTimeout time.Duration
	// principal is the bound identity, nil when unbound
	principal *directory.Principal
	// mu protects principal and closed
	mu     sync.Mutex
	closed bool
	// logger carries the connection's request id
	logger    logging.Logger
	requestID string
	startTime time.Time
}

// NewConnection wraps conn. The logger is tagged with a fresh request id.
func NewConnection(conn net.Conn, handler *Handler, logger logging.Logger) *Connection {
	if logger == nil {
		logger = logging.NewNop()
	}
	requestID := logging.GenerateRequestID()

	return &Connection{
		conn:      conn,
		handler:   handler,
		logger:    logger.WithRequestID(requestID),
		requestID: requestID,
		startTime: time.Now(),
	}
}

// SetTimeouts sets the per-read and per-write deadlines.
func (c *Connection) SetTimeouts(read, write time.Duration) {
	c.readTimeout = read
	c.writeTimeout = write
}

// Handle runs the message loop until the client unbinds, the connection
// fails, or ctx is canceled.
func (c *Connection) Handle(ctx context.Context) {
	c.logger.Info("connection established", "client", c.RemoteAddr().String())

	defer func() {
		c.logger.Info("connection closed",
			"client", c.RemoteAddr().String(),
			"duration_ms", time.Since(c.startTime).Milliseconds())
		c.Close()
	}()

	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		if c.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		msg, err := ldap.ReadMessage(c.conn)
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.dispatch(ctx, msg) {
			return
		}
	}
}

func (c *Connection) logReadError(err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), c.isClosed():
	case errors.As(err, &netErr) && netErr.Timeout():
		c.logger.Info("idle timeout", "client", c.RemoteAddr().String())
	default:
		c.logger.Warn("protocol error",
			"error", err.Error(),
			"client", c.RemoteAddr().String())
	}
}

// dispatch handles one message and reports whether the loop should go on.
func (c *Connection) dispatch(ctx context.Context, msg *ldap.Message) bool {
	switch msg.Operation {
	case ldap.OpUnbindRequest:
		c.logger.Debug("unbind request received", "message_id", msg.ID)
		return false
	case ldap.OpAbandonRequest:
		c.logger.Debug("abandon request ignored", "message_id", msg.ID)
		return true
	case ldap.OpBindRequest:
		return c.handleBind(ctx, msg)
	case ldap.OpSearchRequest:
		return c.handleSearch(ctx, msg)
	case ldap.OpAddRequest:
		return c.handleAdd(ctx, msg)
	}

	respType, ok := msg.Operation.ResponseType()
	if !ok {
		c.logger.Warn("unknown operation",
			"operation", msg.Operation.String(),
			"message_id", msg.ID)
		return false
	}

	c.logger.Debug("unsupported operation",
		"operation", msg.Operation.String(),
		"message_id", msg.ID)
	return c.writeResult(msg.ID, respType, &OperationResult{
		ResultCode:        ldap.ResultUnwillingToPerform,
		DiagnosticMessage: "operation not supported",
	})
}

func (c *Connection) handleBind(ctx context.Context, msg *ldap.Message) bool {
	start := time.Now()

	req, err := ldap.ParseBindRequest(msg.Op)
	if err != nil {
		c.logger.Warn("bind request parse error",
			"error", err.Error(),
			"message_id", msg.ID)
		return c.writeResult(msg.ID, ldap.OpBindResponse, &OperationResult{
			ResultCode:        ldap.ResultProtocolError,
			DiagnosticMessage: "invalid bind request",
		})
	}

	c.logger.Debug("bind request",
		"dn", req.Name,
		"version", req.Version,
		"auth_method", req.AuthMethod.String(),
		"anonymous", req.IsAnonymous(),
		"message_id", msg.ID)

	result := c.handler.HandleBind(ctx, c, req)

	if result.ResultCode == ldap.ResultSuccess {
		c.logger.Info("bind successful",
			"dn", req.Name,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.Warn("bind failed",
			"dn", req.Name,
			"result_code", result.ResultCode.String(),
			"error", result.DiagnosticMessage,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return c.writeResult(msg.ID, ldap.OpBindResponse, result)
}

func (c *Connection) handleSearch(ctx context.Context, msg *ldap.Message) bool {
	start := time.Now()

	req, err := ldap.ParseSearchRequest(msg.Op)
	if err != nil {
		c.logger.Warn("search request parse error",
			"error", err.Error(),
			"message_id", msg.ID)
		return c.writeResult(msg.ID, ldap.OpSearchResultDone, &OperationResult{
			ResultCode:        ldap.ResultProtocolError,
			DiagnosticMessage: "invalid search request",
		})
	}

	c.logger.Debug("search request",
		"base_dn", req.BaseDN,
		"scope", req.Scope.String(),
		"filter", req.FilterString,
		"message_id", msg.ID)

	result := c.handler.HandleSearch(ctx, c, req)

	count := 0
	if result.Entries != nil {
		for e := range result.Entries {
			attrs := ldap.SelectAttributes(entryAttributes(e), req.Attributes, req.TypesOnly)
			if err := c.write(ldap.EncodeSearchEntry(msg.ID, e.DN, attrs)); err != nil {
				c.logger.Warn("search entry write error",
					"error", err.Error(),
					"base_dn", req.BaseDN)
				return false
			}
			count++
		}
	}

	if result.ResultCode == ldap.ResultSuccess {
		c.logger.Info("search completed",
			"base_dn", req.BaseDN,
			"filter", req.FilterString,
			"results", count,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.Warn("search failed",
			"base_dn", req.BaseDN,
			"result_code", result.ResultCode.String(),
			"error", result.DiagnosticMessage,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return c.writeResult(msg.ID, ldap.OpSearchResultDone, &result.OperationResult)
}

func (c *Connection) handleAdd(ctx context.Context, msg *ldap.Message) bool {
	start := time.Now()

	req, err := ldap.ParseAddRequest(msg.Op)
	if err != nil {
		c.logger.Warn("add request parse error",
			"error", err.Error(),
			"message_id", msg.ID)
		return c.writeResult(msg.ID, ldap.OpAddResponse, &OperationResult{
			ResultCode:        ldap.ResultProtocolError,
			DiagnosticMessage: "invalid add request",
		})
	}

	c.logger.Debug("add request",
		"entry", req.Entry,
		"attributes_count", len(req.Attributes),
		"message_id", msg.ID)

	result := c.handler.HandleAdd(ctx, c, req)

	if result.ResultCode == ldap.ResultSuccess {
		c.logger.Info("add successful",
			"entry", req.Entry,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.Warn("add failed",
			"entry", req.Entry,
			"result_code", result.ResultCode.String(),
			"error", result.DiagnosticMessage,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return c.writeResult(msg.ID, ldap.OpAddResponse, result)
}

func (c *Connection) writeResult(id int64, op ldap.OperationType, r *OperationResult) bool {
	err := c.write(ldap.EncodeResult(id, op, &ldap.Result{
		Code:              r.ResultCode,
		MatchedDN:         r.MatchedDN,
		DiagnosticMessage: r.DiagnosticMessage,
	}))
	if err != nil {
		c.logger.Warn("write error",
			"error", err.Error(),
			"client", c.RemoteAddr().String())
		return false
	}
	return true
}

func (c *Connection) write(p *ber.Packet) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return ldap.WritePacket(c.conn, p)
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Principal returns the bound identity, nil when unbound.
func (c *Connection) Principal() *directory.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

func (c *Connection) setPrincipal(p *directory.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.principal = p
}

// RemoteAddr returns the client address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// RequestID returns the id attached to this connection's log lines.
func (c *Connection) RequestID() string {
	return c.requestID
}
