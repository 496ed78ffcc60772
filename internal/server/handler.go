package server

import (
	"context"
	"iter"

	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/filter"
	"github.com/KilimcininKorOglu/fakeldap/internal/ldap"
)

// SearchResult represents the result of a search operation.
type SearchResult struct {
	OperationResult
	// Entries yields the matching entries; nil when the search failed.
	Entries iter.Seq[*directory.Entry]
}

// Handler answers decoded requests from the directory service.
type Handler struct {
	dir       *directory.Service
	evaluator *filter.Evaluator
}

// NewHandler creates a Handler over dir.
func NewHandler(dir *directory.Service) *Handler {
	return &Handler{
		dir:       dir,
		evaluator: filter.NewEvaluator(),
	}
}

// HandleBind authenticates the connection. The connection is unbound while
// the request is evaluated and stays unbound unless the bind succeeds.
func (h *Handler) HandleBind(ctx context.Context, conn *Connection, req *ldap.BindRequest) *OperationResult {
	conn.setPrincipal(nil)

	if req.Version != 3 {
		return &OperationResult{
			ResultCode:        ldap.ResultProtocolError,
			DiagnosticMessage: "unsupported protocol version",
		}
	}
	if req.AuthMethod != ldap.AuthMethodSimple {
		return &OperationResult{
			ResultCode:        ldap.ResultAuthMethodNotSupported,
			DiagnosticMessage: "only simple bind is supported",
		}
	}

	p, err := h.dir.Bind(ctx, req.Name, req.Password)
	if err != nil {
		return resultFromError(err)
	}

	conn.setPrincipal(p)
	return success()
}

// HandleSearch runs a search for the connection's bound identity.
func (h *Handler) HandleSearch(ctx context.Context, conn *Connection, req *ldap.SearchRequest) *SearchResult {
	entries, err := h.dir.Search(ctx, conn.Principal(), req.BaseDN, h.evaluator.Matcher(req.Filter))
	if err != nil {
		return &SearchResult{OperationResult: *resultFromError(err)}
	}
	return &SearchResult{OperationResult: *success(), Entries: entries}
}

// HandleAdd creates an entry for the connection's bound identity.
func (h *Handler) HandleAdd(ctx context.Context, conn *Connection, req *ldap.AddRequest) *OperationResult {
	err := h.dir.Add(ctx, conn.Principal(), req.Entry, req.AttributeMap())
	return resultFromError(err)
}

// entryAttributes converts an entry to protocol attributes in entry order.
func entryAttributes(e *directory.Entry) []ldap.Attribute {
	attrs := make([]ldap.Attribute, 0, len(e.Attributes))
	for name, values := range e.OrderedAttributes() {
		attrs = append(attrs, ldap.Attribute{Type: name, Values: values})
	}
	return attrs
}
