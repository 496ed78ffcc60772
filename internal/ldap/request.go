package ldap

import (
	"errors"
	"fmt"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"

	"github.com/KilimcininKorOglu/fakeldap/internal/filter"
)

// Authentication choice tags (context-specific).
const (
	AuthSimple = 0
	AuthSASL   = 3
)

// Request errors
var (
	ErrInvalidBindRequest   = errors.New("ldap: invalid bind request")
	ErrInvalidSearchRequest = errors.New("ldap: invalid search request")
	ErrInvalidAddRequest    = errors.New("ldap: invalid add request")
)

// AuthMethod is the authentication choice of a bind request.
type AuthMethod int

const (
	// AuthMethodSimple is a DN and password bind.
	AuthMethodSimple AuthMethod = iota
	// AuthMethodSASL is a SASL bind.
	AuthMethodSASL
)

func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimple:
		return "simple"
	case AuthMethodSASL:
		return "sasl"
	default:
		return "unknown"
	}
}

// BindRequest is a decoded BindRequest.
type BindRequest struct {
	// Version is the requested protocol version.
	Version int64
	// Name is the DN being bound, empty for anonymous binds.
	Name string
	// AuthMethod is the authentication choice.
	AuthMethod AuthMethod
	// Password is the simple credential.
	Password string
	// SASLMechanism is set for SASL binds.
	SASLMechanism string
}

// IsAnonymous reports whether the request is a simple bind with an empty
// name and password.
func (r *BindRequest) IsAnonymous() bool {
	return r.AuthMethod == AuthMethodSimple && r.Name == "" && r.Password == ""
}

// ParseBindRequest decodes the protocolOp of a bind request.
func ParseBindRequest(op *ber.Packet) (*BindRequest, error) {
	if len(op.Children) != 3 {
		return nil, fmt.Errorf("%w: expected 3 elements, got %d", ErrInvalidBindRequest, len(op.Children))
	}

	version, err := intValue(op.Children[0])
	if err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrInvalidBindRequest, err)
	}
	name, err := stringValue(op.Children[1])
	if err != nil {
		return nil, fmt.Errorf("%w: name: %v", ErrInvalidBindRequest, err)
	}

	req := &BindRequest{Version: version, Name: name}

	auth := op.Children[2]
	if auth.ClassType != ber.ClassContext {
		return nil, fmt.Errorf("%w: authentication must be context-specific", ErrInvalidBindRequest)
	}
	switch auth.Tag {
	case AuthSimple:
		req.AuthMethod = AuthMethodSimple
		req.Password = rawString(auth)
	case AuthSASL:
		req.AuthMethod = AuthMethodSASL
		if len(auth.Children) > 0 {
			req.SASLMechanism = rawString(auth.Children[0])
		}
	default:
		return nil, fmt.Errorf("%w: authentication tag %d", ErrInvalidBindRequest, auth.Tag)
	}

	return req, nil
}

// SearchScope is the scope of a search request.
type SearchScope int64

const (
	ScopeBaseObject   SearchScope = goldap.ScopeBaseObject
	ScopeSingleLevel  SearchScope = goldap.ScopeSingleLevel
	ScopeWholeSubtree SearchScope = goldap.ScopeWholeSubtree
)

func (s SearchScope) String() string {
	if name, ok := goldap.ScopeMap[int(s)]; ok {
		return name
	}
	return "Unknown"
}

// SearchRequest is a decoded SearchRequest.
type SearchRequest struct {
	// BaseDN is the search base.
	BaseDN string
	// Scope is the requested scope.
	Scope SearchScope
	// DerefAliases is the alias dereferencing policy. It is not used.
	DerefAliases int64
	// SizeLimit is the requested maximum number of entries. It is not enforced.
	SizeLimit int64
	// TimeLimit is the requested time limit in seconds. It is not enforced.
	TimeLimit int64
	// TypesOnly asks for attribute names without values.
	TypesOnly bool
	// Filter is the decoded search filter.
	Filter *filter.Filter
	// FilterString is the RFC 4515 form of the filter, for logging.
	FilterString string
	// Attributes lists the requested attribute names.
	Attributes []string
}

// ParseSearchRequest decodes the protocolOp of a search request.
func ParseSearchRequest(op *ber.Packet) (*SearchRequest, error) {
	if len(op.Children) != 8 {
		return nil, fmt.Errorf("%w: expected 8 elements, got %d", ErrInvalidSearchRequest, len(op.Children))
	}

	var (
		req = &SearchRequest{}
		err error
	)

	if req.BaseDN, err = stringValue(op.Children[0]); err != nil {
		return nil, fmt.Errorf("%w: baseObject: %v", ErrInvalidSearchRequest, err)
	}
	scope, err := intValue(op.Children[1])
	if err != nil {
		return nil, fmt.Errorf("%w: scope: %v", ErrInvalidSearchRequest, err)
	}
	req.Scope = SearchScope(scope)
	if req.DerefAliases, err = intValue(op.Children[2]); err != nil {
		return nil, fmt.Errorf("%w: derefAliases: %v", ErrInvalidSearchRequest, err)
	}
	if req.SizeLimit, err = intValue(op.Children[3]); err != nil {
		return nil, fmt.Errorf("%w: sizeLimit: %v", ErrInvalidSearchRequest, err)
	}
	if req.TimeLimit, err = intValue(op.Children[4]); err != nil {
		return nil, fmt.Errorf("%w: timeLimit: %v", ErrInvalidSearchRequest, err)
	}
	if req.TypesOnly, err = boolValue(op.Children[5]); err != nil {
		return nil, fmt.Errorf("%w: typesOnly: %v", ErrInvalidSearchRequest, err)
	}

	filterPacket := op.Children[6]
	if req.Filter, err = filter.FromPacket(filterPacket); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSearchRequest, err)
	}
	if s, err := goldap.DecompileFilter(filterPacket); err == nil {
		req.FilterString = s
	}

	for _, a := range op.Children[7].Children {
		name, err := stringValue(a)
		if err != nil {
			return nil, fmt.Errorf("%w: attributes: %v", ErrInvalidSearchRequest, err)
		}
		req.Attributes = append(req.Attributes, name)
	}

	return req, nil
}

// Attribute is an attribute type with its values.
type Attribute struct {
	Type   string
	Values []string
}

// AddRequest is a decoded AddRequest.
type AddRequest struct {
	// Entry is the DN of the entry to add.
	Entry string
	// Attributes holds the entry's attributes in request order.
	Attributes []Attribute
}

// AttributeMap returns the attributes keyed by lowercased type. Values of a
// type listed twice are concatenated.
func (r *AddRequest) AttributeMap() map[string][]string {
	m := make(map[string][]string, len(r.Attributes))
	for _, a := range r.Attributes {
		key := strings.ToLower(a.Type)
		m[key] = append(m[key], a.Values...)
	}
	return m
}

// ParseAddRequest decodes the protocolOp of an add request.
func ParseAddRequest(op *ber.Packet) (*AddRequest, error) {
	if len(op.Children) != 2 {
		return nil, fmt.Errorf("%w: expected 2 elements, got %d", ErrInvalidAddRequest, len(op.Children))
	}

	entry, err := stringValue(op.Children[0])
	if err != nil {
		return nil, fmt.Errorf("%w: entry: %v", ErrInvalidAddRequest, err)
	}

	req := &AddRequest{Entry: entry}
	for _, ap := range op.Children[1].Children {
		if len(ap.Children) != 2 {
			return nil, fmt.Errorf("%w: attribute with %d elements", ErrInvalidAddRequest, len(ap.Children))
		}
		typ, err := stringValue(ap.Children[0])
		if err != nil {
			return nil, fmt.Errorf("%w: attribute type: %v", ErrInvalidAddRequest, err)
		}
		attr := Attribute{Type: typ}
		for _, vp := range ap.Children[1].Children {
			v, err := stringValue(vp)
			if err != nil {
				return nil, fmt.Errorf("%w: value of %s: %v", ErrInvalidAddRequest, typ, err)
			}
			attr.Values = append(attr.Values, v)
		}
		req.Attributes = append(req.Attributes, attr)
	}

	return req, nil
}
