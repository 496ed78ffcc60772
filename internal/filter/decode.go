package filter

import (
	"errors"
	"fmt"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"
)

// maxDepth bounds how deeply and/or/not filters may nest.
const maxDepth = 64

// Decode errors
var (
	ErrNilPacket      = errors.New("filter: nil packet")
	ErrInvalidPacket  = errors.New("filter: invalid packet")
	ErrFilterTooDeep  = errors.New("filter: nesting too deep")
	ErrUnknownFilter  = errors.New("filter: unknown filter choice")
	ErrMalformedValue = errors.New("filter: malformed attribute value assertion")
)

// Compile parses an RFC 4515 filter string such as "(&(cn=alice)(uid=*))".
func Compile(s string) (*Filter, error) {
	packet, err := goldap.CompileFilter(s)
	if err != nil {
		return nil, err
	}
	return FromPacket(packet)
}

// FromPacket decodes the BER Filter choice of a search request.
func FromPacket(p *ber.Packet) (*Filter, error) {
	return fromPacket(p, 0)
}

func fromPacket(p *ber.Packet, depth int) (*Filter, error) {
	if p == nil {
		return nil, ErrNilPacket
	}
	if depth > maxDepth {
		return nil, ErrFilterTooDeep
	}
	if p.ClassType != ber.ClassContext {
		return nil, fmt.Errorf("%w: class %d", ErrInvalidPacket, p.ClassType)
	}

	switch p.Tag {
	case goldap.FilterAnd, goldap.FilterOr:
		children := make([]*Filter, 0, len(p.Children))
		for _, c := range p.Children {
			child, err := fromPacket(c, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if p.Tag == goldap.FilterAnd {
			return NewAndFilter(children...), nil
		}
		return NewOrFilter(children...), nil

	case goldap.FilterNot:
		if len(p.Children) != 1 {
			return nil, fmt.Errorf("%w: not filter with %d children", ErrInvalidPacket, len(p.Children))
		}
		child, err := fromPacket(p.Children[0], depth+1)
		if err != nil {
			return nil, err
		}
		return NewNotFilter(child), nil

	case goldap.FilterPresent:
		return NewPresentFilter(packetString(p)), nil

	case goldap.FilterEqualityMatch, goldap.FilterGreaterOrEqual,
		goldap.FilterLessOrEqual, goldap.FilterApproxMatch:
		if len(p.Children) != 2 {
			return nil, ErrMalformedValue
		}
		attr, value := packetString(p.Children[0]), packetString(p.Children[1])
		switch p.Tag {
		case goldap.FilterEqualityMatch:
			return NewEqualityFilter(attr, value), nil
		case goldap.FilterGreaterOrEqual:
			return NewGreaterOrEqualFilter(attr, value), nil
		case goldap.FilterLessOrEqual:
			return NewLessOrEqualFilter(attr, value), nil
		default:
			return NewApproxMatchFilter(attr, value), nil
		}

	case goldap.FilterSubstrings:
		if len(p.Children) != 2 {
			return nil, ErrMalformedValue
		}
		sf := &SubstringFilter{}
		for _, part := range p.Children[1].Children {
			switch part.Tag {
			case goldap.FilterSubstringsInitial:
				sf.Initial = packetString(part)
			case goldap.FilterSubstringsAny:
				sf.Any = append(sf.Any, packetString(part))
			case goldap.FilterSubstringsFinal:
				sf.Final = packetString(part)
			default:
				return nil, fmt.Errorf("%w: substring tag %d", ErrInvalidPacket, part.Tag)
			}
		}
		return NewSubstringFilter(packetString(p.Children[0]), sf), nil

	case goldap.FilterExtensibleMatch:
		return &Filter{Type: FilterExtensibleMatch}, nil

	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownFilter, p.Tag)
	}
}

// packetString returns the raw content of a primitive packet. Context-class
// packets read off the wire carry their content only in Data.
func packetString(p *ber.Packet) string {
	if p.Data == nil {
		return ""
	}
	return p.Data.String()
}
