package ldap

import (
	"errors"
	"fmt"
	"io"
	"math"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"
)

// OperationType is the APPLICATION tag of a protocol operation.
type OperationType uint8

// Operation tags handled by the server.
const (
	OpBindRequest       OperationType = goldap.ApplicationBindRequest
	OpBindResponse      OperationType = goldap.ApplicationBindResponse
	OpUnbindRequest     OperationType = goldap.ApplicationUnbindRequest
	OpSearchRequest     OperationType = goldap.ApplicationSearchRequest
	OpSearchResultEntry OperationType = goldap.ApplicationSearchResultEntry
	OpSearchResultDone  OperationType = goldap.ApplicationSearchResultDone
	OpModifyRequest     OperationType = goldap.ApplicationModifyRequest
	OpModifyResponse    OperationType = goldap.ApplicationModifyResponse
	OpAddRequest        OperationType = goldap.ApplicationAddRequest
	OpAddResponse       OperationType = goldap.ApplicationAddResponse
	OpDelRequest        OperationType = goldap.ApplicationDelRequest
	OpDelResponse       OperationType = goldap.ApplicationDelResponse
	OpModifyDNRequest   OperationType = goldap.ApplicationModifyDNRequest
	OpModifyDNResponse  OperationType = goldap.ApplicationModifyDNResponse
	OpCompareRequest    OperationType = goldap.ApplicationCompareRequest
	OpCompareResponse   OperationType = goldap.ApplicationCompareResponse
	OpAbandonRequest    OperationType = goldap.ApplicationAbandonRequest
	OpExtendedRequest   OperationType = goldap.ApplicationExtendedRequest
	OpExtendedResponse  OperationType = goldap.ApplicationExtendedResponse
)

func (o OperationType) String() string {
	if name, ok := goldap.ApplicationMap[uint8(o)]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Operation (%d)", uint8(o))
}

// ResponseType returns the response tag for a request that has one. Unbind
// and abandon have no response.
func (o OperationType) ResponseType() (OperationType, bool) {
	switch o {
	case OpBindRequest:
		return OpBindResponse, true
	case OpSearchRequest:
		return OpSearchResultDone, true
	case OpModifyRequest:
		return OpModifyResponse, true
	case OpAddRequest:
		return OpAddResponse, true
	case OpDelRequest:
		return OpDelResponse, true
	case OpModifyDNRequest:
		return OpModifyDNResponse, true
	case OpCompareRequest:
		return OpCompareResponse, true
	case OpExtendedRequest:
		return OpExtendedResponse, true
	default:
		return 0, false
	}
}

// Message errors
var (
	ErrInvalidMessage   = errors.New("ldap: invalid message envelope")
	ErrInvalidMessageID = errors.New("ldap: message ID out of range")
	ErrInvalidOperation = errors.New("ldap: protocolOp must be an APPLICATION tag")
)

// Message is a decoded LDAPMessage envelope. Controls are not interpreted.
type Message struct {
	// ID is the messageID echoed in every response.
	ID int64
	// Operation is the protocolOp tag.
	Operation OperationType
	// Op is the protocolOp packet.
	Op *ber.Packet
}

// ReadMessage reads one LDAPMessage from r. A reader that ends before the
// first byte of a message yields io.EOF; one that ends inside a message
// yields io.ErrUnexpectedEOF.
func ReadMessage(r io.Reader) (*Message, error) {
	cr := &countingReader{r: r}
	packet, err := ber.ReadPacket(cr)
	if err != nil {
		if cr.n == 0 && errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return ParseMessage(packet)
}

// countingReader counts the bytes read through it.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// ParseMessage decodes an LDAPMessage envelope.
func ParseMessage(p *ber.Packet) (*Message, error) {
	if p == nil || p.ClassType != ber.ClassUniversal || p.Tag != ber.TagSequence || len(p.Children) < 2 {
		return nil, ErrInvalidMessage
	}

	id, err := intValue(p.Children[0])
	if err != nil {
		return nil, fmt.Errorf("%w: messageID: %v", ErrInvalidMessage, err)
	}
	if id < 0 || id > math.MaxInt32 {
		return nil, ErrInvalidMessageID
	}

	op := p.Children[1]
	if op.ClassType != ber.ClassApplication {
		return nil, ErrInvalidOperation
	}

	return &Message{
		ID:        id,
		Operation: OperationType(op.Tag),
		Op:        op,
	}, nil
}

// WritePacket writes the encoded packet to w.
func WritePacket(w io.Writer, p *ber.Packet) error {
	_, err := w.Write(p.Bytes())
	return err
}

func intValue(p *ber.Packet) (int64, error) {
	if p.ClassType != ber.ClassUniversal || (p.Tag != ber.TagInteger && p.Tag != ber.TagEnumerated) {
		return 0, fmt.Errorf("expected INTEGER, got tag %d", p.Tag)
	}
	switch v := p.Value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("INTEGER value has type %T", p.Value)
	}
}

func boolValue(p *ber.Packet) (bool, error) {
	if p.ClassType != ber.ClassUniversal || p.Tag != ber.TagBoolean {
		return false, fmt.Errorf("expected BOOLEAN, got tag %d", p.Tag)
	}
	v, ok := p.Value.(bool)
	if !ok {
		return false, fmt.Errorf("BOOLEAN value has type %T", p.Value)
	}
	return v, nil
}

func stringValue(p *ber.Packet) (string, error) {
	if p.ClassType != ber.ClassUniversal || p.Tag != ber.TagOctetString {
		return "", fmt.Errorf("expected OCTET STRING, got tag %d", p.Tag)
	}
	return rawString(p), nil
}

// rawString returns the content of a primitive packet regardless of class.
func rawString(p *ber.Packet) string {
	if p.Data == nil {
		return ""
	}
	return p.Data.String()
}
