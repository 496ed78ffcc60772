package ldap

import (
	"fmt"
	"strings"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"
)

// ResultCode is an LDAPResult resultCode.
type ResultCode uint16

// Result codes returned by the server.
const (
	ResultSuccess                ResultCode = goldap.LDAPResultSuccess
	ResultOperationsError        ResultCode = goldap.LDAPResultOperationsError
	ResultProtocolError          ResultCode = goldap.LDAPResultProtocolError
	ResultAuthMethodNotSupported ResultCode = goldap.LDAPResultAuthMethodNotSupported
	ResultConstraintViolation    ResultCode = goldap.LDAPResultConstraintViolation
	ResultNoSuchObject           ResultCode = goldap.LDAPResultNoSuchObject
	ResultInvalidDNSyntax        ResultCode = goldap.LDAPResultInvalidDNSyntax
	ResultInvalidCredentials     ResultCode = goldap.LDAPResultInvalidCredentials
	ResultInsufficientAccess     ResultCode = goldap.LDAPResultInsufficientAccessRights
	ResultUnwillingToPerform     ResultCode = goldap.LDAPResultUnwillingToPerform
	ResultEntryAlreadyExists     ResultCode = goldap.LDAPResultEntryAlreadyExists
)

func (c ResultCode) String() string {
	if name, ok := goldap.LDAPResultCodeMap[uint16(c)]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Result Code (%d)", uint16(c))
}

// Result is the LDAPResult carried by every response but search entries.
type Result struct {
	Code              ResultCode
	MatchedDN         string
	DiagnosticMessage string
}

// EncodeResult builds a complete response message for the given operation.
func EncodeResult(messageID int64, op OperationType, r *Result) *ber.Packet {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(op), nil, op.String())
	body.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagEnumerated, int64(r.Code), "resultCode"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.MatchedDN, "matchedDN"))
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, r.DiagnosticMessage, "diagnosticMessage"))
	return envelope(messageID, body)
}

// EncodeSearchEntry builds a SearchResultEntry message.
func EncodeSearchEntry(messageID int64, dn string, attrs []Attribute) *ber.Packet {
	body := ber.Encode(ber.ClassApplication, ber.TypeConstructed, ber.Tag(OpSearchResultEntry), nil, "Search Result Entry")
	body.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, dn, "objectName"))

	list := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "attributes")
	for _, a := range attrs {
		pa := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "partialAttribute")
		pa.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, a.Type, "type"))
		vals := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSet, nil, "vals")
		for _, v := range a.Values {
			vals.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, v, "value"))
		}
		pa.AppendChild(vals)
		list.AppendChild(pa)
	}
	body.AppendChild(list)

	return envelope(messageID, body)
}

func envelope(messageID int64, body *ber.Packet) *ber.Packet {
	p := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "LDAP Response")
	p.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, messageID, "messageID"))
	p.AppendChild(body)
	return p
}

// SelectAttributes applies a search request's attribute selection. An empty
// list or "*" returns everything, "1.1" returns nothing, and otherwise names
// are matched case-insensitively. typesOnly drops the values.
func SelectAttributes(attrs []Attribute, requested []string, typesOnly bool) []Attribute {
	all := len(requested) == 0
	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		switch name {
		case "*":
			all = true
		case "1.1":
		default:
			want[strings.ToLower(name)] = struct{}{}
		}
	}

	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		if !all {
			if _, ok := want[strings.ToLower(a.Type)]; !ok {
				continue
			}
		}
		if typesOnly {
			a = Attribute{Type: a.Type}
		}
		out = append(out, a)
	}
	return out
}
