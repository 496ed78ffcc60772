package ldap

import (
	"bytes"
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCodeString(t *testing.T) {
	assert.Equal(t, goldap.LDAPResultCodeMap[goldap.LDAPResultInvalidCredentials], ResultInvalidCredentials.String())
	assert.Equal(t, "Unknown Result Code (999)", ResultCode(999).String())
}

func TestEncodeResult(t *testing.T) {
	p := EncodeResult(4, OpAddResponse, &Result{
		Code:              ResultEntryAlreadyExists,
		MatchedDN:         "ou=users, o=myhost",
		DiagnosticMessage: "cn=alice, ou=users, o=myhost",
	})

	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, p))

	decoded, err := ber.ReadPacket(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Children, 2)
	assert.Equal(t, int64(4), decoded.Children[0].Value)

	body := decoded.Children[1]
	assert.Equal(t, ber.ClassApplication, body.ClassType)
	assert.Equal(t, ber.Tag(goldap.ApplicationAddResponse), body.Tag)
	require.Len(t, body.Children, 3)
	assert.Equal(t, int64(goldap.LDAPResultEntryAlreadyExists), body.Children[0].Value)
	assert.Equal(t, "ou=users, o=myhost", body.Children[1].Value)
	assert.Equal(t, "cn=alice, ou=users, o=myhost", body.Children[2].Value)

	// go-ldap's own result decoding sees the same code and message.
	err = goldap.GetLDAPError(decoded)
	require.Error(t, err)
	assert.True(t, goldap.IsErrorWithCode(err, goldap.LDAPResultEntryAlreadyExists))
}

func TestEncodeSearchEntry(t *testing.T) {
	p := EncodeSearchEntry(2, "cn=alice, ou=users, o=myhost", []Attribute{
		{Type: "cn", Values: []string{"alice"}},
		{Type: "objectclass", Values: []string{"unixUser"}},
		{Type: "description"},
	})

	decoded := wire(t, p)
	body := decoded.Children[1]
	assert.Equal(t, ber.Tag(goldap.ApplicationSearchResultEntry), body.Tag)
	assert.Equal(t, "cn=alice, ou=users, o=myhost", body.Children[0].Value)

	attrs := body.Children[1].Children
	require.Len(t, attrs, 3)
	assert.Equal(t, "cn", attrs[0].Children[0].Value)
	assert.Equal(t, "alice", attrs[0].Children[1].Children[0].Value)
	assert.Equal(t, "objectclass", attrs[1].Children[0].Value)
	assert.Empty(t, attrs[2].Children[1].Children)
}

func TestSelectAttributes(t *testing.T) {
	attrs := []Attribute{
		{Type: "cn", Values: []string{"alice"}},
		{Type: "uid", Values: []string{"1000"}},
		{Type: "shell", Values: []string{"/bin/sh"}},
	}

	tests := []struct {
		name      string
		requested []string
		typesOnly bool
		expected  []Attribute
	}{
		{"all by default", nil, false, attrs},
		{"star", []string{"*"}, false, attrs},
		{"no attributes", []string{"1.1"}, false, []Attribute{}},
		{"by name", []string{"UID", "mail"}, false, []Attribute{{Type: "uid", Values: []string{"1000"}}}},
		{"types only", []string{"cn"}, true, []Attribute{{Type: "cn"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelectAttributes(attrs, tt.requested, tt.typesOnly))
		})
	}
}
