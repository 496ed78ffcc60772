package directory

import (
	"iter"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"

	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

// Fixed directory layout.
const (
	// RootDN is the administrative identity.
	RootDN = "cn=root"
	// RootPassword is the administrative secret.
	RootPassword = "secret"
	// SuffixDN is the naming context searches are served under.
	SuffixDN = "o=myhost"
	// UsersDN is the container every user entry lives in.
	UsersDN = "ou=users, o=myhost"
	// UserObjectClass is the only object class user entries carry.
	UserObjectClass = "unixUser"
)

// Attribute names of a user entry, in the order they are returned.
const (
	AttrCN            = "cn"
	AttrPass          = "pass"
	AttrUID           = "uid"
	AttrGID           = "gid"
	AttrDescription   = "description"
	AttrHomeDirectory = "homedirectory"
	AttrShell         = "shell"
	AttrObjectClass   = "objectclass"
)

var attributeOrder = []string{
	AttrCN, AttrPass, AttrUID, AttrGID, AttrDescription, AttrHomeDirectory, AttrShell, AttrObjectClass,
}

var (
	rootDN   = mustParseDN(RootDN)
	suffixDN = mustParseDN(SuffixDN)
	usersDN  = mustParseDN(UsersDN)
)

func mustParseDN(s string) *goldap.DN {
	dn, err := goldap.ParseDN(s)
	if err != nil {
		panic(err)
	}
	return dn
}

// UserDN returns the DN of the user entry for cn.
func UserDN(cn string) string {
	return "cn=" + cn + ", " + UsersDN
}

// Entry is the directory view of one record.
type Entry struct {
	// DN is UserDN(CN).
	DN string
	// CN is the record key.
	CN string
	// Attributes holds single-valued attributes keyed by lowercase name.
	Attributes map[string][]string
}

// NewEntry projects a record into a directory entry.
func NewEntry(r *passwd.Record) *Entry {
	return &Entry{
		DN: UserDN(r.CN),
		CN: r.CN,
		Attributes: map[string][]string{
			AttrCN:            {r.CN},
			AttrPass:          {r.Password},
			AttrUID:           {r.UID},
			AttrGID:           {r.GID},
			AttrDescription:   {r.Description},
			AttrHomeDirectory: {r.HomeDirectory},
			AttrShell:         {r.Shell},
			AttrObjectClass:   {UserObjectClass},
		},
	}
}

// OrderedAttributes yields the entry's attributes in a stable order.
func (e *Entry) OrderedAttributes() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, name := range attributeOrder {
			values, ok := e.Attributes[name]
			if !ok {
				continue
			}
			if !yield(name, values) {
				return
			}
		}
	}
}

// userRDN returns the leading RDN of dn when dn names a direct child of the
// users container.
func userRDN(dn *goldap.DN) (*goldap.RelativeDN, bool) {
	if len(dn.RDNs) != len(usersDN.RDNs)+1 {
		return nil, false
	}
	parent := &goldap.DN{RDNs: dn.RDNs[1:]}
	if !parent.Equal(usersDN) {
		return nil, false
	}
	return dn.RDNs[0], true
}

// rdnCN returns the cn value of an RDN.
func rdnCN(rdn *goldap.RelativeDN) (string, bool) {
	for _, atv := range rdn.Attributes {
		if isCN(atv.Type) && atv.Value != "" {
			return atv.Value, true
		}
	}
	return "", false
}

func isCN(attrType string) bool {
	return strings.EqualFold(attrType, "cn") || strings.EqualFold(attrType, "commonName")
}
