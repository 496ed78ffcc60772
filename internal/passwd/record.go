// Package passwd reads and appends user records in a colon-delimited flat file.
package passwd

import (
	"strings"
)

// FieldCount is the number of positional fields in a record line.
const FieldCount = 7

// Record is a single user line of the record file.
// Field order on disk: cn:pass:uid:gid:description:homedirectory:shell
type Record struct {
	// CN is the identity name and the unique key of the record.
	CN string
	// Password is the clear-text credential.
	Password string
	// UID is the numeric user id, kept as text.
	UID string
	// GID is the numeric group id, kept as text.
	GID string
	// Description is free text.
	Description string
	// HomeDirectory is the user's home path.
	HomeDirectory string
	// Shell is the user's login shell.
	Shell string
}

// ParseRecord parses one record line. Missing trailing fields are left empty
// and fields past the seventh are ignored. Field contents are not validated;
// the only rejected line is one without a cn.
func ParseRecord(line string) (*Record, error) {
	line = strings.TrimSuffix(line, "\r")

	var fields [FieldCount]string
	parts := strings.Split(line, ":")
	copy(fields[:], parts)

	if fields[0] == "" {
		return nil, MalformedRecord.New("record has no cn")
	}

	return &Record{
		CN:            fields[0],
		Password:      fields[1],
		UID:           fields[2],
		GID:           fields[3],
		Description:   fields[4],
		HomeDirectory: fields[5],
		Shell:         fields[6],
	}, nil
}

// Fields returns the record's values in file order.
func (r *Record) Fields() []string {
	return []string{r.CN, r.Password, r.UID, r.GID, r.Description, r.HomeDirectory, r.Shell}
}

// String returns the record serialized as a file line, without the newline.
func (r *Record) String() string {
	return strings.Join(r.Fields(), ":")
}

// Validate reports whether the record can be written without corrupting the
// file: cn must be set and must not read back as a comment, and no field may
// contain a separator or line break.
func (r *Record) Validate() error {
	if r.CN == "" {
		return MalformedRecord.New("record has no cn")
	}
	if strings.HasPrefix(r.CN, "#") {
		return MalformedRecord.New("cn must not start with #")
	}
	for i, v := range r.Fields() {
		if strings.ContainsAny(v, ":\r\n") {
			return MalformedRecord.New("field %s contains a reserved character", fieldNames[i])
		}
	}
	return nil
}

var fieldNames = [FieldCount]string{"cn", "pass", "uid", "gid", "description", "homedirectory", "shell"}

// Records is the ordered result of a load. A cn seen twice keeps its first
// position and the values of its last line.
type Records struct {
	order []string
	byCN  map[string]*Record
}

func newRecords() *Records {
	return &Records{byCN: make(map[string]*Record)}
}

func (rs *Records) put(r *Record) {
	if _, ok := rs.byCN[r.CN]; !ok {
		rs.order = append(rs.order, r.CN)
	}
	rs.byCN[r.CN] = r
}

// Get returns the record with the given cn.
func (rs *Records) Get(cn string) (*Record, bool) {
	r, ok := rs.byCN[cn]
	return r, ok
}

// All returns the records in file order.
func (rs *Records) All() []*Record {
	out := make([]*Record, 0, len(rs.order))
	for _, cn := range rs.order {
		out = append(out, rs.byCN[cn])
	}
	return out
}

// Len returns the number of distinct records.
func (rs *Records) Len() int {
	return len(rs.order)
}
