package passwd

import "github.com/joomcode/errorx"

var (
	ErrNamespace = errorx.NewNamespace("passwd")

	// StorageError wraps any read, write, or lock failure on the record file.
	StorageError = ErrNamespace.NewType("storage_error")
	// MalformedRecord is returned for lines and records that cannot be stored.
	MalformedRecord = ErrNamespace.NewType("malformed_record")
)
