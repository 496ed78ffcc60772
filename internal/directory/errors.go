package directory

import "github.com/joomcode/errorx"

// Errors returned by Service operations. Each maps to one LDAP result code.
var (
	ErrNamespace = errorx.NewNamespace("directory")

	InvalidCredentials  = ErrNamespace.NewType("invalid_credentials")
	InsufficientAccess  = ErrNamespace.NewType("insufficient_access")
	OperationsError     = ErrNamespace.NewType("operations_error")
	ConstraintViolation = ErrNamespace.NewType("constraint_violation")
	EntryAlreadyExists  = ErrNamespace.NewType("entry_already_exists")
	NoSuchObject        = ErrNamespace.NewType("no_such_object")
	InvalidDNSyntax     = ErrNamespace.NewType("invalid_dn_syntax")
)
