package server

import (
	"github.com/joomcode/errorx"

	"github.com/KilimcininKorOglu/fakeldap/internal/directory"
	"github.com/KilimcininKorOglu/fakeldap/internal/ldap"
)

// OperationResult represents the result of an LDAP operation.
type OperationResult struct {
	// ResultCode is the LDAP result code
	ResultCode ldap.ResultCode
	// MatchedDN is the matched DN (for certain error conditions)
	MatchedDN string
	// DiagnosticMessage is an optional diagnostic message
	DiagnosticMessage string
}

func success() *OperationResult {
	return &OperationResult{ResultCode: ldap.ResultSuccess}
}

var resultCodes = []struct {
	typ  *errorx.Type
	code ldap.ResultCode
}{
	{directory.InvalidCredentials, ldap.ResultInvalidCredentials},
	{directory.InsufficientAccess, ldap.ResultInsufficientAccess},
	{directory.OperationsError, ldap.ResultOperationsError},
	{directory.ConstraintViolation, ldap.ResultConstraintViolation},
	{directory.EntryAlreadyExists, ldap.ResultEntryAlreadyExists},
	{directory.NoSuchObject, ldap.ResultNoSuchObject},
	{directory.InvalidDNSyntax, ldap.ResultInvalidDNSyntax},
}

// resultFromError maps a directory error to its result. Errors outside the
// directory taxonomy become operationsError.
func resultFromError(err error) *OperationResult {
	if err == nil {
		return success()
	}

	code := ldap.ResultOperationsError
	for _, rc := range resultCodes {
		if errorx.IsOfType(err, rc.typ) {
			code = rc.code
			break
		}
	}

	return &OperationResult{
		ResultCode:        code,
		DiagnosticMessage: diagnostic(err, code),
	}
}

// diagnostic returns the message sent to the client. Storage failures carry
// the message of the underlying error.
func diagnostic(err error, code ldap.ResultCode) string {
	ex := errorx.Cast(err)
	if ex == nil {
		return err.Error()
	}
	if code != ldap.ResultOperationsError {
		return ex.Message()
	}

	var cause error = ex
	for {
		next := errorx.Cast(cause)
		if next == nil || next.Cause() == nil {
			break
		}
		cause = next.Cause()
	}
	if c := errorx.Cast(cause); c != nil {
		return c.Message()
	}
	return cause.Error()
}
