package directory

import (
	"context"
	"slices"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/joomcode/errorx"

	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

// Values written for attributes an add request leaves out.
const (
	DefaultUID         = "1001"
	DefaultGID         = "1000"
	DefaultDescription = ""
	DefaultShell       = "/bin/bash"
	// DefaultPassword marks a record created without a credential.
	DefaultPassword = "x"
)

// DefaultHomeDirectory returns the home directory written for cn when the
// request has none.
func DefaultHomeDirectory(cn string) string {
	return "/home/" + cn
}

// Add creates the user entry targetDN. attrs is keyed by attribute name in
// any case. The caller must be bound as root and targetDN must be a direct
// child of UsersDN. Checks run in order and the first failure is returned:
// the RDN must carry a cn, the cn must be new, the entry must be a unixUser,
// a cn attribute must agree with the RDN, and no value may contain a field
// separator or a line break.
func (s *Service) Add(ctx context.Context, p *Principal, targetDN string, attrs map[string][]string) error {
	if err := s.Authorize(p); err != nil {
		return err
	}

	dn, err := goldap.ParseDN(targetDN)
	if err != nil {
		return InvalidDNSyntax.Wrap(err, "invalid DN %q", targetDN)
	}
	rdn, ok := userRDN(dn)
	if !ok {
		return NoSuchObject.New("no such object %q", UsersDN)
	}

	cn, ok := rdnCN(rdn)
	if !ok {
		return ConstraintViolation.New("cn required")
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()

	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		return err
	}
	if _, exists := snap.Get(cn); exists {
		return EntryAlreadyExists.New("%s", targetDN)
	}

	attrs = lowerKeys(attrs)

	if !slices.ContainsFunc(attrs[AttrObjectClass], func(v string) bool {
		return strings.EqualFold(v, UserObjectClass)
	}) {
		return ConstraintViolation.New("entry must be a unixUser")
	}

	if values, ok := attrs[AttrCN]; ok && len(values) > 0 && !slices.ContainsFunc(values, func(v string) bool {
		return strings.EqualFold(v, cn)
	}) {
		return ConstraintViolation.New("cn attribute does not match rdn")
	}

	record := &passwd.Record{
		CN:            cn,
		Password:      valueOr(attrs, DefaultPassword, "userpassword", AttrPass),
		UID:           valueOr(attrs, DefaultUID, AttrUID),
		GID:           valueOr(attrs, DefaultGID, AttrGID),
		Description:   valueOr(attrs, DefaultDescription, AttrDescription),
		HomeDirectory: valueOr(attrs, DefaultHomeDirectory(cn), AttrHomeDirectory),
		Shell:         valueOr(attrs, DefaultShell, AttrShell),
	}
	if err := record.Validate(); err != nil {
		if ex := errorx.Cast(err); ex != nil {
			return ConstraintViolation.New("%s", ex.Message())
		}
		return ConstraintViolation.New("%s", err.Error())
	}

	if err := s.store.Append(ctx, record); err != nil {
		return OperationsError.Wrap(err, "failed to store %q", targetDN)
	}

	s.logger.Info("entry added", "dn", UserDN(cn))
	return nil
}

// valueOr returns the first non-empty value of the first listed attribute
// that has one, or def.
func valueOr(attrs map[string][]string, def string, names ...string) string {
	for _, name := range names {
		for _, v := range attrs[name] {
			if v != "" {
				return v
			}
		}
	}
	return def
}

func lowerKeys(attrs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(attrs))
	for k, v := range attrs {
		key := strings.ToLower(k)
		out[key] = append(out[key], v...)
	}
	return out
}
