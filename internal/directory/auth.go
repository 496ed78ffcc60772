package directory

import (
	"context"

	goldap "github.com/go-ldap/ldap/v3"
)

// Principal is the identity a connection is bound as. A nil Principal is an
// unbound (or anonymous) connection.
type Principal struct {
	// DN is the bound DN as stored in the directory.
	DN string
	// Root is set for the administrative identity.
	Root bool
}

// IsRoot reports whether p is the administrative identity.
func (p *Principal) IsRoot() bool {
	return p != nil && p.Root
}

func (p *Principal) String() string {
	if p == nil {
		return ""
	}
	return p.DN
}

// Bind authenticates name and password. An empty name with an empty
// password is an anonymous bind and returns a nil Principal. Every failed
// check returns InvalidCredentials; a failed refresh returns OperationsError.
func (s *Service) Bind(ctx context.Context, name, password string) (*Principal, error) {
	if name == "" && password == "" {
		return nil, nil
	}

	dn, err := goldap.ParseDN(name)
	if err != nil {
		return nil, InvalidCredentials.New("invalid credentials")
	}

	if dn.Equal(rootDN) {
		if password != RootPassword {
			return nil, InvalidCredentials.New("invalid credentials")
		}
		return &Principal{DN: RootDN, Root: true}, nil
	}

	return s.bindUser(ctx, dn, password)
}

func (s *Service) bindUser(ctx context.Context, dn *goldap.DN, password string) (*Principal, error) {
	rdn, ok := userRDN(dn)
	if !ok {
		return nil, InvalidCredentials.New("invalid credentials")
	}
	cn, ok := rdnCN(rdn)
	if !ok || len(rdn.Attributes) != 1 {
		return nil, InvalidCredentials.New("invalid credentials")
	}

	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := snap.Get(cn)
	if !ok || !s.registry.Contains(entry.DN) {
		s.logger.Debug("bind for unknown identity", "cn", cn)
		return nil, InvalidCredentials.New("invalid credentials")
	}
	if password != entry.Attributes[AttrPass][0] {
		return nil, InvalidCredentials.New("invalid credentials")
	}

	return &Principal{DN: entry.DN}, nil
}

// Authorize fails with InsufficientAccess unless p is the administrative
// identity.
func (s *Service) Authorize(p *Principal) error {
	if !p.IsRoot() {
		return InsufficientAccess.New("insufficient access rights for %q", p.String())
	}
	return nil
}
