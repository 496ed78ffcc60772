package directory

import (
	"context"
	"iter"

	goldap "github.com/go-ldap/ldap/v3"
)

// Matcher reports whether an entry's attributes satisfy a search filter.
type Matcher func(attrs map[string][]string) bool

// Search returns the user entries under baseDN accepted by match. The caller
// must be bound as root. The sequence is evaluated lazily against a fresh
// snapshot: every pass calls match exactly once per entry, in record file
// order. A nil match accepts every entry.
func (s *Service) Search(ctx context.Context, p *Principal, baseDN string, match Matcher) (iter.Seq[*Entry], error) {
	if err := s.Authorize(p); err != nil {
		return nil, err
	}

	base, err := goldap.ParseDN(baseDN)
	if err != nil {
		return nil, InvalidDNSyntax.Wrap(err, "invalid base DN %q", baseDN)
	}
	if !base.Equal(suffixDN) && !suffixDN.AncestorOf(base) {
		return nil, NoSuchObject.New("no such object %q", baseDN)
	}

	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	return func(yield func(*Entry) bool) {
		for _, e := range snap.Entries() {
			if match != nil && !match(e.Attributes) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}, nil
}
