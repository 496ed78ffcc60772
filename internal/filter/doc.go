// Package filter evaluates LDAP search filters against directory entry
// attributes.
//
// Filters arrive either as the BER Filter choice of a search request,
// decoded with FromPacket, or as RFC 4515 text, parsed with Compile:
//
//	f, err := filter.Compile("(&(objectclass=unixUser)(cn=al*))")
//	if err != nil {
//	    return err
//	}
//	match := filter.NewEvaluator().Matcher(f)
//	if match(entry.Attributes) {
//	    // entry matches
//	}
//
// Matching rules:
//
//   - Attribute names are case-insensitive.
//   - Equality and substring assertions ignore case.
//   - Greater-or-equal and less-or-equal compare lexicographically, ignoring case.
//   - Approximate match compares values with whitespace runs collapsed.
//   - Extensible match never matches.
package filter
