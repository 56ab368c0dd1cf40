package memvec

import "strings"

// DefaultNamespace is the namespace used when none is supplied.
// It always exists, even when empty.
const DefaultNamespace = "default"

// MaxNamespaceLength is the maximum length of a namespace after trimming.
const MaxNamespaceLength = 64

// ValidateNamespace normalizes and validates a namespace string.
//
// A missing namespace (empty or whitespace-only) normalizes to
// DefaultNamespace; that is a convenience, not an error. Anything else must
// be 1-64 characters of ASCII letters, digits, underscore, or hyphen, not
// starting with underscore or hyphen. Comparison stays case-sensitive:
// "Foo" and "foo" are distinct namespaces.
func ValidateNamespace(raw string) (string, error) {
	ns := strings.TrimSpace(raw)
	if ns == "" {
		return DefaultNamespace, nil
	}

	if ns[0] == '_' || ns[0] == '-' {
		return "", &NamespaceError{Raw: raw, Reason: "cannot start with underscore or hyphen"}
	}
	for i := 0; i < len(ns); i++ {
		c := ns[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' {
			continue
		}
		return "", &NamespaceError{Raw: raw, Reason: "must contain only alphanumeric characters, underscore, or hyphen"}
	}
	if len(ns) > MaxNamespaceLength {
		return "", &NamespaceError{Raw: raw, Reason: "exceeds maximum length of 64 characters"}
	}
	return ns, nil
}
