// Package git provides version-control operations for wsforge.
// This file defines types used by the Runner.
package git

// SubmoduleEntry represents one registered sub-repository in the parent
// working tree, as reported by git submodule status.
type SubmoduleEntry struct {
	// Path is the mount path relative to the repository root.
	Path string

	// Revision is the commit the parent currently references.
	Revision string

	// Initialized is false when the submodule is registered but not
	// checked out (status prefix '-').
	Initialized bool

	// Modified is true when the checked-out commit differs from the
	// recorded pin (status prefix '+').
	Modified bool
}

// HasPin reports whether the entry records a usable pinned revision.
// The assembler's verification pass requires every declared component to
// resolve to an entry with a non-empty pin.
func (e SubmoduleEntry) HasPin() bool {
	return e.Revision != ""
}
