// Package nspath implements the absolute, normalized path values used
// throughout the naming and storage surfaces.
package nspath

import (
	"errors"
	"strings"
)

// ErrEmptyComponent is returned when a path component is empty or
// contains a reserved character.
var ErrEmptyComponent = errors.New("nspath: component is empty or contains ':' or '/'")

// ErrNotAbsolute is returned when a path string does not begin with '/'.
var ErrNotAbsolute = errors.New("nspath: path string must start with '/'")

// ErrRootHasNoParent is returned by Parent and Last on the root path.
var ErrRootHasNoParent = errors.New("nspath: root path has no parent or last component")

// Path is an immutable, absolute, normalized sequence of path components.
// The zero value is the root path, the same value as Root.
type Path struct {
	// components is nil or empty for the root path.
	components []string
}

// Root is the path representing the root directory, "/".
var Root = Path{}

// New parses s into a Path. s must begin with '/'; empty components
// (consecutive or trailing slashes) are dropped during normalization, and
// s must not contain ':' anywhere. Components are not trimmed.
func New(s string) (Path, error) {
	if s == "" || s[0] != '/' {
		return Path{}, ErrNotAbsolute
	}
	if strings.Contains(s, ":") {
		return Path{}, ErrEmptyComponent
	}
	var comps []string
	for _, c := range strings.Split(s, "/") {
		if c == "" {
			continue
		}
		comps = append(comps, c)
	}
	return Path{components: comps}, nil
}

// MustNew is like New but panics on error; intended for tests and
// compile-time constant paths.
func MustNew(s string) Path {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Join returns a new path formed by appending component to p.
func Join(p Path, component string) (Path, error) {
	if component == "" || strings.ContainsAny(component, ":/") {
		return Path{}, ErrEmptyComponent
	}
	next := make([]string, len(p.components)+1)
	copy(next, p.components)
	next[len(p.components)] = component
	return Path{components: next}, nil
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return len(p.components) == 0
}

// Parent returns the path to the parent of p.
func (p Path) Parent() (Path, error) {
	if p.IsRoot() {
		return Path{}, ErrRootHasNoParent
	}
	return Path{components: p.components[:len(p.components)-1]}, nil
}

// Last returns the final component of p.
func (p Path) Last() (string, error) {
	if p.IsRoot() {
		return "", ErrRootHasNoParent
	}
	return p.components[len(p.components)-1], nil
}

// Components returns a copy of p's components, root to leaf.
func (p Path) Components() []string {
	out := make([]string, len(p.components))
	copy(out, p.components)
	return out
}

// IsSubpath reports whether p is a subpath of other: other's components
// are a prefix of p's, so p lies at or below other in the tree. Every
// path is a subpath of itself. The comparison is component-wise, not
// substring containment, so "/ab" is not a subpath of "/a".
func (p Path) IsSubpath(other Path) bool {
	if len(other.components) > len(p.components) {
		return false
	}
	for i, c := range other.components {
		if p.components[i] != c {
			return false
		}
	}
	return true
}

// String returns the canonical wire representation of p: a leading '/',
// components separated by '/', root rendered as "/".
func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	return "/" + strings.Join(p.components, "/")
}

// Equal reports whether p and other denote the same path.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}
