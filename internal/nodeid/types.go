// internal/nodeid/types.go
package nodeid

// PathSegment represents a single component of an address path, e.g., `name[index]`.
type PathSegment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewPathSegment creates a new path segment without an index.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name, Index: -1}
}

// NewPathSegmentWithIndex creates a new path segment that includes an index.
func NewPathSegmentWithIndex(name string, index int) PathSegment {
	return PathSegment{Name: name, Index: index}
}

// HasIndex returns true if the path segment has an explicit index.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != -1
}

// Address is the structured representation of a construct identifier,
// modeled as the path from the program root to the construct.
type Address struct {
	Path []PathSegment
}

// Root returns the address of a tree root, e.g. `program`.
func Root(name string) *Address {
	return &Address{Path: []PathSegment{NewPathSegment(name)}}
}

// Child returns a new address for the index-th child of a, named by its kind.
// The receiver is not modified.
func (a *Address) Child(name string, index int) *Address {
	path := make([]PathSegment, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	return &Address{Path: append(path, NewPathSegmentWithIndex(name, index))}
}
