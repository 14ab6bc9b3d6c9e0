// internal/nodeid/address.go
package nodeid

import (
	"fmt"
	"strings"
)

// String serializes the Address into its canonical path string representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.Index != -1 {
			fmt.Fprintf(&sb, "[%d]", segment.Index)
		}
	}

	return sb.String()
}
