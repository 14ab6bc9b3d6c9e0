// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a single segment of a path, e.g., `program` or `data_step[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)(?:\[(\d+)\])?$`)

// Parse creates a new Address by parsing its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	segments := strings.Split(rawID, ".")
	addr := &Address{Path: make([]PathSegment, 0, len(segments))}
	for _, segmentStr := range segments {
		if segmentStr == "" {
			return nil, fmt.Errorf("identifier path contains empty segment")
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		segment := NewPathSegment(matches[1])
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				return nil, fmt.Errorf("index out of range in segment %q: %w", segmentStr, err)
			}
			segment.Index = index
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}
