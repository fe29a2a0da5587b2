// Package jsonpath implements the restricted JSONPath dialect used by
// value-specs: '$.'-rooted, dotted or bracket-quoted keys, and integer
// array indices. Missing intermediate segments and out-of-range indices
// resolve to "absent" rather than an error.
package jsonpath

import (
	"strconv"
	"strings"

	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

// Segment is one step of a parsed path: either a named object key or an
// array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Parse splits a "$.a.b[0].c['weird.name']" path into its segments. The
// leading "$." is required; Parse returns nil for anything else.
func Parse(path string) []Segment {
	if !strings.HasPrefix(path, "$.") && path != "$" {
		return nil
	}
	rest := strings.TrimPrefix(path, "$")
	rest = strings.TrimPrefix(rest, ".")

	var segs []Segment
	i := 0
	for i < len(rest) {
		switch {
		case rest[i] == '[':
			end := strings.IndexByte(rest[i:], ']')
			if end < 0 {
				return segs
			}
			inner := rest[i+1 : i+end]
			i += end + 1
			// Skip a following '.' if present (e.g. "[0].c").
			if i < len(rest) && rest[i] == '.' {
				i++
			}
			inner = strings.TrimSpace(inner)
			if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
				segs = append(segs, Segment{Key: inner[1 : len(inner)-1]})
				continue
			}
			if n, err := strconv.Atoi(inner); err == nil {
				segs = append(segs, Segment{Index: n, IsIndex: true})
				continue
			}
			segs = append(segs, Segment{Key: inner})
		default:
			end := i
			for end < len(rest) && rest[end] != '.' && rest[end] != '[' {
				end++
			}
			key := rest[i:end]
			if key != "" {
				segs = append(segs, Segment{Key: key})
			}
			i = end
			if i < len(rest) && rest[i] == '.' {
				i++
			}
		}
	}
	return segs
}

// Extract resolves path against root, returning the first matching value
// in document order, or false if any segment is absent.
func Extract(root jsonval.Value, path string) (jsonval.Value, bool) {
	segs := Parse(path)
	cur := root
	for _, s := range segs {
		if s.IsIndex {
			next, ok := cur.Index(s.Index)
			if !ok {
				return jsonval.Value{}, false
			}
			cur = next
			continue
		}
		next, ok := cur.Get(s.Key)
		if !ok {
			return jsonval.Value{}, false
		}
		cur = next
	}
	return cur, true
}
