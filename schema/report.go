package schema

import (
	"sort"
	"strings"
)

// Report maps a field path to its violation messages. Nested paths are dotted
// ("locations.0.coordinates"); the empty path addresses the payload itself.
type Report map[string][]string

// Add records a message against path.
func (r Report) Add(path, message string) {
	r[path] = append(r[path], message)
}

// Has reports whether path has at least one message.
func (r Report) Has(path string) bool {
	return len(r[path]) > 0
}

// Messages returns the messages recorded for path.
func (r Report) Messages(path string) []string {
	return r[path]
}

// Empty reports whether no violation was recorded.
func (r Report) Empty() bool {
	return r.count() == 0
}

// Paths returns the paths with violations, sorted.
func (r Report) Paths() []string {
	paths := make([]string, 0, len(r))
	for p, msgs := range r {
		if len(msgs) > 0 {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (r Report) count() int {
	n := 0
	for _, msgs := range r {
		n += len(msgs)
	}
	return n
}

// Error implements error.
func (r Report) Error() string {
	parts := make([]string, 0, len(r))
	for _, p := range r.Paths() {
		label := p
		if label == "" {
			label = "(root)"
		}
		parts = append(parts, label+": "+strings.Join(r[p], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Format renders the report as nested objects carrying an "_errors" list at
// every level, the shape clients of the API parse:
//
//	{"_errors": [], "name": {"_errors": ["Required"]}}
func (r Report) Format() map[string]any {
	root := map[string]any{"_errors": []string{}}
	for _, p := range r.Paths() {
		node := root
		if p != "" {
			for _, segment := range strings.Split(p, ".") {
				child, ok := node[segment].(map[string]any)
				if !ok {
					child = map[string]any{"_errors": []string{}}
					node[segment] = child
				}
				node = child
			}
		}
		node["_errors"] = append(node["_errors"].([]string), r[p]...)
	}
	return root
}
