package layers

import (
	"sort"
	"strings"
)

// Layer is a sorted set of component names built at the same stage.
type Layer []string

// Schedule is an ordered list of layers, deepest first.
type Schedule []Layer

// NewLayer returns the sorted, duplicate-free layer holding names.
func NewLayer(names ...string) Layer {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return fromSet(set)
}

func fromSet(set map[string]bool) Layer {
	out := make(Layer, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is a member of the layer.
func (l Layer) Has(name string) bool {
	i := sort.SearchStrings(l, name)
	return i < len(l) && l[i] == name
}

func (l Layer) set() map[string]bool {
	out := make(map[string]bool, len(l))
	for _, n := range l {
		out[n] = true
	}
	return out
}

// Members returns every component of the schedule in build order.
func (s Schedule) Members() []string {
	var out []string
	for _, l := range s {
		out = append(out, l...)
	}
	return out
}

// Root returns the last layer, or nil for an empty schedule.
func (s Schedule) Root() Layer {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Compact drops empty layers.
func (s Schedule) Compact() Schedule {
	out := make(Schedule, 0, len(s))
	for _, l := range s {
		if len(l) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for i, l := range s {
		out[i] = append(Layer(nil), l...)
	}
	return out
}

// Equal reports whether both schedules have the same layers with the same
// members.
func (s Schedule) Equal(other Schedule) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		a, b := NewLayer(s[i]...), NewLayer(other[i]...)
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// String renders one layer per line, members separated by spaces.
func (s Schedule) String() string {
	var b strings.Builder
	for i, l := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(l, " "))
	}
	return b.String()
}
