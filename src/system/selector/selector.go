package selector

import (
	"strconv"
	"strings"
)

// Label is one concrete element of a hierarchical port identifier. A label
// is either a string path segment or a non-negative integer; the two never
// compare equal even when they render the same.
type Label struct {
	Str   string
	Num   int
	IsNum bool
}

func StringLabel(s string) Label {
	return Label{Str: s}
}

func NumLabel(n int) Label {
	return Label{Num: n, IsNum: true}
}

func (l Label) Equal(o Label) bool {
	if l.IsNum != o.IsNum {
		return false
	}
	if l.IsNum {
		return l.Num == o.Num
	}
	return l.Str == o.Str
}

func (l Label) String() string {
	if l.IsNum {
		return strconv.Itoa(l.Num)
	}
	return l.Str
}

// key returns a collision-free form for map keys, keeping integer and
// string labels in distinct namespaces.
func (l Label) key() string {
	if l.IsNum {
		return "i:" + strconv.Itoa(l.Num)
	}
	return "s:" + l.Str
}

// PortID is a fixed-depth tuple of concrete labels identifying one port.
type PortID []Label

func (p PortID) Equal(o PortID) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// String renders the identifier in selector syntax, e.g. "/foo/bar/0".
func (p PortID) String() string {
	var sb strings.Builder
	for _, l := range p {
		sb.WriteByte('/')
		sb.WriteString(l.String())
	}
	return sb.String()
}

// Key returns a canonical form usable as a map key.
func (p PortID) Key() string {
	var sb strings.Builder
	for _, l := range p {
		sb.WriteByte('/')
		sb.WriteString(l.key())
	}
	return sb.String()
}

// JoinIDs renders concrete identifiers as one union selector, the inverse
// of expanding a concrete selector.
func JoinIDs(ids []PortID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// MatcherKind tags the level matcher variant.
type MatcherKind int

const (
	MatchLiteral MatcherKind = iota
	MatchWildcard
	MatchSet
	MatchInterval
)

// Matcher is one position's acceptance rule within a branch, a tagged
// variant over literal, wildcard, set and half-open interval.
type Matcher struct {
	Kind      MatcherKind
	Literal   Label   // MatchLiteral
	Set       []Label // MatchSet, ordered
	Start     int     // MatchInterval, inclusive
	Stop      int     // MatchInterval, exclusive; ignored when Unbounded
	Unbounded bool
}

// Accepts reports whether the matcher accepts the given concrete label.
func (m Matcher) Accepts(l Label) bool {
	switch m.Kind {
	case MatchWildcard:
		return true
	case MatchLiteral:
		return m.Literal.Equal(l)
	case MatchSet:
		for _, e := range m.Set {
			if e.Equal(l) {
				return true
			}
		}
		return false
	case MatchInterval:
		if !l.IsNum {
			return false
		}
		if l.Num < m.Start {
			return false
		}
		return m.Unbounded || l.Num < m.Stop
	}
	return false
}

// elements expands the matcher into its literal element list. Wildcards and
// unbounded intervals cannot be enumerated and yield a structural error.
func (m Matcher) elements() ([]Label, error) {
	switch m.Kind {
	case MatchLiteral:
		return []Label{m.Literal}, nil
	case MatchSet:
		return m.Set, nil
	case MatchInterval:
		if m.Unbounded {
			return nil, NewError(KindStructural, "interval with unbounded stop cannot be expanded")
		}
		out := make([]Label, 0, m.Stop-m.Start)
		for v := m.Start; v < m.Stop; v++ {
			out = append(out, NumLabel(v))
		}
		return out, nil
	case MatchWildcard:
		return nil, NewError(KindStructural, "wildcard cannot be expanded")
	}
	return nil, NewError(KindStructural, "unknown matcher kind %d", m.Kind)
}

// Branch is one OR-alternative of a selector, an ordered matcher sequence.
type Branch []Matcher

// Selector is a normalized selector: an ordered list of branches. Branch
// order is significant, it determines final position ordering.
type Selector struct {
	Branches []Branch
}

// MaxLevels returns the longest branch length.
func (s Selector) MaxLevels() int {
	max := 0
	for _, b := range s.Branches {
		if len(b) > max {
			max = len(b)
		}
	}
	return max
}

// Concrete reports whether every matcher in every branch is expandable into
// literal elements, i.e. the selector may be used to build a port table.
func (s Selector) Concrete() bool {
	for _, b := range s.Branches {
		for _, m := range b {
			if m.Kind == MatchWildcard || (m.Kind == MatchInterval && m.Unbounded) {
				return false
			}
		}
	}
	return true
}
