package portmap

import (
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// PortTable is an ordered, duplicate-free bijection between concrete port
// identifiers and integer buffer positions. A table is built once from one
// or more fully resolvable selectors and is immutable afterwards; there is
// no incremental registration of ports.
type PortTable struct {
	ids   []selector.PortID
	index map[string]int // canonical id key -> slot
	pos   []int          // slot -> buffer position
	depth int
}

// NewPortTable expands the given selectors in call order and binds the
// resulting identifiers to positions. With positions == nil the identifiers
// get positions 0..N-1 in table order; an explicit position list must match
// the identifier count and enables several tables to address slices of one
// shared buffer.
func NewPortTable(comp *selector.Compiler, selectors []string, positions []int) (*PortTable, error) {
	var ids []selector.PortID
	for _, s := range selectors {
		expanded, err := comp.Expand(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, expanded...)
	}
	if len(ids) == 0 {
		return nil, selector.NewError(selector.KindStructural, "selectors resolve to no ports")
	}

	depth := len(ids[0])
	index := make(map[string]int, len(ids))
	for slot, id := range ids {
		if len(id) != depth {
			return nil, selector.NewError(selector.KindStructural,
				"identifier %s has depth %d, expected %d", id, len(id), depth)
		}
		key := id.Key()
		if _, dup := index[key]; dup {
			return nil, selector.NewError(selector.KindDuplicate, "identifier %s occurs more than once", id)
		}
		index[key] = slot
	}

	if positions == nil {
		positions = make([]int, len(ids))
		for i := range positions {
			positions[i] = i
		}
	} else {
		if len(positions) != len(ids) {
			return nil, selector.NewError(selector.KindLength,
				"%d positions supplied for %d ports", len(positions), len(ids))
		}
		positions = append([]int(nil), positions...)
	}

	return &PortTable{ids: ids, index: index, pos: positions, depth: depth}, nil
}

// Len returns the number of ports in the table.
func (t *PortTable) Len() int { return len(t.ids) }

// Depth returns the identifier depth shared by all ports.
func (t *PortTable) Depth() int { return t.depth }

// IDs returns the table's identifiers in position order.
func (t *PortTable) IDs() []selector.PortID {
	out := make([]selector.PortID, len(t.ids))
	copy(out, t.ids)
	return out
}

// PositionOf returns the buffer position bound to the given identifier.
func (t *PortTable) PositionOf(id selector.PortID) (int, bool) {
	slot, ok := t.index[id.Key()]
	if !ok {
		return 0, false
	}
	return t.pos[slot], true
}

// Resolve returns the buffer positions of all ports matched by the
// normalized query selector, in table iteration order. An empty result is
// valid output, not an error.
func (t *PortTable) Resolve(sel selector.Selector) []int {
	var out []int
	for slot, id := range t.ids {
		if selector.Matches(sel, id, 0, t.depth) {
			out = append(out, t.pos[slot])
		}
	}
	return out
}

// Equals reports whether both tables denote the identical
// identifier-to-position bijection: same identifiers, same order, same
// positions.
func (t *PortTable) Equals(o *PortTable) bool {
	if o == nil || len(t.ids) != len(o.ids) {
		return false
	}
	for i := range t.ids {
		if !t.ids[i].Equal(o.ids[i]) || t.pos[i] != o.pos[i] {
			return false
		}
	}
	return true
}
