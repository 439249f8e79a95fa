package portmap

import (
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// PortMapper binds a port table to positions in a numeric buffer and
// exposes selector-addressed reads and writes, the only data-plane API
// step functions see. The buffer is owned externally by the module for its
// whole lifetime; the mapper holds a non-owning alias. Several mappers may
// alias one shared buffer through explicit position lists.
type PortMapper struct {
	comp  *selector.Compiler
	data  []float64
	table *PortTable
}

// NewPortMapper builds the port table from the selectors and binds it to
// data. Without an explicit position list the table size must equal the
// buffer length; with one, every position must fall inside the buffer.
func NewPortMapper(comp *selector.Compiler, data []float64, selectors []string, positions []int) (*PortMapper, error) {
	table, err := NewPortTable(comp, selectors, positions)
	if err != nil {
		return nil, err
	}
	if positions == nil {
		if table.Len() != len(data) {
			return nil, selector.NewError(selector.KindLength,
				"%d ports mapped onto buffer of length %d", table.Len(), len(data))
		}
	} else {
		for _, p := range positions {
			if p < 0 || p >= len(data) {
				return nil, selector.NewError(selector.KindLength,
					"position %d outside buffer of length %d", p, len(data))
			}
		}
	}
	return &PortMapper{comp: comp, data: data, table: table}, nil
}

// Table exposes the mapper's immutable port table.
func (m *PortMapper) Table() *PortTable { return m.table }

// Len returns the number of mapped ports.
func (m *PortMapper) Len() int { return m.table.Len() }

// Resolve evaluates a query selector against the port table and returns
// the matching buffer positions in table order. Unlike at construction
// time, wildcards, sets and intervals are permitted here. A selector
// deeper than the table is a structural error; matching nothing is not.
func (m *PortMapper) Resolve(text string) ([]int, error) {
	sel, err := m.comp.Parse(text)
	if err != nil {
		return nil, err
	}
	if sel.MaxLevels() > m.table.Depth() {
		return nil, selector.NewError(selector.KindStructural,
			"selector %q has %d levels, table has %d", text, sel.MaxLevels(), m.table.Depth())
	}
	return m.table.Resolve(sel), nil
}

// Get returns the buffer values at Resolve(text). An empty match yields an
// empty result.
func (m *PortMapper) Get(text string) ([]float64, error) {
	positions, err := m.Resolve(text)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = m.data[p]
	}
	return out, nil
}

// Set writes values into the buffer at Resolve(text). A single value is
// broadcast to every matched position; otherwise the value count must
// equal the match count.
func (m *PortMapper) Set(text string, values ...float64) error {
	positions, err := m.Resolve(text)
	if err != nil {
		return err
	}
	if len(values) == 1 {
		for _, p := range positions {
			m.data[p] = values[0]
		}
		return nil
	}
	if len(values) != len(positions) {
		return selector.NewError(selector.KindLength,
			"%d values for %d matched ports of %q", len(values), len(positions), text)
	}
	for i, p := range positions {
		m.data[p] = values[i]
	}
	return nil
}

// NonzeroPositions returns the buffer positions of mapped ports whose
// current value is non-zero, in table order.
func (m *PortMapper) NonzeroPositions() []int {
	var out []int
	for _, pos := range m.table.pos {
		if m.data[pos] != 0 {
			out = append(out, pos)
		}
	}
	return out
}

// NonzeroPortIDs returns the identifiers of mapped ports whose current
// value is non-zero, in table order.
func (m *PortMapper) NonzeroPortIDs() []selector.PortID {
	var out []selector.PortID
	for slot, id := range m.table.ids {
		if m.data[m.table.pos[slot]] != 0 {
			out = append(out, id)
		}
	}
	return out
}

// PortsToPositions translates concrete identifiers into their buffer
// positions, preserving input order. Unknown identifiers are a structural
// error.
func (m *PortMapper) PortsToPositions(ids []selector.PortID) ([]int, error) {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		pos, ok := m.table.PositionOf(id)
		if !ok {
			return nil, selector.NewError(selector.KindStructural, "unknown port %s", id)
		}
		out = append(out, pos)
	}
	return out, nil
}

// Equals reports whether both mappers' port tables denote the identical
// identifier-to-position bijection. Buffer contents are irrelevant. Two
// modules may only be linked by a pattern when their facing mappers are
// equal, which guarantees raw positional exchange needs no re-keying.
func (m *PortMapper) Equals(o *PortMapper) bool {
	if o == nil {
		return false
	}
	return m.table.Equals(o.table)
}

// ValuesAt copies the buffer values at the given positions. Marshaling
// helper for the per-step protocol; not part of the step-function surface.
func (m *PortMapper) ValuesAt(positions []int) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = m.data[p]
	}
	return out
}

// WriteAt writes values to the given buffer positions pairwise.
func (m *PortMapper) WriteAt(positions []int, values []float64) error {
	if len(positions) != len(values) {
		return selector.NewError(selector.KindLength,
			"%d values for %d positions", len(values), len(positions))
	}
	for i, p := range positions {
		m.data[p] = values[i]
	}
	return nil
}

// FillAt writes one value to every given buffer position.
func (m *PortMapper) FillAt(positions []int, value float64) {
	for _, p := range positions {
		m.data[p] = value
	}
}
