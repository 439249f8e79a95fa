package plexus

import (
	"github.com/voodooEntity/neuroplex/src/system/portmap"
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// wire is one directed port-to-port connection inside a pattern. Sides are
// 0 and 1; the destination side is always the opposite of fromSide.
type wire struct {
	fromSide int
	src      selector.PortID
	dst      selector.PortID
}

// Pattern is the connectivity pattern between two module interfaces. It
// owns two pattern-side interfaces mirroring the facing modules and an
// ordered list of wires. Direction convention follows the module view
// mirrored: a module's output port is an IOIn port of its pattern side
// (data flows into the pattern there) and arrives at an IOOut port of the
// opposite side.
type Pattern struct {
	comp  *selector.Compiler
	sides [2]*Interface
	wires []wire
}

// NewPattern builds a pattern whose sides expose the given interface
// selectors.
func NewPattern(comp *selector.Compiler, sel0, sel1 string) (*Pattern, error) {
	s0, err := NewInterface(comp, sel0)
	if err != nil {
		return nil, err
	}
	s1, err := NewInterface(comp, sel1)
	if err != nil {
		return nil, err
	}
	return &Pattern{comp: comp, sides: [2]*Interface{s0, s1}}, nil
}

// Side returns the pattern-side interface 0 or 1.
func (p *Pattern) Side(side int) *Interface {
	return p.sides[side]
}

// Tag categorizes ports of one pattern side, like Interface.Tag.
func (p *Pattern) Tag(side int, sel string, io IO, sig Signal) error {
	return p.sides[side].Tag(sel, io, sig)
}

// Connect wires source ports to destination ports pairwise by position.
// Both selectors must be fully resolvable and expand to equal counts; the
// source ports must all live on one side and the destinations on the
// other. Wired ports must agree in signal kind, the source being IOIn and
// the destination IOOut on their respective sides.
func (p *Pattern) Connect(srcSel, dstSel string) error {
	srcIDs, err := p.comp.Expand(srcSel)
	if err != nil {
		return err
	}
	dstIDs, err := p.comp.Expand(dstSel)
	if err != nil {
		return err
	}
	if len(srcIDs) != len(dstIDs) {
		return selector.NewError(selector.KindLength,
			"%d source ports wired to %d destination ports", len(srcIDs), len(dstIDs))
	}
	for i := range srcIDs {
		fromSide, err := p.sideOf(srcIDs[i])
		if err != nil {
			return err
		}
		toSide := 1 - fromSide
		if !p.sides[toSide].Has(dstIDs[i]) {
			return selector.NewError(selector.KindStructural,
				"destination port %s not exposed by pattern side %d", dstIDs[i], toSide)
		}
		srcSig, _ := p.sides[fromSide].SignalOf(srcIDs[i])
		dstSig, _ := p.sides[toSide].SignalOf(dstIDs[i])
		if srcSig != dstSig {
			return selector.NewError(selector.KindStructural,
				"wired ports %s and %s carry different signal kinds", srcIDs[i], dstIDs[i])
		}
		if io, _ := p.sides[fromSide].IOOf(srcIDs[i]); io != IOIn {
			return selector.NewError(selector.KindStructural,
				"source port %s is not an input of pattern side %d", srcIDs[i], fromSide)
		}
		if io, _ := p.sides[toSide].IOOf(dstIDs[i]); io != IOOut {
			return selector.NewError(selector.KindStructural,
				"destination port %s is not an output of pattern side %d", dstIDs[i], toSide)
		}
		p.wires = append(p.wires, wire{fromSide: fromSide, src: srcIDs[i], dst: dstIDs[i]})
	}
	return nil
}

func (p *Pattern) sideOf(id selector.PortID) (int, error) {
	in0, in1 := p.sides[0].Has(id), p.sides[1].Has(id)
	switch {
	case in0 && in1:
		return 0, selector.NewError(selector.KindDuplicate, "port %s exposed by both pattern sides", id)
	case in0:
		return 0, nil
	case in1:
		return 1, nil
	}
	return 0, selector.NewError(selector.KindStructural, "port %s not exposed by either pattern side", id)
}

// IsConnected reports whether at least one wire runs from side `from` to
// side `to`.
func (p *Pattern) IsConnected(from, to int) bool {
	for _, w := range p.wires {
		if w.fromSide == from && 1-w.fromSide == to {
			return true
		}
	}
	return false
}

// Pairs returns the ordered (source, destination) identifier pairs wired
// from side `from` to side `to` carrying the given signal kind. Pair order
// is wire insertion order; it fixes the positional correspondence of
// exchanged value arrays.
func (p *Pattern) Pairs(from, to int, sig Signal) [][2]selector.PortID {
	var out [][2]selector.PortID
	for _, w := range p.wires {
		if w.fromSide != from || 1-w.fromSide != to {
			continue
		}
		if s, _ := p.sides[from].SignalOf(w.src); s != sig {
			continue
		}
		out = append(out, [2]selector.PortID{w.src, w.dst})
	}
	return out
}

// SrcIDs returns the participating source identifiers on side `from` for
// wires toward side `to` with the given signal kind, deduplicated in wire
// order.
func (p *Pattern) SrcIDs(from, to int, sig Signal) []selector.PortID {
	var out []selector.PortID
	seen := make(map[string]bool)
	for _, pair := range p.Pairs(from, to, sig) {
		key := pair[0].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, pair[0])
	}
	return out
}

// DestIDs translates a set of source identifiers into the destination
// identifiers they are wired to, in wire order. A nil filter selects every
// wired pair. Sources outside the filter are skipped; duplicates are
// removed.
func (p *Pattern) DestIDs(from, to int, sig Signal, srcFilter []selector.PortID) []selector.PortID {
	var filter map[string]bool
	if srcFilter != nil {
		filter = make(map[string]bool, len(srcFilter))
		for _, id := range srcFilter {
			filter[id.Key()] = true
		}
	}
	var out []selector.PortID
	seen := make(map[string]bool)
	for _, pair := range p.Pairs(from, to, sig) {
		if filter != nil && !filter[pair[0].Key()] {
			continue
		}
		key := pair[1].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, pair[1])
	}
	return out
}

// SidePortMapper builds a reference mapper over the side's ports of one
// signal kind, positions assigned 0..N-1 in interface order. It backs the
// Equals connection precondition and identifier-to-position translation
// for that side; its buffer is a throwaway.
func (p *Pattern) SidePortMapper(side int, sig Signal) (*portmap.PortMapper, error) {
	ids := p.sides[side].Ports("", sig)
	if len(ids) == 0 {
		return nil, nil
	}
	buffer := make([]float64, len(ids))
	return portmap.NewPortMapper(p.comp, buffer, []string{selector.JoinIDs(ids)}, nil)
}
