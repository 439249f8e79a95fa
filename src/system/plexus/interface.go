package plexus

import (
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// IO is the direction of a port relative to its owner.
type IO string

const (
	IOIn  IO = "in"
	IOOut IO = "out"
)

// Signal is the kind of signal a port carries: continuous graded
// potentials or discrete spikes.
type Signal string

const (
	SignalGpot  Signal = "gpot"
	SignalSpike Signal = "spike"
)

type portAttr struct {
	io  IO
	sig Signal
}

// Interface categorizes the ports exposed by one module (or one pattern
// side) by direction and signal kind. Port order is the expansion order of
// the interface selector and stays fixed for the interface's lifetime.
type Interface struct {
	comp  *selector.Compiler
	ids   []selector.PortID
	index map[string]int
	attrs []portAttr
	depth int
}

// NewInterface expands the interface selector into the ordered port set.
func NewInterface(comp *selector.Compiler, sel string) (*Interface, error) {
	ids, err := comp.Expand(sel)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(ids))
	depth := 0
	for slot, id := range ids {
		if slot == 0 {
			depth = len(id)
		} else if len(id) != depth {
			return nil, selector.NewError(selector.KindStructural,
				"interface port %s has depth %d, expected %d", id, len(id), depth)
		}
		key := id.Key()
		if _, dup := index[key]; dup {
			return nil, selector.NewError(selector.KindDuplicate, "interface port %s occurs more than once", id)
		}
		index[key] = slot
	}
	return &Interface{
		comp:  comp,
		ids:   ids,
		index: index,
		attrs: make([]portAttr, len(ids)),
		depth: depth,
	}, nil
}

func (i *Interface) Len() int   { return len(i.ids) }
func (i *Interface) Depth() int { return i.depth }

// Tag assigns direction and/or signal kind to every port matched by the
// selector. Empty io or sig leaves the respective attribute untouched.
// Matching nothing is tolerated; tagging is additive.
func (i *Interface) Tag(sel string, io IO, sig Signal) error {
	parsed, err := i.comp.Parse(sel)
	if err != nil {
		return err
	}
	if parsed.MaxLevels() > i.depth {
		return selector.NewError(selector.KindStructural,
			"selector %q has %d levels, interface has %d", sel, parsed.MaxLevels(), i.depth)
	}
	for slot, id := range i.ids {
		if !selector.Matches(parsed, id, 0, i.depth) {
			continue
		}
		if io != "" {
			i.attrs[slot].io = io
		}
		if sig != "" {
			i.attrs[slot].sig = sig
		}
	}
	return nil
}

// Ports returns the identifiers with matching attributes in interface
// order. An empty io or sig matches any value.
func (i *Interface) Ports(io IO, sig Signal) []selector.PortID {
	var out []selector.PortID
	for slot, id := range i.ids {
		if io != "" && i.attrs[slot].io != io {
			continue
		}
		if sig != "" && i.attrs[slot].sig != sig {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (i *Interface) GpotPorts() []selector.PortID  { return i.Ports("", SignalGpot) }
func (i *Interface) SpikePorts() []selector.PortID { return i.Ports("", SignalSpike) }
func (i *Interface) InPorts() []selector.PortID    { return i.Ports(IOIn, "") }
func (i *Interface) OutPorts() []selector.PortID   { return i.Ports(IOOut, "") }

// SignalOf returns the signal kind of the given port.
func (i *Interface) SignalOf(id selector.PortID) (Signal, bool) {
	slot, ok := i.index[id.Key()]
	if !ok {
		return "", false
	}
	return i.attrs[slot].sig, true
}

// IOOf returns the direction of the given port.
func (i *Interface) IOOf(id selector.PortID) (IO, bool) {
	slot, ok := i.index[id.Key()]
	if !ok {
		return "", false
	}
	return i.attrs[slot].io, true
}

// Has reports whether the interface exposes the given port.
func (i *Interface) Has(id selector.PortID) bool {
	_, ok := i.index[id.Key()]
	return ok
}

// IsCompatible reports whether the other interface can face this one:
// they share at least one port, and every shared port carries the same
// signal kind with complementary direction. Ports exposed by only one
// side are permitted (subset connectivity).
func (i *Interface) IsCompatible(other *Interface) bool {
	shared := 0
	for slot, id := range i.ids {
		oSlot, ok := other.index[id.Key()]
		if !ok {
			continue
		}
		shared++
		if i.attrs[slot].sig != other.attrs[oSlot].sig {
			return false
		}
		a, b := i.attrs[slot].io, other.attrs[oSlot].io
		if !(a == IOIn && b == IOOut) && !(a == IOOut && b == IOIn) {
			return false
		}
	}
	return shared > 0
}
