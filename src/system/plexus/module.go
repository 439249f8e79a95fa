package plexus

import (
	"fmt"
	"strings"

	"github.com/voodooEntity/neuroplex/src/system/archivist"
	"github.com/voodooEntity/neuroplex/src/system/portmap"
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// StepPolicy decides how a module treats phase failures inside one step.
type StepPolicy string

const (
	// PolicyStrict propagates any phase failure and aborts the run.
	PolicyStrict StepPolicy = "strict"
	// PolicyResilient logs a phase failure and proceeds to the next phase
	// or step; no retry, no rollback of buffer mutations already applied.
	PolicyResilient StepPolicy = "resilient"
)

// StepFunction is the externally supplied compute phase. It must read and
// write port data only through the two mappers. Either mapper may be nil
// when the module exposes no ports of that signal kind.
type StepFunction func(gpot, spike *portmap.PortMapper, step int) error

// Payload is the inter-module wire shape: a dense graded-potential array
// ordered by the destination position list, plus the destination buffer
// positions of transmitted spikes.
type Payload struct {
	Gpot   []float64
	Spikes []int
}

// Staged is an outbound payload addressed to one destination module,
// handed to the transport layer at the end of a step.
type Staged struct {
	Dest string
	Data Payload
}

// ModuleSpec declares a module's exposed ports by direction and signal
// kind. Any selector may be empty when the module has no such ports.
type ModuleSpec struct {
	ID       string
	InGpot   string
	OutGpot  string
	InSpike  string
	OutSpike string
	Policy   StepPolicy
}

func (s ModuleSpec) interfaceSelector() string {
	return joinSelectors(s.InGpot, s.OutGpot, s.InSpike, s.OutSpike)
}

func joinSelectors(sels ...string) string {
	var parts []string
	for _, s := range sels {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

// Module is one independently executing simulation unit. It owns its two
// numeric buffers for their whole lifetime; the mappers only alias them.
// Exactly one execution context (the module's own step loop) mutates the
// buffers during a step; exchange with peers happens only through queued
// payloads at step boundaries.
type Module struct {
	id     string
	spec   ModuleSpec
	iface  *Interface
	step   StepFunction
	policy StepPolicy
	log    *archivist.Archivist

	dataGpot  []float64
	dataSpike []float64
	gpot      *portmap.PortMapper
	spike     *portmap.PortMapper

	patterns map[string]*Pattern
	patSides map[string][2]int
	inIDs    []string
	outIDs   []string

	// precomputed at fabric start, immutable during the run
	inGpotPos    map[string][]int
	inSpikePos   map[string][]int
	outGpotPos   map[string][]int
	outSpikeIDs  map[string][]selector.PortID
	peerSpikePMs map[string]*portmap.PortMapper

	inQueue  map[string][]Payload
	outStage []Staged
	steps    int
}

// NewModule validates the port declaration and builds the module's interface, buffers
// and port mappers. The in/out selectors of one signal kind must be
// disjoint, as must graded-potential and spiking ports.
func NewModule(comp *selector.Compiler, spec ModuleSpec, step StepFunction, log *archivist.Archivist) (*Module, error) {
	if spec.ID == "" {
		return nil, selector.NewError(selector.KindStructural, "module spec without id")
	}
	ifaceSel := spec.interfaceSelector()
	if ifaceSel == "" {
		return nil, selector.NewError(selector.KindStructural, "module %q exposes no ports", spec.ID)
	}
	if spec.Policy == "" {
		spec.Policy = PolicyStrict
	}

	if err := requireDisjoint(comp, spec.InGpot, spec.OutGpot); err != nil {
		return nil, err
	}
	if err := requireDisjoint(comp, spec.InSpike, spec.OutSpike); err != nil {
		return nil, err
	}
	gpotSel := joinSelectors(spec.InGpot, spec.OutGpot)
	spikeSel := joinSelectors(spec.InSpike, spec.OutSpike)
	if err := requireDisjoint(comp, gpotSel, spikeSel); err != nil {
		return nil, err
	}

	iface, err := NewInterface(comp, ifaceSel)
	if err != nil {
		return nil, err
	}
	for _, tag := range []struct {
		sel string
		io  IO
		sig Signal
	}{
		{spec.InGpot, IOIn, SignalGpot},
		{spec.OutGpot, IOOut, SignalGpot},
		{spec.InSpike, IOIn, SignalSpike},
		{spec.OutSpike, IOOut, SignalSpike},
	} {
		if tag.sel == "" {
			continue
		}
		if err := iface.Tag(tag.sel, tag.io, tag.sig); err != nil {
			return nil, err
		}
	}

	m := &Module{
		id:           spec.ID,
		spec:         spec,
		iface:        iface,
		step:         step,
		policy:       spec.Policy,
		log:          log,
		patterns:     make(map[string]*Pattern),
		patSides:     make(map[string][2]int),
		inGpotPos:    make(map[string][]int),
		inSpikePos:   make(map[string][]int),
		outGpotPos:   make(map[string][]int),
		outSpikeIDs:  make(map[string][]selector.PortID),
		peerSpikePMs: make(map[string]*portmap.PortMapper),
		inQueue:      make(map[string][]Payload),
	}

	if gpotSel != "" {
		n := len(iface.GpotPorts())
		m.dataGpot = make([]float64, n)
		m.gpot, err = portmap.NewPortMapper(comp, m.dataGpot, splitSelectors(spec.InGpot, spec.OutGpot), nil)
		if err != nil {
			return nil, err
		}
	}
	if spikeSel != "" {
		n := len(iface.SpikePorts())
		m.dataSpike = make([]float64, n)
		m.spike, err = portmap.NewPortMapper(comp, m.dataSpike, splitSelectors(spec.InSpike, spec.OutSpike), nil)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func splitSelectors(sels ...string) []string {
	var out []string
	for _, s := range sels {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func requireDisjoint(comp *selector.Compiler, a, b string) error {
	if a == "" || b == "" {
		return nil
	}
	disjoint, err := comp.AreDisjoint(a, b)
	if err != nil {
		return err
	}
	if !disjoint {
		return selector.NewError(selector.KindDuplicate, "selectors %q and %q overlap", a, b)
	}
	return nil
}

func (m *Module) ID() string                       { return m.id }
func (m *Module) Spec() ModuleSpec                 { return m.spec }
func (m *Module) Interface() *Interface            { return m.iface }
func (m *Module) GpotMapper() *portmap.PortMapper  { return m.gpot }
func (m *Module) SpikeMapper() *portmap.PortMapper { return m.spike }
func (m *Module) Steps() int                       { return m.steps }

// connect installs a pattern toward a peer. Precondition checks live in
// Fabric.Connect.
func (m *Module) connect(peer string, pat *Pattern, ownSide, peerSide int) {
	m.patterns[peer] = pat
	m.patSides[peer] = [2]int{ownSide, peerSide}
}

// initPortIndexes precomputes, per peer, the buffer positions and wired
// spike port sets the marshaling phases work on. Called once at fabric
// start, immediately before the run loop begins.
func (m *Module) initPortIndexes() error {
	m.inIDs = m.inIDs[:0]
	m.outIDs = m.outIDs[:0]
	for peer, pat := range m.patterns {
		own, ps := m.patSides[peer][0], m.patSides[peer][1]

		if pat.IsConnected(own, ps) {
			m.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "extracting output ports of "+m.id+" toward "+peer)
			gpotPairs := pat.Pairs(own, ps, SignalGpot)
			srcIDs := make([]selector.PortID, len(gpotPairs))
			for i, pair := range gpotPairs {
				srcIDs[i] = pair[0]
			}
			if m.gpot != nil {
				positions, err := m.gpot.PortsToPositions(srcIDs)
				if err != nil {
					return err
				}
				m.outGpotPos[peer] = positions
			} else if len(srcIDs) > 0 {
				return selector.NewError(selector.KindStructural,
					"module %q has no graded-potential ports but is wired for them", m.id)
			}
			m.outSpikeIDs[peer] = pat.SrcIDs(own, ps, SignalSpike)
			pm, err := pat.SidePortMapper(ps, SignalSpike)
			if err != nil {
				return err
			}
			m.peerSpikePMs[peer] = pm
			m.outIDs = append(m.outIDs, peer)
		}

		if pat.IsConnected(ps, own) {
			m.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "extracting input ports of "+m.id+" from "+peer)
			gpotPairs := pat.Pairs(ps, own, SignalGpot)
			dstIDs := make([]selector.PortID, len(gpotPairs))
			for i, pair := range gpotPairs {
				dstIDs[i] = pair[1]
			}
			if m.gpot != nil {
				positions, err := m.gpot.PortsToPositions(dstIDs)
				if err != nil {
					return err
				}
				m.inGpotPos[peer] = positions
			} else if len(dstIDs) > 0 {
				return selector.NewError(selector.KindStructural,
					"module %q has no graded-potential ports but receives them", m.id)
			}
			spikePairs := pat.Pairs(ps, own, SignalSpike)
			spikeDst := make([]selector.PortID, len(spikePairs))
			for i, pair := range spikePairs {
				spikeDst[i] = pair[1]
			}
			if m.spike != nil {
				positions, err := m.spike.PortsToPositions(spikeDst)
				if err != nil {
					return err
				}
				m.inSpikePos[peer] = dedupPositions(positions)
			} else if len(spikeDst) > 0 {
				return selector.NewError(selector.KindStructural,
					"module %q has no spiking ports but receives spikes", m.id)
			}
			m.inIDs = append(m.inIDs, peer)
			m.inQueue[peer] = nil
		}
	}
	return nil
}

func dedupPositions(positions []int) []int {
	seen := make(map[int]bool, len(positions))
	out := positions[:0]
	for _, p := range positions {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// QueueInput appends a payload to the FIFO of the given upstream source.
// Only the transport layer calls this, strictly between steps.
func (m *Module) QueueInput(src string, p Payload) {
	m.inQueue[src] = append(m.inQueue[src], p)
}

// StagedOutputs returns the payloads staged by the most recent step.
func (m *Module) StagedOutputs() []Staged {
	return m.outStage
}

// drainInputs is the input phase: for every upstream source with a queued
// payload, dequeue the oldest one, write its graded-potential values to
// the precomputed positions, zero the spike positions tied to that source
// and set exactly the transmitted spike indices to one. An empty queue is
// a normal condition, not an error. Fan-in being disallowed, no two
// sources ever write the same position within one step.
func (m *Module) drainInputs() error {
	for _, src := range m.inIDs {
		queue := m.inQueue[src]
		if len(queue) == 0 {
			m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "module "+m.id+" no input from "+src)
			continue
		}
		data := queue[0]
		m.inQueue[src] = queue[1:]
		m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "module "+m.id+" input from "+src+" retrieved")

		if positions := m.inGpotPos[src]; len(positions) > 0 {
			if err := m.gpot.WriteAt(positions, data.Gpot); err != nil {
				return fmt.Errorf("input phase from %s: %w", src, err)
			}
		}
		if m.spike != nil {
			m.spike.FillAt(m.inSpikePos[src], 0)
			m.spike.FillAt(data.Spikes, 1)
		}
	}
	return nil
}

// runStep is the compute phase.
func (m *Module) runStep() error {
	if m.step == nil {
		return nil
	}
	return m.step(m.gpot, m.spike, m.steps)
}

// stageOutputs is the output phase: per downstream destination, read the
// wired graded-potential values, intersect the wired spiking ports with
// the currently non-zero ones, translate that set into the destination's
// own positions through the pattern, and stage the payload for transport.
func (m *Module) stageOutputs() error {
	m.outStage = m.outStage[:0]
	for _, dest := range m.outIDs {
		var gpotVals []float64
		if positions := m.outGpotPos[dest]; len(positions) > 0 {
			gpotVals = m.gpot.ValuesAt(positions)
		}

		var destPos []int
		if wired := m.outSpikeIDs[dest]; len(wired) > 0 && m.spike != nil {
			fired := intersectIDs(wired, m.spike.NonzeroPortIDs())
			pat := m.patterns[dest]
			own, ps := m.patSides[dest][0], m.patSides[dest][1]
			destIDs := pat.DestIDs(own, ps, SignalSpike, fired)
			var err error
			destPos, err = m.peerSpikePMs[dest].PortsToPositions(destIDs)
			if err != nil {
				return fmt.Errorf("output phase toward %s: %w", dest, err)
			}
		}

		m.outStage = append(m.outStage, Staged{Dest: dest, Data: Payload{Gpot: gpotVals, Spikes: destPos}})
		m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "module "+m.id+" staged output toward "+dest)
	}
	return nil
}

// intersectIDs keeps the elements of ordered that also occur in other,
// preserving the order of the first argument.
func intersectIDs(ordered, other []selector.PortID) []selector.PortID {
	lookup := make(map[string]bool, len(other))
	for _, id := range other {
		lookup[id.Key()] = true
	}
	var out []selector.PortID
	for _, id := range ordered {
		if lookup[id.Key()] {
			out = append(out, id)
		}
	}
	return out
}

// Step executes one full marshaling cycle: input phase, compute phase,
// output phase. Under PolicyStrict the first failure aborts the step;
// under PolicyResilient failures are logged and the remaining phases still
// run. Buffer mutations applied before a failure stay in place.
func (m *Module) Step() error {
	phases := []struct {
		name string
		fn   func() error
	}{
		{"input", m.drainInputs},
		{"compute", m.runStep},
		{"output", m.stageOutputs},
	}
	for _, phase := range phases {
		if err := phase.fn(); err != nil {
			if m.policy == PolicyStrict {
				return fmt.Errorf("module %s %s phase: %w", m.id, phase.name, err)
			}
			m.log.Error("module " + m.id + " " + phase.name + " phase failed, proceeding: " + err.Error())
		}
	}
	m.steps++
	return nil
}

type stepResult struct {
	id  string
	err error
}

// loop is the module's long-lived cooperative run loop: one goroutine per
// module, stepping on tick, exiting on quit. Cancellation is only ever
// observed between steps, never mid-step.
func (m *Module) loop(tick <-chan struct{}, done chan<- stepResult, quit <-chan struct{}) {
	m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "module "+m.id+" loop starting")
	for {
		select {
		case <-quit:
			m.log.Debug(archivist.DEBUG_LEVEL_TRACE, "module "+m.id+" loop stopped")
			return
		case <-tick:
			done <- stepResult{id: m.id, err: m.Step()}
		}
	}
}
