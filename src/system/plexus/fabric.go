package plexus

import (
	"strconv"

	"github.com/voodooEntity/neuroplex/src/system/archivist"
	"github.com/voodooEntity/neuroplex/src/system/configBuilder"
	"github.com/voodooEntity/neuroplex/src/system/portmap"
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// Fabric owns the set of modules, the patterns wiring them and the
// cooperative run loop. One goroutine per module steps on tick; the
// fabric gathers results, routes staged payloads between steps and keeps
// the registry's module state current.
type Fabric struct {
	comp     *selector.Compiler
	log      *archivist.Archivist
	registry *Registry

	modules   map[string]*Module
	order     []string
	failed    map[string]bool
	stepLimit int

	quit    chan struct{}
	ticks   map[string]chan struct{}
	results chan stepResult
	started bool
	steps   int
}

func NewFabric(comp *selector.Compiler, registry *Registry, log *archivist.Archivist, stepLimit int) *Fabric {
	return &Fabric{
		comp:      comp,
		log:       log,
		registry:  registry,
		modules:   make(map[string]*Module),
		failed:    make(map[string]bool),
		stepLimit: stepLimit,
		ticks:     make(map[string]chan struct{}),
	}
}

// AddModule registers a module with the fabric and maps its entity into
// the registry graph.
func (f *Fabric) AddModule(m *Module) error {
	if _, exists := f.modules[m.ID()]; exists {
		return selector.NewError(selector.KindDuplicate, "module %q already added", m.ID())
	}
	f.modules[m.ID()] = m
	f.order = append(f.order, m.ID())

	spec := m.Spec()
	entity := configBuilder.NewModule(spec.ID).
		SetInGpot(spec.InGpot).
		SetOutGpot(spec.OutGpot).
		SetInSpike(spec.InSpike).
		SetOutSpike(spec.OutSpike).
		SetPolicy(string(spec.Policy)).
		Build()
	f.registry.RegisterModule(entity)
	return nil
}

func (f *Fabric) Module(id string) *Module {
	return f.modules[id]
}

func (f *Fabric) Steps() int {
	return f.steps
}

// Connect wires two previously added modules through a pattern whose
// side 0 faces the first module and side 1 the second. Each module's
// interface must be compatible with its pattern side, and the side's
// reference mappers must equal the module's own mappers per signal kind;
// wiring is only installed for directions the pattern actually connects.
func (f *Fabric) Connect(aID string, bID string, pat *Pattern) error {
	a, ok := f.modules[aID]
	if !ok {
		return selector.NewError(selector.KindStructural, "unknown module %q", aID)
	}
	b, ok := f.modules[bID]
	if !ok {
		return selector.NewError(selector.KindStructural, "unknown module %q", bID)
	}
	if !a.Interface().IsCompatible(pat.Side(0)) {
		return selector.NewError(selector.KindStructural,
			"module %q is not compatible with its pattern side", aID)
	}
	if !b.Interface().IsCompatible(pat.Side(1)) {
		return selector.NewError(selector.KindStructural,
			"module %q is not compatible with its pattern side", bID)
	}
	if err := checkSideMappers(a, pat, 0); err != nil {
		return err
	}
	if err := checkSideMappers(b, pat, 1); err != nil {
		return err
	}
	a.connect(bID, pat, 0, 1)
	b.connect(aID, pat, 1, 0)
	if pat.IsConnected(0, 1) {
		f.registry.LinkModules(aID, bID)
	}
	if pat.IsConnected(1, 0) {
		f.registry.LinkModules(bID, aID)
	}
	return nil
}

// checkSideMappers is the equality connection precondition: per signal
// kind, the pattern side's reference mapper must denote the identical
// identifier-to-position bijection as the facing module's own mapper.
// Spike transport exchanges raw buffer positions, so any deviation in
// port order or count would deliver data to the wrong ports.
func checkSideMappers(m *Module, pat *Pattern, side int) error {
	for _, sig := range []Signal{SignalGpot, SignalSpike} {
		ref, err := pat.SidePortMapper(side, sig)
		if err != nil {
			return err
		}
		var own *portmap.PortMapper
		if sig == SignalGpot {
			own = m.gpot
		} else {
			own = m.spike
		}
		if ref == nil && own == nil {
			continue
		}
		if ref == nil || own == nil || !own.Equals(ref) {
			return selector.NewError(selector.KindStructural,
				"%s ports of module %q do not line up with its pattern side", sig, m.ID())
		}
	}
	return nil
}

// Start finalizes wiring and spawns the module loops. Per module, the
// per-peer port indexes are precomputed and the union of input positions
// across all upstream sources is checked for overlap, since a destination
// port may only ever receive from a single source.
func (f *Fabric) Start() error {
	if f.started {
		return selector.NewError(selector.KindStructural, "fabric already started")
	}
	for _, id := range f.order {
		m := f.modules[id]
		if err := m.initPortIndexes(); err != nil {
			return err
		}
		if err := checkFanIn(id, m.inGpotPos); err != nil {
			return err
		}
		if err := checkFanIn(id, m.inSpikePos); err != nil {
			return err
		}
	}

	f.quit = make(chan struct{})
	f.results = make(chan stepResult, len(f.order))
	for _, id := range f.order {
		f.ticks[id] = make(chan struct{})
		f.registry.SetModuleState(id, STATE_RUNNING)
		go f.modules[id].loop(f.ticks[id], f.results, f.quit)
	}
	f.started = true
	f.log.Info("fabric " + f.registry.Ident() + " started with " + strconv.Itoa(len(f.order)) + " modules")
	return nil
}

func checkFanIn(module string, inputs map[string][]int) error {
	taken := make(map[int]string)
	for src, positions := range inputs {
		for _, pos := range positions {
			if prev, exists := taken[pos]; exists && prev != src {
				return selector.NewError(selector.KindStructural,
					"module %q input port fed by both %q and %q", module, prev, src)
			}
			taken[pos] = src
		}
	}
	return nil
}

// Run drives the simulation until the step limit is reached, the registry
// is no longer alive, or a module's strict step fails. All modules step
// concurrently; payloads staged during a step are routed before the next
// tick, so every transmission becomes visible exactly one step later.
func (f *Fabric) Run() error {
	if !f.started {
		return selector.NewError(selector.KindStructural, "fabric not started")
	}
	for f.registry.IsAlive() {
		if f.stepLimit > 0 && f.steps >= f.stepLimit {
			f.log.Info("fabric reached step limit")
			break
		}
		for _, id := range f.order {
			f.ticks[id] <- struct{}{}
		}
		var failed error
		for range f.order {
			result := <-f.results
			if result.err != nil {
				f.log.Error("module " + result.id + " step failed: " + result.err.Error())
				f.failed[result.id] = true
				f.registry.SetModuleState(result.id, STATE_FAILED)
				if failed == nil {
					failed = result.err
				}
			}
		}
		if failed != nil {
			f.Stop()
			return failed
		}
		f.route()
		f.steps++
		for _, id := range f.order {
			f.registry.SetModuleSteps(id, f.modules[id].Steps())
		}
	}
	f.Stop()
	return nil
}

// route delivers every staged payload to its destination queue. Runs
// strictly between steps, while all module loops are parked on their
// tick channels.
func (f *Fabric) route() {
	for _, id := range f.order {
		for _, staged := range f.modules[id].StagedOutputs() {
			dest, ok := f.modules[staged.Dest]
			if !ok {
				f.log.Warning("dropping payload from " + id + " toward unknown module " + staged.Dest)
				continue
			}
			dest.QueueInput(id, staged.Data)
		}
	}
}

// Stop shuts down the module loops and marks every still running module
// finished. Safe to call more than once.
func (f *Fabric) Stop() {
	if !f.started {
		return
	}
	close(f.quit)
	f.started = false
	for _, id := range f.order {
		if f.failed[id] {
			continue
		}
		f.registry.SetModuleState(id, STATE_FINISHED)
	}
	f.log.Info("fabric stopped after " + strconv.Itoa(f.steps) + " steps")
}

// NewModulePattern builds a pattern whose two sides mirror the exposed
// ports of the two given module specs, direction-flipped so that a
// module's output ports appear as pattern inputs and vice versa. The
// caller wires individual connections on the result before handing it to
// Connect.
func NewModulePattern(comp *selector.Compiler, a ModuleSpec, b ModuleSpec) (*Pattern, error) {
	pat, err := NewPattern(comp, a.interfaceSelector(), b.interfaceSelector())
	if err != nil {
		return nil, err
	}
	for side, spec := range []ModuleSpec{a, b} {
		for _, tag := range []struct {
			sel string
			io  IO
			sig Signal
		}{
			{spec.OutGpot, IOIn, SignalGpot},
			{spec.InGpot, IOOut, SignalGpot},
			{spec.OutSpike, IOIn, SignalSpike},
			{spec.InSpike, IOOut, SignalSpike},
		} {
			if tag.sel == "" {
				continue
			}
			if err := pat.Tag(side, tag.sel, tag.io, tag.sig); err != nil {
				return nil, err
			}
		}
	}
	return pat, nil
}
