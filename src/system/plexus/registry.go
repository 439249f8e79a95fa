package plexus

import (
	"strconv"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/neuroplex/src/system/archivist"
)

// Module lifecycle states as stored in the registry graph.
const (
	STATE_REGISTERED = "Registered"
	STATE_RUNNING    = "Running"
	STATE_FINISHED   = "Finished"
	STATE_FAILED     = "Failed"
)

// Registry is the simulation's shared bookkeeping graph. Every module is
// mapped as an entity, wiring between modules as directed relations, and
// the simulation itself as a root entity whose State property the
// observer polls to decide liveness.
type Registry struct {
	Gits  *gits.Gits
	log   *archivist.Archivist
	ident string
}

func NewRegistry(ident string, gitsInstance *gits.Gits, log *archivist.Archivist) *Registry {
	r := &Registry{
		Gits:  gitsInstance,
		log:   log,
		ident: ident,
	}
	properties := make(map[string]string)
	properties["State"] = "Alive"
	r.Gits.MapData(transport.TransportEntity{
		ID:         0,
		Type:       "Simulation",
		Value:      ident,
		Context:    "System",
		Properties: properties,
	})
	return r
}

func (r *Registry) Ident() string {
	return r.ident
}

// RegisterModule maps a module entity, usually built by the configBuilder,
// into the registry graph.
func (r *Registry) RegisterModule(entity transport.TransportEntity) {
	if entity.Properties == nil {
		entity.Properties = make(map[string]string)
	}
	entity.Properties["State"] = STATE_REGISTERED
	entity.Properties["Steps"] = "0"
	r.Gits.MapData(entity)
	r.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "registered module "+entity.Value)
}

// LinkModules records a directed transmission edge from one module entity
// to another.
func (r *Registry) LinkModules(from string, to string) {
	q := query.New().Link("Module").Match("Value", "==", from).To(
		query.New().Find("Module").Match("Value", "==", to),
	)
	r.Gits.Query().Execute(q)
	r.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "linked module "+from+" -> "+to)
}

func (r *Registry) SetModuleState(module string, state string) {
	q := query.New().Update("Module").Match("Value", "==", module).Set("Properties.State", state)
	r.Gits.Query().Execute(q)
}

func (r *Registry) SetModuleSteps(module string, steps int) {
	q := query.New().Update("Module").Match("Value", "==", module).Set("Properties.Steps", strconv.Itoa(steps))
	r.Gits.Query().Execute(q)
}

// ModuleEntities returns all module entities currently in the graph.
func (r *Registry) ModuleEntities() []transport.TransportEntity {
	result := r.Gits.Query().Execute(query.New().Read("Module"))
	if 0 == result.Amount {
		return nil
	}
	return result.Entities
}

// ModulesInState returns the values of all module entities whose State
// property equals the given state.
func (r *Registry) ModulesInState(state string) []string {
	result := r.Gits.Query().Execute(
		query.New().Read("Module").Match("Properties.State", "==", state),
	)
	var names []string
	for _, entity := range result.Entities {
		names = append(names, entity.Value)
	}
	return names
}

// IsAlive reports whether the simulation root entity still carries the
// Alive state.
func (r *Registry) IsAlive() bool {
	result := r.Gits.Query().Execute(
		query.New().Read("Simulation").Match("Value", "==", r.ident),
	)
	if 0 == result.Amount {
		return false
	}
	return "Alive" == result.Entities[0].Properties["State"]
}

// Terminate flips the simulation root entity to Dead, which the run loop
// and the observer both treat as a stop signal.
func (r *Registry) Terminate() {
	q := query.New().Update("Simulation").Match("Value", "==", r.ident).Set("Properties.State", "Dead")
	r.Gits.Query().Execute(q)
	r.log.Info("simulation " + r.ident + " terminated")
}
