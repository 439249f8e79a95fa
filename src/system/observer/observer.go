package observer

import (
	"strconv"
	"time"

	"github.com/voodooEntity/neuroplex/src/system/archivist"
	"github.com/voodooEntity/neuroplex/src/system/plexus"
)

type Observer struct {
	InactiveIncrement int
	registry          *plexus.Registry
	callback          func(registry *plexus.Registry)
	Trackers          map[string]int
	lethal            bool
	log               *archivist.Archivist
	tickFunction      *func(registry *plexus.Registry, logger *archivist.Archivist)
	tickRate          int
}

func New(registry *plexus.Registry, cb func(registry *plexus.Registry), logger *archivist.Archivist, lethal bool) *Observer {
	logger.Info("Creating observer")
	trackers := make(map[string]int)
	for _, entity := range registry.ModuleEntities() {
		trackers[entity.Value] = -1
	}

	return &Observer{
		InactiveIncrement: 0,
		registry:          registry,
		Trackers:          trackers,
		callback:          cb,
		lethal:            lethal,
		log:               logger,
		tickRate:          25,
		tickFunction:      nil,
	}
}

func (o *Observer) RegisterTickFunction(tickFn *func(registry *plexus.Registry, logger *archivist.Archivist)) {
	o.tickFunction = tickFn
}

func (o *Observer) SetTickRate(tickRate int) {
	o.tickRate = tickRate
}

func (o *Observer) tick() {
	(*o.tickFunction)(o.registry, o.log)
}

func (o *Observer) Loop() {
	i := 0
	for !o.ReachedEndgame() {
		i++
		o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer looping:")
		if nil != o.tickFunction && i == o.tickRate {
			o.tick()
			i = 0
		}

		time.Sleep(100 * time.Millisecond)
	}
	o.Endgame()
	o.log.Info("Simulation has been shutdown, observer exiting")
}

// ReachedEndgame polls the registry graph for termination conditions: an
// externally killed simulation, all modules finished, or module step
// counters that have not moved across several consecutive polls.
func (o *Observer) ReachedEndgame() bool {
	// If the simulation has been terminated externally (or by a timeout
	// tick) we should stop the observer loop immediately to avoid
	// hanging forever.
	if !o.registry.IsAlive() {
		return true
	}
	entities := o.registry.ModuleEntities()
	finished := 0
	progressed := false
	for _, entity := range entities {
		if entity.Properties["State"] == plexus.STATE_FINISHED {
			finished++
		}
		steps := entity.Properties["Steps"]
		current := parseSteps(steps)
		if last, tracked := o.Trackers[entity.Value]; !tracked || current != last {
			o.Trackers[entity.Value] = current
			progressed = true
		}
	}
	o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer: finished modules", finished)
	if finished == len(entities) && len(entities) > 0 {
		return true
	}
	if progressed {
		o.InactiveIncrement = 0
		return false
	}
	if o.InactiveIncrement > 5 {
		return true
	}
	o.InactiveIncrement++
	return false
}

func (o *Observer) Endgame() {
	o.log.Info("executing endgame")
	// if we are lethal we gonne stop the simulation
	if o.lethal {
		o.registry.Terminate()
		for !o.AllModulesStopped() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	// execute callback with registry instance provided
	o.callback(o.registry)
}

func (o *Observer) AllModulesStopped() bool {
	for _, entity := range o.registry.ModuleEntities() {
		state := entity.Properties["State"]
		if state == plexus.STATE_RUNNING {
			return false
		}
	}
	return true
}

func parseSteps(value string) int {
	steps, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return steps
}
