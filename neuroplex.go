package neuroplex

import (
	"log"
	"os"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gitsapi"
	"github.com/voodooEntity/neuroplex/src/system/archivist"
	"github.com/voodooEntity/neuroplex/src/system/configBuilder"
	"github.com/voodooEntity/neuroplex/src/system/observer"
	"github.com/voodooEntity/neuroplex/src/system/plexus"
	"github.com/voodooEntity/neuroplex/src/system/selector"
)

type Settings struct {
	Ident      string
	LogLevel   int
	DebugLevel int
	Logger     *log.Logger
	StepLimit  int
	// StrictSteps is the default policy for modules that declare none:
	// true aborts the run on the first phase failure, false logs and
	// proceeds.
	StrictSteps bool
	ApiActive   bool
}

type Neuroplex struct {
	settings Settings
	log      *archivist.Archivist
	comp     *selector.Compiler
	gits     *gits.Gits
	registry *plexus.Registry
	fabric   *plexus.Fabric
}

// New creates a simulation instance. Ident is required in spirit but
// defaults to a generic name; an omitted logger falls back to stdout.
// With ApiActive the gits HTTP api is exposed for inspecting the
// registry graph of a running simulation.
func New(settings Settings) *Neuroplex {
	if "" == settings.Ident {
		settings.Ident = "Neuroplex"
	}
	if nil == settings.Logger {
		settings.Logger = log.New(os.Stdout, "", 0)
	}
	logger := archivist.New(&archivist.Config{
		Logger:     settings.Logger,
		LogLevel:   settings.LogLevel,
		DebugLevel: settings.DebugLevel,
	})

	gitsInstance := gits.NewInstance(settings.Ident)
	gits.SetDefault(settings.Ident)

	registry := plexus.NewRegistry(settings.Ident, gitsInstance, logger)
	comp := selector.NewCompiler()
	fabric := plexus.NewFabric(comp, registry, logger, settings.StepLimit)

	if settings.ApiActive {
		go gitsapi.Start()
	}

	return &Neuroplex{
		settings: settings,
		log:      logger,
		comp:     comp,
		gits:     gitsInstance,
		registry: registry,
		fabric:   fabric,
	}
}

func (n *Neuroplex) Compiler() *selector.Compiler {
	return n.comp
}

func (n *Neuroplex) Registry() *plexus.Registry {
	return n.registry
}

func (n *Neuroplex) Fabric() *plexus.Fabric {
	return n.fabric
}

// AddModule builds a module from its port declaration and step function
// and registers it with the fabric.
func (n *Neuroplex) AddModule(spec plexus.ModuleSpec, step plexus.StepFunction) (*plexus.Module, error) {
	if spec.Policy == "" {
		if n.settings.StrictSteps {
			spec.Policy = plexus.PolicyStrict
		} else {
			spec.Policy = plexus.PolicyResilient
		}
	}
	m, err := plexus.NewModule(n.comp, spec, step, n.log)
	if err != nil {
		return nil, err
	}
	if err := n.fabric.AddModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewPattern creates an empty pattern with the two given side selectors.
func (n *Neuroplex) NewPattern(sel0 string, sel1 string) (*plexus.Pattern, error) {
	return plexus.NewPattern(n.comp, sel0, sel1)
}

// NewModulePattern creates a pattern whose sides mirror two module specs,
// ready for wiring individual connections.
func (n *Neuroplex) NewModulePattern(a plexus.ModuleSpec, b plexus.ModuleSpec) (*plexus.Pattern, error) {
	return plexus.NewModulePattern(n.comp, a, b)
}

// Connect installs a wired pattern between two added modules.
func (n *Neuroplex) Connect(aID string, bID string, pat *plexus.Pattern) error {
	return n.fabric.Connect(aID, bID, pat)
}

// Start finalizes the wiring and begins stepping the modules in the
// background. Use an observer instance to block until the simulation
// winds down.
func (n *Neuroplex) Start() error {
	if err := n.fabric.Start(); err != nil {
		return err
	}
	go func() {
		if err := n.fabric.Run(); err != nil {
			n.log.Error("simulation run failed: " + err.Error())
			n.registry.Terminate()
		}
	}()
	return nil
}

func (n *Neuroplex) Stop() {
	n.fabric.Stop()
}

// GetObserverInstance returns an observer watching the registry. The
// callback executes at the end; with lethal=true the observer also
// terminates the simulation when it winds down.
func (n *Neuroplex) GetObserverInstance(cb func(registry *plexus.Registry), lethal bool) *observer.Observer {
	return observer.New(n.registry, cb, n.log, lethal)
}

// NewFromConfig builds a fully wired instance from a yaml file. Step
// functions cannot live in config, so they are passed by module name;
// a module without an entry steps as a pure relay.
func NewFromConfig(path string, steps map[string]plexus.StepFunction, logger *log.Logger) (*Neuroplex, error) {
	config, err := configBuilder.LoadSimulationConfig(path)
	if err != nil {
		return nil, err
	}
	n := New(Settings{
		Ident:      config.Ident,
		LogLevel:   configBuilder.LogLevelValue(config.LogLevel),
		DebugLevel: config.DebugLevel,
		Logger:     logger,
		StepLimit:  config.StepLimit,
	})

	specs := make(map[string]plexus.ModuleSpec)
	for _, mc := range config.Modules {
		spec := plexus.ModuleSpec{
			ID:       mc.Name,
			InGpot:   mc.InGpot,
			OutGpot:  mc.OutGpot,
			InSpike:  mc.InSpike,
			OutSpike: mc.OutSpike,
			Policy:   plexus.StepPolicy(mc.Policy),
		}
		specs[mc.Name] = spec
		if _, err := n.AddModule(spec, steps[mc.Name]); err != nil {
			return nil, err
		}
	}

	for _, link := range config.Links {
		pat, err := n.NewModulePattern(specs[link.From], specs[link.To])
		if err != nil {
			return nil, err
		}
		for _, wire := range link.Wires {
			if err := pat.Connect(wire.Src, wire.Dest); err != nil {
				return nil, err
			}
		}
		if err := n.Connect(link.From, link.To, pat); err != nil {
			return nil, err
		}
	}
	return n, nil
}
