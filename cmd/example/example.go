package main

import (
	"fmt"
	"log"
	"os"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/neuroplex"
	"github.com/voodooEntity/neuroplex/src/system/archivist"
	"github.com/voodooEntity/neuroplex/src/system/plexus"
	"github.com/voodooEntity/neuroplex/src/system/portmap"
)

func main() {
	//logger := log.New(io.Discard, "", 0)
	logger := log.New(os.Stdout, "", 0)

	// create base instance. ident is required.
	// StepLimit bounds the simulation length
	np := neuroplex.New(neuroplex.Settings{
		Ident:     "GreatName",
		LogLevel:  archivist.LEVEL_INFO,
		Logger:    logger,
		StepLimit: 20,
	})

	// declare a sensory module emitting a graded
	// potential ramp and a spike every third step
	sensory := plexus.ModuleSpec{
		ID:       "sensory",
		OutGpot:  "/sens/gpot[0:3]",
		OutSpike: "/sens/spike[0:2]",
	}
	_, err := np.AddModule(sensory, func(gpot, spike *portmap.PortMapper, step int) error {
		if err := gpot.Set("/sens/gpot[0:3]", float64(step), float64(step)*2, float64(step)*3); err != nil {
			return err
		}
		if step%3 == 0 {
			return spike.Set("/sens/spike[0:2]", 1)
		}
		return spike.Set("/sens/spike[0:2]", 0)
	})
	if err != nil {
		logger.Fatalln(err)
	}

	// declare an integrator module summing whatever
	// arrives on its input ports
	integrator := plexus.ModuleSpec{
		ID:      "integrator",
		InGpot:  "/int/gpot[0:3]",
		InSpike: "/int/spike[0:2]",
	}
	sum := 0.0
	spikes := 0
	_, err = np.AddModule(integrator, func(gpot, spike *portmap.PortMapper, step int) error {
		values, err := gpot.Get("/int/gpot[0:3]")
		if err != nil {
			return err
		}
		for _, v := range values {
			sum += v
		}
		spikes += len(spike.NonzeroPositions())
		return nil
	})
	if err != nil {
		logger.Fatalln(err)
	}

	// wire the two modules port by port through a pattern
	pat, err := np.NewModulePattern(sensory, integrator)
	if err != nil {
		logger.Fatalln(err)
	}
	for _, wire := range [][2]string{
		{"/sens/gpot[0:3]", "/int/gpot[0:3]"},
		{"/sens/spike[0:2]", "/int/spike[0:2]"},
	} {
		if err := pat.Connect(wire[0], wire[1]); err != nil {
			logger.Fatalln(err)
		}
	}
	if err := np.Connect("sensory", "integrator", pat); err != nil {
		logger.Fatalln(err)
	}

	// start stepping the modules
	if err := np.Start(); err != nil {
		logger.Fatalln(err)
	}

	// get an observer instance. provide a callback
	// to be executed at the end and lethal=true
	// which stops the simulation at the end
	obsi := np.GetObserverInstance(func(registry *plexus.Registry) {
		logger.Println("integrated gpot sum:", sum, "spike arrivals:", spikes)
	}, true)

	// register a tick function
	fn := func(registry *plexus.Registry, logger *archivist.Archivist) {
		logger.Info("yes i tick")
	}
	obsi.RegisterTickFunction(&fn)
	obsi.SetTickRate(20)

	// blocking while modules are stepping
	obsi.Loop()

	// the registry graph keeps the module states
	// and step counters for lookup
	qry := gits.NewQuery().Read("Module")
	res := gits.GetDefault().Query().Execute(qry)
	fmt.Println(fmt.Sprintf("%+v", res))
}
