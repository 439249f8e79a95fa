package configBuilder

import (
	"fmt"
	"os"

	"github.com/voodooEntity/gits/src/transport"
	"gopkg.in/yaml.v3"
)

type ModuleBuilder struct {
	Name     string
	InGpot   string
	OutGpot  string
	InSpike  string
	OutSpike string
	Policy   string
}

func NewModule(name string) *ModuleBuilder {
	return &ModuleBuilder{
		Name: name,
	}
}

func (builder *ModuleBuilder) SetInGpot(sel string) *ModuleBuilder {
	builder.InGpot = sel
	return builder
}

func (builder *ModuleBuilder) SetOutGpot(sel string) *ModuleBuilder {
	builder.OutGpot = sel
	return builder
}

func (builder *ModuleBuilder) SetInSpike(sel string) *ModuleBuilder {
	builder.InSpike = sel
	return builder
}

func (builder *ModuleBuilder) SetOutSpike(sel string) *ModuleBuilder {
	builder.OutSpike = sel
	return builder
}

func (builder *ModuleBuilder) SetPolicy(policy string) *ModuleBuilder {
	builder.Policy = policy
	return builder
}

// Build transforms the collected module definition into a transport
// entity tree suitable for mapping into the registry graph. Each port
// group becomes a child entity carrying its selector and tagging.
func (builder *ModuleBuilder) Build() transport.TransportEntity {
	moduleStructure := transport.TransportEntity{
		ID:         -1,
		Type:       "Module",
		Value:      builder.Name,
		Context:    "System",
		Properties: make(map[string]string),
	}
	if "" != builder.Policy {
		moduleStructure.Properties["Policy"] = builder.Policy
	}

	// nest the port groups
	for _, group := range []struct {
		selector string
		io       string
		signal   string
	}{
		{builder.InGpot, "in", "gpot"},
		{builder.OutGpot, "out", "gpot"},
		{builder.InSpike, "in", "spike"},
		{builder.OutSpike, "out", "spike"},
	} {
		if "" == group.selector {
			continue
		}
		properties := make(map[string]string)
		properties["Selector"] = group.selector
		properties["IO"] = group.io
		properties["Signal"] = group.signal
		moduleStructure.ChildRelations = append(moduleStructure.ChildRelations, transport.TransportRelation{
			Target: transport.TransportEntity{
				ID:         -1,
				Type:       "PortGroup",
				Value:      group.io + ":" + group.signal,
				Context:    "System",
				Properties: properties,
			},
		})
	}

	return moduleStructure
}

// - - - - - - - - - - - - - - - - - - - - - - -
// YAML SIMULATION CONFIG
// declarative alternative to wiring modules and
// patterns in code

type SimulationConfig struct {
	Ident      string         `yaml:"ident"`
	LogLevel   string         `yaml:"logLevel"`
	DebugLevel int            `yaml:"debugLevel"`
	StepLimit  int            `yaml:"stepLimit"`
	Modules    []ModuleConfig `yaml:"modules"`
	Links      []LinkConfig   `yaml:"links"`
}

type ModuleConfig struct {
	Name     string `yaml:"name"`
	InGpot   string `yaml:"inGpot"`
	OutGpot  string `yaml:"outGpot"`
	InSpike  string `yaml:"inSpike"`
	OutSpike string `yaml:"outSpike"`
	Policy   string `yaml:"policy"`
}

type LinkConfig struct {
	From  string       `yaml:"from"`
	To    string       `yaml:"to"`
	Wires []WireConfig `yaml:"wires"`
}

type WireConfig struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest"`
}

func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading simulation config: %w", err)
	}
	var config SimulationConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("parsing simulation config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (config *SimulationConfig) validate() error {
	if "" == config.Ident {
		return fmt.Errorf("simulation config without ident")
	}
	known := make(map[string]bool)
	for _, module := range config.Modules {
		if "" == module.Name {
			return fmt.Errorf("module config without name")
		}
		if known[module.Name] {
			return fmt.Errorf("duplicate module name %q", module.Name)
		}
		known[module.Name] = true
	}
	for _, link := range config.Links {
		if !known[link.From] {
			return fmt.Errorf("link references unknown module %q", link.From)
		}
		if !known[link.To] {
			return fmt.Errorf("link references unknown module %q", link.To)
		}
		if 0 == len(link.Wires) {
			return fmt.Errorf("link %s -> %s without wires", link.From, link.To)
		}
	}
	return nil
}

// LogLevelValue maps the textual log level of a config file onto the
// archivist numeric levels. Unknown values fall back to warning.
func LogLevelValue(level string) int {
	switch level {
	case "debug":
		return 1
	case "info":
		return 2
	case "warning":
		return 3
	case "error":
		return 4
	default:
		return 3
	}
}
