package genome

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// InitialConnectionType selects how a freshly configured genome's
// initial link topology is laid out, mirroring the teacher's
// setupInitialConnections switch.
type InitialConnectionType string

const (
	Unconnected    InitialConnectionType = "unconnected"
	FSNeatNoHidden InitialConnectionType = "fs_neat_nohidden"
	FSNeat         InitialConnectionType = "fs_neat"
	FullNoDirect   InitialConnectionType = "full_nodirect"
	Full           InitialConnectionType = "full"
	PartialNoDirect InitialConnectionType = "partial_nodirect"
	Partial        InitialConnectionType = "partial"
)

var validInitialConnections = map[InitialConnectionType]bool{
	Unconnected:     true,
	FSNeatNoHidden:  true,
	FSNeat:          true,
	FullNoDirect:    true,
	Full:            true,
	PartialNoDirect: true,
	Partial:         true,
}

// Config holds genome-mechanics tunables: everything the concrete
// Genome needs that the evolutionary core (package neat) never reads,
// per the opaque-Genome boundary.
type Config struct {
	NumInputs  int `ini:"num_inputs"`
	NumOutputs int `ini:"num_outputs"`
	NumHidden  int `ini:"num_hidden"`

	InitialConnection      InitialConnectionType `ini:"initial_connection"`
	ConnectionFraction     float64                `ini:"connection_fraction"`
	FeedForwardOnly        bool                   `ini:"feed_forward_only"`

	ActivationDefault string  `ini:"activation_default"`
	ActivationOptions string  `ini:"activation_options"`
	ActivationMutateRate float64 `ini:"activation_mutate_rate"`

	AggregationDefault    string  `ini:"aggregation_default"`
	AggregationOptions    string  `ini:"aggregation_options"`
	AggregationMutateRate float64 `ini:"aggregation_mutate_rate"`

	BiasInitMean      float64 `ini:"bias_init_mean"`
	BiasInitStdev     float64 `ini:"bias_init_stdev"`
	BiasMaxValue      float64 `ini:"bias_max_value"`
	BiasMinValue      float64 `ini:"bias_min_value"`
	BiasMutatePower   float64 `ini:"bias_mutate_power"`
	BiasMutateRate    float64 `ini:"bias_mutate_rate"`
	BiasReplaceRate   float64 `ini:"bias_replace_rate"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`

	EnabledMutateRate float64 `ini:"enabled_mutate_rate"`

	NodeAddProb              float64 `ini:"node_add_prob"`
	NodeDeleteProb           float64 `ini:"node_delete_prob"`
	ConnAddProb              float64 `ini:"conn_add_prob"`
	ConnDeleteProb           float64 `ini:"conn_delete_prob"`
	SingleStructuralMutation bool    `ini:"single_structural_mutation"`
	StructuralMutationSurerRate float64 `ini:"structural_mutation_surer_rate"`

	MaxAddConnectionAttempts int `ini:"max_add_connection_attempts"`

	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
}

// DefaultConfig returns sensible genome-mechanics defaults for a 2-input,
// 1-output feed-forward network, matching the shape of the teacher's
// example configs.
func DefaultConfig() *Config {
	return &Config{
		NumInputs:  2,
		NumOutputs: 1,
		NumHidden:  0,

		InitialConnection:  Full,
		ConnectionFraction: 0.5,
		FeedForwardOnly:    true,

		ActivationDefault:    "sigmoid",
		ActivationOptions:    "sigmoid",
		ActivationMutateRate: 0.0,

		AggregationDefault:    "sum",
		AggregationOptions:    "sum",
		AggregationMutateRate: 0.0,

		BiasInitMean:    0.0,
		BiasInitStdev:   1.0,
		BiasMaxValue:    30.0,
		BiasMinValue:    -30.0,
		BiasMutatePower: 0.5,
		BiasMutateRate:  0.7,
		BiasReplaceRate: 0.1,

		ResponseInitMean:    1.0,
		ResponseInitStdev:   0.0,
		ResponseMaxValue:    30.0,
		ResponseMinValue:    -30.0,
		ResponseMutatePower: 0.0,
		ResponseMutateRate:  0.0,
		ResponseReplaceRate: 0.0,

		WeightInitMean:    0.0,
		WeightInitStdev:   1.0,
		WeightMaxValue:    30.0,
		WeightMinValue:    -30.0,
		WeightMutatePower: 0.5,
		WeightMutateRate:  0.8,
		WeightReplaceRate: 0.1,

		EnabledMutateRate: 0.01,

		NodeAddProb:                 0.2,
		NodeDeleteProb:              0.2,
		ConnAddProb:                 0.5,
		ConnDeleteProb:              0.5,
		SingleStructuralMutation:    false,
		StructuralMutationSurerRate: 0.0,

		MaxAddConnectionAttempts: 20,

		CompatibilityDisjointCoefficient: 1.0,
		CompatibilityWeightCoefficient:   0.5,
	}
}

// LoadConfig loads genome-mechanics configuration from an INI file's
// [Genome] section, following the same LoadSources pattern the core's
// neat.LoadParameters uses.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load genome config file '%s': %w", filePath, err)
	}

	gc := DefaultConfig()
	if err := cfg.Section("Genome").MapTo(gc); err != nil {
		return nil, fmt.Errorf("failed to map [Genome] section: %w", err)
	}

	if err := gc.validate(); err != nil {
		return nil, err
	}
	return gc, nil
}

func (c *Config) validate() error {
	if c.NumInputs <= 0 || c.NumOutputs <= 0 {
		return fmt.Errorf("genome config error: num_inputs and num_outputs must be positive")
	}
	if !validInitialConnections[c.InitialConnection] {
		return fmt.Errorf("genome config error: invalid initial_connection '%s'", c.InitialConnection)
	}
	if !ValidActivationName(c.ActivationDefault) {
		return fmt.Errorf("genome config error: invalid activation_default '%s'", c.ActivationDefault)
	}
	if !ValidAggregationName(c.AggregationDefault) {
		return fmt.Errorf("genome config error: invalid aggregation_default '%s'", c.AggregationDefault)
	}
	return nil
}

// activationOptionsList splits a space-separated activation_options
// string into its members, mirroring the teacher's cleaning helper.
func (c *Config) activationOptionsList() []string {
	return splitOptions(c.ActivationOptions)
}

func (c *Config) aggregationOptionsList() []string {
	return splitOptions(c.AggregationOptions)
}

func splitOptions(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return []string{"sum"}
	}
	return fields
}
