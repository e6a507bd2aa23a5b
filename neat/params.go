package neat

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Parameters holds the process-wide tunables recognized by the
// evolutionary core (§6 of the design). A default value is provided by
// DefaultParameters; Reset restores those defaults on an existing struct.
type Parameters struct {
	PopulationSize int `ini:"pop_size"`

	CompatTreshold          float64 `ini:"compat_treshold"`
	MinCompatTreshold       float64 `ini:"min_compat_treshold"`
	CompatTresholdModifier  float64 `ini:"compat_treshold_modifier"`
	DynamicCompatibility    bool    `ini:"dynamic_compatibility"`
	MinSpecies              int     `ini:"min_species"`
	MaxSpecies              int     `ini:"max_species"`

	CompatTreshChangeIntervalGenerations int `ini:"compat_tresh_change_interval_generations"`
	CompatTreshChangeIntervalEvaluations int `ini:"compat_tresh_change_interval_evaluations"`

	YoungAgeTreshold     int     `ini:"young_age_treshold"`
	YoungAgeFitnessBoost float64 `ini:"young_age_fitness_boost"`
	OldAgeTreshold       int     `ini:"old_age_treshold"`
	OldAgeFitnessPenalty float64 `ini:"old_age_fitness_penalty"`

	SpeciesDropoffAge int     `ini:"species_dropoff_age"`
	StagnationPenalty float64 `ini:"stagnation_penalty"`

	SurvivalRate           float64 `ini:"survival_rate"`
	Elitism                int     `ini:"elitism"`
	CrossoverRate          float64 `ini:"crossover_rate"`
	RouletteWheelSelection bool    `ini:"roulette_wheel_selection"`

	StagnationDelta float64 `ini:"stagnation_delta"`
	DeltaCoding     bool    `ini:"delta_coding"`

	PhasedSearching                    bool    `ini:"phased_searching"`
	SimplifyingPhaseMPCTreshold        float64 `ini:"simplifying_phase_mpc_treshold"`
	SimplifyingPhaseStagnationTreshold int     `ini:"simplifying_phase_stagnation_treshold"`
	ComplexityFloorGenerations         int     `ini:"complexity_floor_generations"`

	InnovationsForever bool `ini:"innovations_forever"`

	NoveltySearchK                              int     `ini:"novelty_search_k"`
	NoveltySearchPmin                           float64 `ini:"novelty_search_p_min"`
	NoveltySearchPminMin                        float64 `ini:"novelty_search_pmin_min"`
	NoveltySearchRecomputeSparsenessEach        int     `ini:"novelty_search_recompute_sparseness_each"`
	NoveltySearchNoArchivingStagnationTreshold  int     `ini:"novelty_search_no_archiving_stagnation_treshold"`
	NoveltySearchQuickArchivingMinEvaluations   int     `ini:"novelty_search_quick_archiving_min_evaluations"`
	NoveltySearchPminLoweringMultiplier         float64 `ini:"novelty_search_pmin_lowering_multiplier"`
	NoveltySearchPminRaisingMultiplier          float64 `ini:"novelty_search_pmin_raising_multiplier"`
	NoveltySearchDynamicPmin                    bool    `ini:"novelty_search_dynamic_pmin"`
}

// DefaultParameters returns the defaults used throughout this module's
// tests and examples, in the spirit of MultiNEAT's GlobalParameters
// defaults.
func DefaultParameters() *Parameters {
	p := &Parameters{}
	p.Reset()
	return p
}

// Reset restores documented defaults on an existing Parameters value,
// matching spec.md §9's design note that global mutable configuration
// should support Reset() semantics.
func (p *Parameters) Reset() {
	*p = Parameters{
		PopulationSize: 150,

		CompatTreshold:         3.0,
		MinCompatTreshold:      0.2,
		CompatTresholdModifier: 0.3,
		DynamicCompatibility:   true,
		MinSpecies:             5,
		MaxSpecies:             10,

		CompatTreshChangeIntervalGenerations: 1,
		CompatTreshChangeIntervalEvaluations: 10,

		YoungAgeTreshold:     10,
		YoungAgeFitnessBoost: 1.1,
		OldAgeTreshold:       50,
		OldAgeFitnessPenalty: 0.5,

		SpeciesDropoffAge: 15,
		StagnationPenalty: 0.01,

		SurvivalRate:           0.25,
		Elitism:                1,
		CrossoverRate:          0.7,
		RouletteWheelSelection: false,

		StagnationDelta: 0.0,
		DeltaCoding:     true,

		PhasedSearching:                    false,
		SimplifyingPhaseMPCTreshold:        20,
		SimplifyingPhaseStagnationTreshold: 30,
		ComplexityFloorGenerations:         40,

		InnovationsForever: true,

		NoveltySearchK:                             15,
		NoveltySearchPmin:                          0.2,
		NoveltySearchPminMin:                       0.01,
		NoveltySearchRecomputeSparsenessEach:       25,
		NoveltySearchNoArchivingStagnationTreshold: 150,
		NoveltySearchQuickArchivingMinEvaluations:  8,
		NoveltySearchPminLoweringMultiplier:        0.9,
		NoveltySearchPminRaisingMultiplier:         1.1,
		NoveltySearchDynamicPmin:                   true,
	}
}

// LoadParameters loads a Parameters value from an INI file's [NEAT]
// section, following the teacher's LoadConfig pattern: defaults are seeded
// first, then overridden by whatever the file specifies.
func LoadParameters(filePath string) (*Parameters, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters file '%s': %w", filePath, err)
	}

	params := DefaultParameters()
	if err := cfg.Section("NEAT").MapTo(params); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}

	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parameters) validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("parameters error: pop_size must be positive")
	}
	if p.CompatTreshold < p.MinCompatTreshold {
		return fmt.Errorf("parameters error: compat_treshold cannot be below min_compat_treshold")
	}
	if p.MinSpecies <= 0 || p.MaxSpecies < p.MinSpecies {
		return fmt.Errorf("parameters error: min_species/max_species must satisfy 0 < min_species <= max_species")
	}
	if p.SurvivalRate < 0 || p.SurvivalRate > 1 {
		return fmt.Errorf("parameters error: survival_rate must be between 0 and 1")
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("parameters error: crossover_rate must be between 0 and 1")
	}
	if p.Elitism < 0 {
		return fmt.Errorf("parameters error: elitism cannot be negative")
	}
	if p.NoveltySearchK <= 0 {
		return fmt.Errorf("parameters error: novelty_search_k must be positive")
	}
	return nil
}
