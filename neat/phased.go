package neat

import "math"

// updatePhasedSearch evaluates the COMPLEXIFYING/SIMPLIFYING transition
// rules of spec §4.5. It is called once per Epoch, after CurrentMPC has
// been recomputed for the generation. When PhasedSearching is disabled
// the controller stays BLENDED and never transitions.
func (p *Population) updatePhasedSearch() {
	if !p.Parameters.PhasedSearching {
		p.SearchMode = Blended
		return
	}

	switch p.SearchMode {
	case Complexifying, Blended:
		if p.SearchMode == Blended {
			// PhasedSearching was just turned on; start complexifying.
			p.SearchMode = Complexifying
		}
		if p.CurrentMPC > p.BaseMPC+p.Parameters.SimplifyingPhaseMPCTreshold &&
			p.GensSinceBestFitnessLastChanged > p.Parameters.SimplifyingPhaseStagnationTreshold {
			p.SearchMode = Simplifying
			p.GensSinceMPCLastChanged = 0
			p.OldMPC = math.Inf(1)
			p.resetAllSpeciesAges()
		}

	case Simplifying:
		if p.CurrentMPC < p.OldMPC {
			p.OldMPC = p.CurrentMPC
			p.GensSinceMPCLastChanged = 0
		} else {
			p.GensSinceMPCLastChanged++
		}

		if p.GensSinceMPCLastChanged > p.Parameters.ComplexityFloorGenerations {
			p.SearchMode = Complexifying
			p.BaseMPC = p.CurrentMPC
			p.resetAllSpeciesAges()
		}
	}
}

func (p *Population) resetAllSpeciesAges() {
	for _, s := range p.SpeciesList {
		s.ResetAge()
	}
}
