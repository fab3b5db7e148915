package commands

import "github.com/pimwalk/corepipe/pkg/graphmodel"

// noopAbilityDispatcher fires every ability phase without side effects
// and never disengages a walker. Ability bodies are out of scope for
// this pipeline (spec §1: only the CFG shape drives VisitAnalyzer); the
// CLI supplies this default so WalkerRunner has a real collaborator to
// call without requiring one per run.
type noopAbilityDispatcher struct{}

func (noopAbilityDispatcher) Fire(graphmodel.AbilityPhase, int64, int64, string) (bool, error) {
	return false, nil
}
