package runner

import (
	"fmt"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
	"github.com/pimwalk/corepipe/pkg/graphmodel"
)

// StepResult reports why Advance stopped.
type StepResult int

const (
	// ResultDone means the walker's Next queue emptied, or it disengaged.
	ResultDone StepResult = iota
	// ResultWouldCross means the next anchor resolves to a different DPU
	// than the current segment; the head was not consumed.
	ResultWouldCross
)

// NodeTypeOf resolves a node id to its type name, for ability dispatch.
type NodeTypeOf func(nodeID int64) (string, error)

// Runner advances one walker at a time (spec §4.5).
type Runner struct {
	mapping       Mapping
	dispatcher    graphmodel.AbilityDispatcher
	crossDPUJumps int
}

// New creates a Runner bound to a frozen DPU mapping and an ability
// dispatcher collaborator.
func New(mapping Mapping, dispatcher graphmodel.AbilityDispatcher) *Runner {
	return &Runner{mapping: mapping, dispatcher: dispatcher}
}

// CrossDPUJumps returns the lifetime count of "would cross" stops,
// satisfying the cross-DPU jump count invariant in spec §8.
func (r *Runner) CrossDPUJumps() int {
	return r.crossDPUJumps
}

// Advance runs w until it would cross a DPU boundary, disengages, or
// its Next queue empties.
func (r *Runner) Advance(w *Walker, nodeTypeOf NodeTypeOf) (StepResult, error) {
	currentDPU := -1

	for len(w.Next) > 0 {
		head := w.Next[0]
		nodeID := head.ResolveNode()

		dpu, ok := r.mapping.DPUOf(nodeID)
		if !ok {
			return ResultDone, corepiperr.New(corepiperr.KindRuntimeInvariant, fmt.Sprintf("node %d has no DPU assignment", nodeID))
		}

		if currentDPU == -1 {
			currentDPU = dpu
		}

		if dpu != currentDPU {
			r.crossDPUJumps++

			return ResultWouldCross, nil
		}

		w.Next = w.Next[1:]
		w.Trace = append(w.Trace, nodeID)

		nodeType, err := nodeTypeOf(nodeID)
		if err != nil {
			return ResultDone, err
		}

		for _, phase := range graphmodel.AbilityPhaseOrder {
			disengaged, fireErr := r.dispatcher.Fire(phase, w.ID, nodeID, nodeType)
			if fireErr != nil {
				return ResultDone, fireErr
			}

			if disengaged {
				w.Disengaged = true
				w.State = StateDone

				return ResultDone, nil
			}
		}
	}

	w.State = StateDone

	return ResultDone, nil
}
