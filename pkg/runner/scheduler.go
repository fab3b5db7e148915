package runner

import "github.com/pimwalk/corepipe/pkg/corepiperr"

// Scheduler owns the three walker bags — pending, active[dpu], and the
// lifetime roster — and drives rounds of the Runner until every walker
// reaches Done.
type Scheduler struct {
	runner       *Runner
	maxDPUThread int
	pending      []*Walker
	active       map[int][]*Walker
	all          []*Walker
}

// NewScheduler creates a Scheduler bound to a Runner, enforcing
// MAX_DPU_THREAD_NUM active walkers per DPU.
func NewScheduler(runner *Runner, maxDPUThread int) *Scheduler {
	return &Scheduler{
		runner:       runner,
		maxDPUThread: maxDPUThread,
		active:       make(map[int][]*Walker),
	}
}

// Register adds a new walker to the pending bag and the lifetime roster.
func (s *Scheduler) Register(w *Walker) {
	w.State = StatePending
	s.pending = append(s.pending, w)
	s.all = append(s.all, w)
}

// All returns the lifetime roster.
func (s *Scheduler) All() []*Walker {
	return s.all
}

// PromotePending moves each pending walker into its target DPU's active
// bag if that bag has room, else leaves it pending.
func (s *Scheduler) PromotePending() error {
	var stillPending []*Walker

	for _, w := range s.pending {
		if len(w.Next) == 0 {
			return corepiperr.New(corepiperr.KindRuntimeInvariant, "promotion expects a walker with a start node")
		}

		nodeID := w.Next[0].ResolveNode()

		dpu, ok := s.runner.mapping.DPUOf(nodeID)
		if !ok {
			return corepiperr.New(corepiperr.KindRuntimeInvariant, "promotion target has no DPU assignment")
		}

		if len(s.active[dpu]) < s.maxDPUThread {
			w.State = StateActive
			w.DPU = dpu
			s.active[dpu] = append(s.active[dpu], w)
		} else {
			stillPending = append(stillPending, w)
		}
	}

	s.pending = stillPending

	return nil
}

// RunRound fires every active walker once. Walkers reporting "would
// cross" are moved back to pending; walkers reporting done are dropped
// from the active bag.
func (s *Scheduler) RunRound(nodeTypeOf NodeTypeOf) error {
	for dpu, walkers := range s.active {
		var stillActive []*Walker

		for _, w := range walkers {
			result, err := s.runner.Advance(w, nodeTypeOf)
			if err != nil {
				return err
			}

			switch result {
			case ResultWouldCross:
				w.State = StatePending
				s.pending = append(s.pending, w)
			case ResultDone:
				// Walker is done; it leaves both bags permanently.
			}
		}

		s.active[dpu] = stillActive
	}

	return nil
}

// anyActive reports whether any DPU still has active walkers.
func (s *Scheduler) anyActive() bool {
	for _, walkers := range s.active {
		if len(walkers) > 0 {
			return true
		}
	}

	return false
}

// Run drives promote/fire rounds until both bags are empty.
func (s *Scheduler) Run(nodeTypeOf NodeTypeOf) error {
	for len(s.pending) > 0 || s.anyActive() {
		if err := s.PromotePending(); err != nil {
			return err
		}

		if err := s.RunRound(nodeTypeOf); err != nil {
			return err
		}
	}

	return nil
}
