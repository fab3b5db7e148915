// Package taskmgr implements TaskMgr (C10): converting a dependency DAG
// of tasks into rounds of per-DPU TaskSets, honoring per-DPU thread
// limits and predecessor constraints (spec §4.6).
package taskmgr

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
)

// Task is one unit of scheduled work on a DPU, with an owned memory
// snapshot and a trace of visited node ids. StartMemCtx is opaque here —
// DPUMemoryLayout (C11) is the only package that knows its concrete
// type — so TaskMgr never needs to import that package.
type Task struct {
	ID          int64
	RunID       string
	DPU         int
	WalkerID    int64
	StartMemCtx any
	Trace       []int64
}

// TaskSet is a bag of tasks belonging to one DPU for one round.
type TaskSet struct {
	ID    int64
	DPU   int
	Tasks []*Task
}

// Manager maintains the dependency bookkeeping and produces rounds.
type Manager struct {
	maxDPUThread   int
	taskCounter    int64
	tasksetCounter int64
	tasks          map[int64]*Task
	deps           map[int64]int64 // task id -> dependency task id.
	scheduled      map[int64]bool
	ready          map[int64]bool
	rounds         [][]*TaskSet
}

// NewManager creates an empty Manager enforcing maxDPUThread tasks per
// TaskSet.
func NewManager(maxDPUThread int) *Manager {
	return &Manager{
		maxDPUThread: maxDPUThread,
		tasks:        make(map[int64]*Task),
		deps:         make(map[int64]int64),
		scheduled:    make(map[int64]bool),
		ready:        make(map[int64]bool),
	}
}

// NextTaskID allocates the next monotonic task id and a fresh random UUID
// tag, a new one on every call; the orchestrator stores it as Task.RunID.
func (m *Manager) NextTaskID() (int64, string) {
	m.taskCounter++

	return m.taskCounter, uuid.NewString()
}

// AddTask registers task. If depID is zero, the task has no
// predecessor and is immediately ready; otherwise it waits for depID to
// be scheduled.
func (m *Manager) AddTask(task *Task, depID int64) {
	m.tasks[task.ID] = task

	if depID == 0 {
		m.ready[task.ID] = true
	} else {
		m.deps[task.ID] = depID
	}
}

// CreateRound groups every ready task by DPU, taking at most
// maxDPUThread tasks into one fresh TaskSet per DPU (spec §4.6) and
// moving those tasks from ready to scheduled. Any tasks left over on a
// DPU past the cap stay in ready for a later round.
func (m *Manager) CreateRound() []*TaskSet {
	byDPU := make(map[int][]*Task)

	readyIDs := make([]int64, 0, len(m.ready))
	for id := range m.ready {
		readyIDs = append(readyIDs, id)
	}

	sort.Slice(readyIDs, func(i, j int) bool { return readyIDs[i] < readyIDs[j] })

	for _, id := range readyIDs {
		t := m.tasks[id]
		byDPU[t.DPU] = append(byDPU[t.DPU], t)
	}

	dpus := make([]int, 0, len(byDPU))
	for dpu := range byDPU {
		dpus = append(dpus, dpu)
	}

	sort.Ints(dpus)

	var sets []*TaskSet

	for _, dpu := range dpus {
		tasks := byDPU[dpu]

		n := m.maxDPUThread
		if n > len(tasks) {
			n = len(tasks)
		}

		batch := tasks[:n]

		m.tasksetCounter++
		sets = append(sets, &TaskSet{ID: m.tasksetCounter, DPU: dpu, Tasks: batch})

		for _, t := range batch {
			delete(m.ready, t.ID)
			m.scheduled[t.ID] = true
		}
	}

	return sets
}

// CompleteRound moves every unscheduled, not-ready task whose
// dependency is now scheduled into ready.
func (m *Manager) CompleteRound() {
	for id, depID := range m.deps {
		if m.scheduled[id] || m.ready[id] {
			continue
		}

		if m.scheduled[depID] {
			m.ready[id] = true
		}
	}
}

// ScheduleAll iterates create/complete until ready is empty, returning
// the round plan. A SchedulingError-kind error is returned if any task
// never became schedulable — a dependency cycle or deadlock.
func (m *Manager) ScheduleAll() ([][]*TaskSet, error) {
	for len(m.ready) > 0 {
		sets := m.CreateRound()
		m.rounds = append(m.rounds, sets)
		m.CompleteRound()
	}

	if len(m.scheduled) != len(m.tasks) {
		return nil, corepiperr.New(corepiperr.KindScheduling, "dependency cycle or deadlock: some tasks never became ready")
	}

	return m.rounds, nil
}

// Rounds returns the round plan computed so far.
func (m *Manager) Rounds() [][]*TaskSet {
	return m.rounds
}

// RoundOf returns the zero-based round index a scheduled task landed
// in, or -1 if it was never scheduled.
func (m *Manager) RoundOf(taskID int64) int {
	for roundIdx, sets := range m.rounds {
		for _, ts := range sets {
			for _, t := range ts.Tasks {
				if t.ID == taskID {
					return roundIdx
				}
			}
		}
	}

	return -1
}
