package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
	"github.com/pimwalk/corepipe/pkg/taskmgr"
)

// roundsPlanSchema is the JSON Schema every emitted rounds plan must
// satisfy (spec §6: outputs include a JSON rounds plan).
const roundsPlanSchema = `{
	"type": "object",
	"required": ["rounds"],
	"properties": {
		"rounds": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["index", "task_sets"],
				"properties": {
					"index": {"type": "integer", "minimum": 0},
					"task_sets": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["dpu", "task_ids"],
							"properties": {
								"dpu": {"type": "integer", "minimum": 0},
								"task_ids": {"type": "array", "items": {"type": "integer"}}
							}
						}
					}
				}
			}
		}
	}
}`

// TaskSetPlan is one TaskSet's wire representation in the rounds plan.
type TaskSetPlan struct {
	DPU     int     `json:"dpu"`
	TaskIDs []int64 `json:"task_ids"`
}

// RoundPlan is one round's wire representation.
type RoundPlan struct {
	Index    int           `json:"index"`
	TaskSets []TaskSetPlan `json:"task_sets"`
}

// RoundsPlan is the full JSON rounds plan emitted at the end of a run.
type RoundsPlan struct {
	Rounds []RoundPlan `json:"rounds"`
}

// buildPlan converts TaskMgr's round output into the plan's wire shape.
func buildPlan(rounds [][]*taskmgr.TaskSet) RoundsPlan {
	plan := RoundsPlan{Rounds: make([]RoundPlan, len(rounds))}

	for i, sets := range rounds {
		rp := RoundPlan{Index: i, TaskSets: make([]TaskSetPlan, len(sets))}

		for j, ts := range sets {
			ids := make([]int64, len(ts.Tasks))
			for k, t := range ts.Tasks {
				ids[k] = t.ID
			}

			rp.TaskSets[j] = TaskSetPlan{DPU: ts.DPU, TaskIDs: ids}
		}

		plan.Rounds[i] = rp
	}

	return plan
}

// Validate checks the plan against roundsPlanSchema, catching a
// malformed emission before it reaches disk.
func (p RoundsPlan) Validate() error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal rounds plan for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(roundsPlanSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate rounds plan: %w", err)
	}

	if !result.Valid() {
		return corepiperr.New(corepiperr.KindRuntimeInvariant, fmt.Sprintf("rounds plan failed schema validation: %v", result.Errors()))
	}

	return nil
}
