package model

import "fmt"

// #region factor

// Factor identifies one hidden-state dimension of the world model.
type Factor int

const (
	FactorViability Factor = iota
	FactorWorldState
	FactorCoupling
	FactorGoalProgress

	numFactors
)

// NumFactors is the fixed number of state factors in the discrete profile.
const NumFactors = int(numFactors)

// String returns the factor name used in errors and logs.
func (f Factor) String() string {
	switch f {
	case FactorViability:
		return "viability"
	case FactorWorldState:
		return "worldState"
	case FactorCoupling:
		return "coupling"
	case FactorGoalProgress:
		return "goalProgress"
	default:
		return fmt.Sprintf("factor(%d)", int(f))
	}
}

// Outcomes returns the ordered outcome labels for the factor.
func (f Factor) Outcomes() []string {
	switch f {
	case FactorViability:
		return []string{"critical", "low", "medium", "high", "optimal"}
	case FactorWorldState:
		return []string{"unknown", "stable", "changing", "hostile"}
	case FactorCoupling:
		return []string{"none", "weak", "medium", "strong", "synced"}
	case FactorGoalProgress:
		return []string{"blocked", "slow", "onTrack", "achieved"}
	default:
		return nil
	}
}

// Cardinality returns the number of outcomes for the factor.
func (f Factor) Cardinality() int {
	return len(f.Outcomes())
}

// Factors returns all state factors in canonical order.
func Factors() []Factor {
	return []Factor{FactorViability, FactorWorldState, FactorCoupling, FactorGoalProgress}
}

// #endregion factor

// #region action

// Action is one element of the closed action vocabulary. The vocabulary is
// fixed at compile time; policies are vectors parallel to Actions().
type Action string

const (
	ActionRecharge     Action = "recharge"
	ActionRestIdle     Action = "rest.idle"
	ActionExecuteTask  Action = "execute.task"
	ActionSenseMCP     Action = "sense.mcp"
	ActionExploreWorld Action = "explore.world"
	ActionSyncCoupling Action = "sync.coupling"
	ActionPlanGoal     Action = "plan.goal"
)

var actionOrder = []Action{
	ActionRecharge,
	ActionRestIdle,
	ActionExecuteTask,
	ActionSenseMCP,
	ActionExploreWorld,
	ActionSyncCoupling,
	ActionPlanGoal,
}

// NumActions is the size of the action vocabulary.
var NumActions = len(actionOrder)

// Actions returns the vocabulary in canonical order. The returned slice is
// a copy; callers may not grow the vocabulary at runtime.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// ActionIndex returns the policy-vector index of a, or false if a is not
// in the vocabulary.
func ActionIndex(a Action) (int, bool) {
	for i, b := range actionOrder {
		if a == b {
			return i, true
		}
	}
	return 0, false
}

// ActionAt returns the action at policy-vector index i.
func ActionAt(i int) (Action, bool) {
	if i < 0 || i >= len(actionOrder) {
		return "", false
	}
	return actionOrder[i], true
}

// #endregion action
