package game

import "fmt"

// RuleViolation reports an action the rules do not allow in the state it was
// applied to. ActionIndex is -1 until a caller that knows the action's
// position in the replay fills it in.
type RuleViolation struct {
	ActionIndex int
	Action      ActionKind
	Reason      string
}

func (e *RuleViolation) Error() string {
	if e.ActionIndex < 0 {
		return fmt.Sprintf("rule violation (%s): %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("rule violation at action %d (%s): %s", e.ActionIndex, e.Action, e.Reason)
}
