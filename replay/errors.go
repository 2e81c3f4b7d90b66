package replay

import "fmt"

// ValidationError reports a decoded field that is missing or out of range.
// Field is a dotted path into the archive, for example
// "turns[3].actions[0].Fire.combatInfo.attacker.units_id".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid replay field %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
