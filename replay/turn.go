package replay

import (
	"bytes"
	"fmt"
	"strconv"

	"awreplay/game"
	"awreplay/phpser"
)

// rawTurn is one turn member before its actions are typed.
type rawTurn struct {
	player  game.PlayerID
	day     int
	actions []string
}

// isTurn tells turn members ("p:<player>;d:<day>;a:...") from game snapshots.
func isTurn(member []byte) bool {
	return bytes.HasPrefix(member, []byte("p:"))
}

// parseTurn splits the header off a turn member and returns the JSON action
// strings of its serialized array.
func parseTurn(member []byte, path string) (rawTurn, error) {
	var t rawTurn
	player, rest, err := headerField(member, "p:", path+".player")
	if err != nil {
		return t, err
	}
	day, rest, err := headerField(rest, "d:", path+".day")
	if err != nil {
		return t, err
	}
	t.player, t.day = game.PlayerID(player), day

	v, err := phpser.Decode(rest)
	if err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if v.Kind != phpser.IndexedArray && v.Kind != phpser.AssocArray {
		return t, invalid(path, "want an array after the header, got %s", v.Kind)
	}
	// The array pairs bookkeeping integers with one nested array holding the
	// actions; a turn without actions has no nested array.
	for _, elem := range v.Elements() {
		if elem.Kind != phpser.IndexedArray && elem.Kind != phpser.AssocArray {
			continue
		}
		for i, a := range elem.Elements() {
			s, ok := a.AsString()
			if !ok || a.Kind != phpser.String {
				return t, invalid(fieldIndex(path+".actions", i), "want a JSON string, got %s", a.Kind)
			}
			t.actions = append(t.actions, s)
		}
		break
	}
	return t, nil
}

// headerField reads "<tag><number>;" from the start of b.
func headerField(b []byte, tag, field string) (int, []byte, error) {
	if !bytes.HasPrefix(b, []byte(tag)) {
		return 0, nil, invalid(field, "missing %q", tag)
	}
	b = b[len(tag):]
	end := bytes.IndexByte(b, ';')
	if end < 0 {
		return 0, nil, invalid(field, "unterminated")
	}
	n, err := strconv.Atoi(string(b[:end]))
	if err != nil || n < 0 {
		return 0, nil, invalid(field, "%q is not a number", b[:end])
	}
	return n, b[end+1:], nil
}
