package replay

import (
	"math"
	"strconv"

	"awreplay/phpser"
)

// node is a decoded value together with its path, so every schema error can
// name the field it came from.
type node struct {
	v    phpser.Value
	path string
}

func (n node) at(key string) string {
	if n.path == "" {
		return key
	}
	return n.path + "." + key
}

func (n node) field(key string) (node, error) {
	v, ok := n.v.Get(key)
	if !ok {
		return node{}, invalid(n.at(key), "missing")
	}
	return node{v: v, path: n.at(key)}, nil
}

// lookup finds an optional field. Null counts as absent.
func (n node) lookup(key string) (node, bool) {
	v, ok := n.v.Get(key)
	if !ok || v.IsNull() {
		return node{}, false
	}
	return node{v: v, path: n.at(key)}, true
}

func (n node) int(key string) (int, error) {
	f, err := n.field(key)
	if err != nil {
		return 0, err
	}
	i, ok := f.v.AsInt()
	if !ok {
		return 0, invalid(f.path, "want an integer, got %s", f.v.Kind)
	}
	return int(i), nil
}

func (n node) optInt(key string) (int, bool, error) {
	f, ok := n.lookup(key)
	if !ok {
		return 0, false, nil
	}
	i, ok := f.v.AsInt()
	if !ok {
		return 0, false, invalid(f.path, "want an integer, got %s", f.v.Kind)
	}
	return int(i), true, nil
}

// tenths reads a display health value such as 7.5 onto the 0..100 scale.
func (n node) tenths(key string) (int, error) {
	f, err := n.field(key)
	if err != nil {
		return 0, err
	}
	x, ok := f.v.AsFloat()
	if !ok {
		return 0, invalid(f.path, "want a number, got %s", f.v.Kind)
	}
	return int(math.Round(x * 10)), nil
}

func (n node) str(key string) (string, error) {
	f, err := n.field(key)
	if err != nil {
		return "", err
	}
	s, ok := f.v.AsString()
	if !ok {
		return "", invalid(f.path, "want a string, got %s", f.v.Kind)
	}
	return s, nil
}

func (n node) optStr(key string) string {
	f, ok := n.lookup(key)
	if !ok {
		return ""
	}
	s, _ := f.v.AsString()
	return s
}

// flag reads a "Y"/"N" column. Absent flags are false.
func (n node) flag(key string) (bool, error) {
	f, ok := n.lookup(key)
	if !ok {
		return false, nil
	}
	switch s, _ := f.v.AsString(); s {
	case "Y":
		return true, nil
	case "N", "":
		return false, nil
	default:
		return false, invalid(f.path, "want Y or N, got %q", s)
	}
}

// list returns the elements of an array field, dropping its keys.
func (n node) list(key string) ([]node, error) {
	f, err := n.field(key)
	if err != nil {
		return nil, err
	}
	switch f.v.Kind {
	case phpser.IndexedArray, phpser.AssocArray:
	default:
		return nil, invalid(f.path, "want an array, got %s", f.v.Kind)
	}
	elems := f.v.Elements()
	out := make([]node, len(elems))
	for i, v := range elems {
		out[i] = node{v: v, path: f.path + "[" + strconv.Itoa(i) + "]"}
	}
	return out, nil
}
