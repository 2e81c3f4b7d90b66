package phpser

import (
	"math"
	"strconv"
)

// Kind tags the shape held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	IndexedArray
	AssocArray
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case IndexedArray:
		return "indexed array"
	case AssocArray:
		return "associative array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Value is one node of a decoded tree. Which fields are meaningful depends on
// Kind: B for Bool, I for Int, F for Float, S for String (raw bytes, not
// assumed to be UTF-8), Items for IndexedArray, Fields for AssocArray and
// Object, Class for Object.
//
// An array whose keys are exactly the integers 0..n-1 in order decodes as an
// IndexedArray; any other array keeps its keys as an AssocArray. Encode
// writes both back in the same byte form, so the normalization is lossless.
type Value struct {
	Kind   Kind
	B      bool
	I      int64
	F      float64
	S      []byte
	Items  []Value
	Fields []Field
	Class  string
}

// Field is one ordered key/value pair of an AssocArray or Object.
type Field struct {
	Key   Value
	Value Value
}

func NewNull() Value                 { return Value{Kind: Null} }
func NewBool(b bool) Value           { return Value{Kind: Bool, B: b} }
func NewInt(i int64) Value           { return Value{Kind: Int, I: i} }
func NewFloat(f float64) Value       { return Value{Kind: Float, F: f} }
func NewString(s string) Value       { return Value{Kind: String, S: []byte(s)} }
func NewArray(items ...Value) Value  { return Value{Kind: IndexedArray, Items: items} }
func NewAssoc(fields ...Field) Value { return Value{Kind: AssocArray, Fields: fields} }

func NewObject(class string, fields ...Field) Value {
	return Value{Kind: Object, Class: class, Fields: fields}
}

// StringField is shorthand for a Field keyed by a string.
func StringField(key string, v Value) Field {
	return Field{Key: NewString(key), Value: v}
}

func (v Value) IsNull() bool {
	return v.Kind == Null
}

// Len is the element count of an aggregate, or zero.
func (v Value) Len() int {
	switch v.Kind {
	case IndexedArray:
		return len(v.Items)
	case AssocArray, Object:
		return len(v.Fields)
	}
	return 0
}

// Get looks up a field by key on an AssocArray or Object. Integer keys match
// their decimal spelling, so Get("3") finds i:3 as well as s:1:"3".
func (v Value) Get(key string) (Value, bool) {
	switch v.Kind {
	case AssocArray, Object:
		for _, f := range v.Fields {
			if f.Key.keyString() == key {
				return f.Value, true
			}
		}
	case IndexedArray:
		i, err := strconv.Atoi(key)
		if err == nil && i >= 0 && i < len(v.Items) {
			return v.Items[i], true
		}
	}
	return Value{}, false
}

// Elements returns the values of an array in order, dropping keys.
func (v Value) Elements() []Value {
	switch v.Kind {
	case IndexedArray:
		return v.Items
	case AssocArray, Object:
		out := make([]Value, len(v.Fields))
		for i, f := range v.Fields {
			out[i] = f.Value
		}
		return out
	}
	return nil
}

// AsInt accepts integers, integral floats and decimal strings.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case Int:
		return v.I, true
	case Float:
		if v.F == math.Trunc(v.F) && !math.IsInf(v.F, 0) {
			return int64(v.F), true
		}
	case String:
		i, err := strconv.ParseInt(string(v.S), 10, 64)
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// AsFloat accepts floats, integers and numeric strings.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case Float:
		return v.F, true
	case Int:
		return float64(v.I), true
	case String:
		f, err := strconv.ParseFloat(string(v.S), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// AsString returns the bytes of a String, or the decimal form of an Int.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case String:
		return string(v.S), true
	case Int:
		return strconv.FormatInt(v.I, 10), true
	}
	return "", false
}

func (v Value) keyString() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case String:
		return string(v.S)
	}
	return ""
}
