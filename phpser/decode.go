package phpser

import (
	"math"
	"strconv"

	"awreplay/meta"
)

// frame is an aggregate whose elements are still being read.
type frame struct {
	kind      Kind
	class     string
	remaining int
	fields    []Field
	key       Value
	haveKey   bool
}

type decoder struct {
	data []byte
	pos  int
}

// Decode parses exactly one value spanning all of data.
func Decode(data []byte) (Value, error) {
	v, n, err := DecodePrefix(data)
	if err != nil {
		return Value{}, err
	}
	if n != len(data) {
		return Value{}, &DecodeError{Offset: n, Expected: "end of input", Found: describeByte(data, n)}
	}
	return v, nil
}

// DecodePrefix parses one value from the start of data and reports how many
// bytes it consumed. Trailing bytes are left to the caller. String values
// alias data.
func DecodePrefix(data []byte) (Value, int, error) {
	d := &decoder{data: data}
	v, err := d.value()
	if err != nil {
		return Value{}, d.pos, err
	}
	return v, d.pos, nil
}

// value drives the parse with an explicit stack of open aggregates so that
// nesting depth never grows the call stack.
func (d *decoder) value() (Value, error) {
	var stack []*frame
	for {
		if n := len(stack); n > 0 {
			top := stack[n-1]
			if top.remaining == 0 {
				if err := d.expect('}'); err != nil {
					return Value{}, err
				}
				stack = stack[:n-1]
				closed := top.build()
				if len(stack) == 0 {
					return closed, nil
				}
				stack[len(stack)-1].add(closed)
				continue
			}
			if !top.haveKey {
				key, err := d.key()
				if err != nil {
					return Value{}, err
				}
				top.key = key
				top.haveKey = true
				continue
			}
		}

		switch d.peek() {
		case 'a':
			count, err := d.arrayHeader()
			if err != nil {
				return Value{}, err
			}
			if len(stack) >= meta.MAX_DECODE_DEPTH {
				return Value{}, &DecodeError{Offset: d.pos, Expected: "shallower nesting", Found: "depth limit"}
			}
			stack = append(stack, &frame{kind: AssocArray, remaining: count, fields: make([]Field, 0, capHint(count))})
			continue
		case 'O':
			class, count, err := d.objectHeader()
			if err != nil {
				return Value{}, err
			}
			if len(stack) >= meta.MAX_DECODE_DEPTH {
				return Value{}, &DecodeError{Offset: d.pos, Expected: "shallower nesting", Found: "depth limit"}
			}
			stack = append(stack, &frame{kind: Object, class: class, remaining: count, fields: make([]Field, 0, capHint(count))})
			continue
		}

		v, err := d.scalar()
		if err != nil {
			return Value{}, err
		}
		if len(stack) == 0 {
			return v, nil
		}
		stack[len(stack)-1].add(v)
	}
}

func (f *frame) add(v Value) {
	f.fields = append(f.fields, Field{Key: f.key, Value: v})
	f.key = Value{}
	f.haveKey = false
	f.remaining--
}

func (f *frame) build() Value {
	if f.kind == Object {
		return Value{Kind: Object, Class: f.class, Fields: f.fields}
	}
	for i, field := range f.fields {
		if field.Key.Kind != Int || field.Key.I != int64(i) {
			return Value{Kind: AssocArray, Fields: f.fields}
		}
	}
	items := make([]Value, len(f.fields))
	for i, field := range f.fields {
		items[i] = field.Value
	}
	return Value{Kind: IndexedArray, Items: items}
}

// capHint keeps a hostile element count from forcing a huge allocation.
func capHint(count int) int {
	if count > 1024 {
		return 1024
	}
	return count
}

func (d *decoder) peek() byte {
	if d.pos >= len(d.data) {
		return 0
	}
	return d.data[d.pos]
}

func (d *decoder) fail(expected string) error {
	return &DecodeError{Offset: d.pos, Expected: expected, Found: describeByte(d.data, d.pos)}
}

func (d *decoder) expect(b byte) error {
	if d.peek() != b || d.pos >= len(d.data) {
		return d.fail(strconv.QuoteRune(rune(b)))
	}
	d.pos++
	return nil
}

// tag consumes a type letter and the ':' after it.
func (d *decoder) tag(t byte) error {
	if err := d.expect(t); err != nil {
		return err
	}
	return d.expect(':')
}

// integer reads a signed decimal terminated by term and consumes term.
func (d *decoder) integer(term byte) (int64, error) {
	start := d.pos
	if d.peek() == '-' || d.peek() == '+' {
		d.pos++
	}
	digits := d.pos
	for d.pos < len(d.data) && d.data[d.pos] >= '0' && d.data[d.pos] <= '9' {
		d.pos++
	}
	if d.pos == digits {
		return 0, d.fail("digit")
	}
	n, err := strconv.ParseInt(string(d.data[start:d.pos]), 10, 64)
	if err != nil {
		d.pos = start
		return 0, d.fail("integer in range")
	}
	if err := d.expect(term); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *decoder) length(term byte) (int, error) {
	start := d.pos
	n, err := d.integer(term)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(len(d.data)) {
		d.pos = start
		return 0, d.fail("length within input")
	}
	return int(n), nil
}

// quoted reads `"<n bytes>"` where n was given by the length prefix.
func (d *decoder) quoted(n int) ([]byte, error) {
	if err := d.expect('"'); err != nil {
		return nil, err
	}
	if d.pos+n > len(d.data) {
		return nil, &DecodeError{Offset: d.pos, Expected: strconv.Itoa(n) + " bytes", Found: "end of input"}
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	if err := d.expect('"'); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *decoder) key() (Value, error) {
	switch d.peek() {
	case 'i', 's':
		return d.scalar()
	}
	return Value{}, d.fail("array key")
}

func (d *decoder) arrayHeader() (int, error) {
	if err := d.tag('a'); err != nil {
		return 0, err
	}
	n, err := d.length(':')
	if err != nil {
		return 0, err
	}
	if err := d.expect('{'); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *decoder) objectHeader() (string, int, error) {
	if err := d.tag('O'); err != nil {
		return "", 0, err
	}
	nameLen, err := d.length(':')
	if err != nil {
		return "", 0, err
	}
	class, err := d.quoted(nameLen)
	if err != nil {
		return "", 0, err
	}
	if err := d.expect(':'); err != nil {
		return "", 0, err
	}
	n, err := d.length(':')
	if err != nil {
		return "", 0, err
	}
	if err := d.expect('{'); err != nil {
		return "", 0, err
	}
	return string(class), n, nil
}

func (d *decoder) scalar() (Value, error) {
	switch d.peek() {
	case 'N':
		d.pos++
		if err := d.expect(';'); err != nil {
			return Value{}, err
		}
		return NewNull(), nil
	case 'b':
		if err := d.tag('b'); err != nil {
			return Value{}, err
		}
		switch d.peek() {
		case '0', '1':
			b := d.peek() == '1'
			d.pos++
			if err := d.expect(';'); err != nil {
				return Value{}, err
			}
			return NewBool(b), nil
		}
		return Value{}, d.fail("'0' or '1'")
	case 'i':
		if err := d.tag('i'); err != nil {
			return Value{}, err
		}
		n, err := d.integer(';')
		if err != nil {
			return Value{}, err
		}
		return NewInt(n), nil
	case 'd':
		if err := d.tag('d'); err != nil {
			return Value{}, err
		}
		return d.float()
	case 's':
		if err := d.tag('s'); err != nil {
			return Value{}, err
		}
		n, err := d.length(':')
		if err != nil {
			return Value{}, err
		}
		b, err := d.quoted(n)
		if err != nil {
			return Value{}, err
		}
		if err := d.expect(';'); err != nil {
			return Value{}, err
		}
		return Value{Kind: String, S: b}, nil
	}
	return Value{}, d.fail("type tag")
}

func (d *decoder) float() (Value, error) {
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != ';' {
		d.pos++
	}
	text := string(d.data[start:d.pos])
	var f float64
	switch text {
	case "INF":
		f = math.Inf(1)
	case "-INF":
		f = math.Inf(-1)
	case "NAN":
		f = math.NaN()
	default:
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil || text == "" {
			d.pos = start
			return Value{}, d.fail("float")
		}
		f = parsed
	}
	if err := d.expect(';'); err != nil {
		return Value{}, err
	}
	return NewFloat(f), nil
}
