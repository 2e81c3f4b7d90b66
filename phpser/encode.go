package phpser

import (
	"bytes"
	"math"
	"strconv"
)

// Encode writes v in the serialized form Decode reads.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encode(&buf, v)
	return buf.Bytes()
}

func encode(buf *bytes.Buffer, v Value) {
	switch v.Kind {
	case Null:
		buf.WriteString("N;")
	case Bool:
		if v.B {
			buf.WriteString("b:1;")
		} else {
			buf.WriteString("b:0;")
		}
	case Int:
		buf.WriteString("i:")
		buf.WriteString(strconv.FormatInt(v.I, 10))
		buf.WriteByte(';')
	case Float:
		buf.WriteString("d:")
		buf.WriteString(formatFloat(v.F))
		buf.WriteByte(';')
	case String:
		writeString(buf, v.S)
		buf.WriteByte(';')
	case IndexedArray:
		buf.WriteString("a:")
		buf.WriteString(strconv.Itoa(len(v.Items)))
		buf.WriteString(":{")
		for i, item := range v.Items {
			encode(buf, NewInt(int64(i)))
			encode(buf, item)
		}
		buf.WriteByte('}')
	case AssocArray:
		buf.WriteString("a:")
		writeFields(buf, v.Fields)
	case Object:
		buf.WriteString("O:")
		buf.WriteString(strconv.Itoa(len(v.Class)))
		buf.WriteString(`:"`)
		buf.WriteString(v.Class)
		buf.WriteString(`":`)
		writeFields(buf, v.Fields)
	}
}

func writeString(buf *bytes.Buffer, s []byte) {
	buf.WriteString("s:")
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteString(`:"`)
	buf.Write(s)
	buf.WriteByte('"')
}

func writeFields(buf *bytes.Buffer, fields []Field) {
	buf.WriteString(strconv.Itoa(len(fields)))
	buf.WriteString(":{")
	for _, f := range fields {
		encode(buf, f.Key)
		encode(buf, f.Value)
	}
	buf.WriteByte('}')
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
