package phpser

import (
	"fmt"
	"strconv"
)

// DecodeError reports the byte offset where the input stopped matching the
// grammar.
type DecodeError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset %d: expected %s, found %s", e.Offset, e.Expected, e.Found)
}

func describeByte(data []byte, pos int) string {
	if pos >= len(data) {
		return "end of input"
	}
	return strconv.QuoteRune(rune(data[pos]))
}
