package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"awreplay/meta"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// SplitMembers inflates each concatenated gzip member of data separately.
// Data that does not start with a gzip header is returned as one member.
// The members together may not inflate past meta.MAX_ENTRY_SIZE.
func SplitMembers(data []byte) ([][]byte, error) {
	return splitMembers(data, meta.MAX_ENTRY_SIZE)
}

func splitMembers(data []byte, limit int) ([][]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return [][]byte{data}, nil
	}
	br := bufio.NewReader(bytes.NewReader(data))
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read member 0 header: %w", err)
	}
	defer zr.Close()

	var members [][]byte
	remaining := limit
	for i := 0; ; i++ {
		zr.Multistream(false)
		member, err := io.ReadAll(io.LimitReader(zr, int64(remaining)+1))
		if err != nil {
			return nil, fmt.Errorf("failed to inflate member %d: %w", i, err)
		}
		if len(member) > remaining {
			return nil, fmt.Errorf("members exceed the %d byte limit at member %d", limit, i)
		}
		remaining -= len(member)
		members = append(members, member)

		err = zr.Reset(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read member %d header: %w", i+1, err)
		}
	}
	return members, nil
}
