package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"awreplay/meta"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

const (
	localHeaderSignature = 0x04034b50
	localHeaderLen       = 30
	flagDataDescriptor   = 0x8
	zip64Sentinel        = 0xffffffff
)

// Archive is a read-only view over an in-memory zip container.
type Archive struct {
	data    []byte
	reader  *zip.Reader
	entries map[string]*zip.File
}

// Open parses the central directory of data.
func Open(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &CorruptArchiveError{Reason: "unreadable central directory", Err: err}
	}
	a := &Archive{
		data:    data,
		reader:  r,
		entries: make(map[string]*zip.File, len(r.File)),
	}
	for _, f := range r.File {
		if isDir(f) {
			continue
		}
		if _, dup := a.entries[f.Name]; !dup {
			a.entries[f.Name] = f
		}
	}
	log.Debug().Msgf("opened archive with %d entries", len(a.entries))
	return a, nil
}

func isDir(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// Entries lists entry names in directory order. Each call returns a fresh
// slice, so listing can be repeated.
func (a *Archive) Entries() []string {
	names := make([]string, 0, len(a.entries))
	for _, f := range a.reader.File {
		if isDir(f) {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// ReadEntry returns the inflated contents of the named entry after checking
// its local header against the central directory and its checksum.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := a.checkLocalHeader(f); err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, classify(name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, meta.MAX_ENTRY_SIZE+1))
	if err != nil {
		return nil, classify(name, err)
	}
	if len(data) > meta.MAX_ENTRY_SIZE {
		return nil, &CorruptArchiveError{Entry: name, Reason: "entry exceeds size limit"}
	}
	if uint64(len(data)) != f.UncompressedSize64 {
		return nil, &CorruptArchiveError{Entry: name, Reason: fmt.Sprintf("inflated %d bytes, directory declares %d", len(data), f.UncompressedSize64)}
	}
	return data, nil
}

// ReadMembers reads an entry and splits it into its gzip members.
func (a *Archive) ReadMembers(name string) ([][]byte, error) {
	data, err := a.ReadEntry(name)
	if err != nil {
		return nil, err
	}
	members, err := SplitMembers(data)
	if err != nil {
		return nil, &CorruptArchiveError{Entry: name, Reason: "bad compressed member", Err: err}
	}
	return members, nil
}

func classify(name string, err error) error {
	switch {
	case errors.Is(err, zip.ErrChecksum):
		return &CorruptArchiveError{Entry: name, Reason: "checksum mismatch", Err: err}
	case errors.Is(err, zip.ErrAlgorithm):
		return &CorruptArchiveError{Entry: name, Reason: "unsupported compression method", Err: err}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &CorruptArchiveError{Entry: name, Reason: "truncated data", Err: err}
	}
	return &CorruptArchiveError{Entry: name, Reason: "unreadable data", Err: err}
}

// checkLocalHeader locates the local file header that precedes the entry data
// and compares it with the central directory record.
func (a *Archive) checkLocalHeader(f *zip.File) error {
	dataOffset, err := f.DataOffset()
	if err != nil {
		return &CorruptArchiveError{Entry: f.Name, Reason: "missing local header", Err: err}
	}
	if dataOffset > int64(len(a.data)) {
		return &CorruptArchiveError{Entry: f.Name, Reason: "truncated data"}
	}
	nameLen := int64(len(f.Name))
	var header []byte
	// The local extra field may differ in length from the central one.
	for extra := int64(0); extra <= 0xffff; extra++ {
		start := dataOffset - localHeaderLen - nameLen - extra
		if start < 0 {
			break
		}
		h := a.data[start:dataOffset]
		if binary.LittleEndian.Uint32(h[0:4]) == localHeaderSignature &&
			int64(binary.LittleEndian.Uint16(h[26:28])) == nameLen &&
			int64(binary.LittleEndian.Uint16(h[28:30])) == extra {
			header = h
			break
		}
	}
	if header == nil {
		return &CorruptArchiveError{Entry: f.Name, Reason: "missing local header"}
	}

	if string(header[localHeaderLen:localHeaderLen+nameLen]) != f.Name {
		return &CorruptArchiveError{Entry: f.Name, Reason: "local header name differs from directory"}
	}
	if binary.LittleEndian.Uint16(header[8:10]) != f.Method {
		return &CorruptArchiveError{Entry: f.Name, Reason: "local header method differs from directory"}
	}
	if f.Method != zip.Store && f.Method != zip.Deflate {
		return &CorruptArchiveError{Entry: f.Name, Reason: fmt.Sprintf("unsupported compression method %d", f.Method)}
	}
	flags := binary.LittleEndian.Uint16(header[6:8])
	if flags&flagDataDescriptor != 0 {
		return nil
	}
	crc := binary.LittleEndian.Uint32(header[14:18])
	csize := binary.LittleEndian.Uint32(header[18:22])
	usize := binary.LittleEndian.Uint32(header[22:26])
	if crc != f.CRC32 {
		return &CorruptArchiveError{Entry: f.Name, Reason: "local header checksum differs from directory"}
	}
	if csize != zip64Sentinel && uint64(csize) != f.CompressedSize64 {
		return &CorruptArchiveError{Entry: f.Name, Reason: "local header compressed size differs from directory"}
	}
	if usize != zip64Sentinel && uint64(usize) != f.UncompressedSize64 {
		return &CorruptArchiveError{Entry: f.Name, Reason: "local header size differs from directory"}
	}
	if dataOffset+int64(f.CompressedSize64) > int64(len(a.data)) {
		return &CorruptArchiveError{Entry: f.Name, Reason: "truncated data"}
	}
	return nil
}
