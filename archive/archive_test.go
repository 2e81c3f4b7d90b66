package archive

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	name   string
	method uint16
	data   []byte
}

func buildZip(t *testing.T, entries ...testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)
		_, err = fw.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipMembers(t *testing.T, members ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range members {
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte(m))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}
	return buf.Bytes()
}

func TestArchiveRead(t *testing.T) {
	data := buildZip(t,
		testEntry{name: "dir/", method: zip.Store},
		testEntry{name: "123", method: zip.Deflate, data: []byte("first entry")},
		testEntry{name: "123_0", method: zip.Store, data: []byte("second")},
	)

	t.Run("listing skips directories and keeps directory order", func(t *testing.T) {
		a, err := Open(data)
		require.NoError(t, err)
		require.Equal(t, []string{"123", "123_0"}, a.Entries())
		require.Equal(t, a.Entries(), a.Entries(), "Listing should be restartable")
	})

	t.Run("reading returns inflated bytes for both methods", func(t *testing.T) {
		a, err := Open(data)
		require.NoError(t, err)
		got, err := a.ReadEntry("123")
		require.NoError(t, err)
		require.Equal(t, "first entry", string(got))
		got, err = a.ReadEntry("123_0")
		require.NoError(t, err)
		require.Equal(t, "second", string(got))
	})

	t.Run("missing entries report not found", func(t *testing.T) {
		a, err := Open(data)
		require.NoError(t, err)
		_, err = a.ReadEntry("nope")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestArchiveCorruption(t *testing.T) {
	t.Run("a truncated container fails to open", func(t *testing.T) {
		data := buildZip(t, testEntry{name: "a", method: zip.Deflate, data: []byte("payload")})
		_, err := Open(data[:len(data)-10])
		var corrupt *CorruptArchiveError
		require.True(t, errors.As(err, &corrupt), "Error should be a CorruptArchiveError, got %v", err)
	})

	t.Run("a truncated compressed entry fails to inflate", func(t *testing.T) {
		var payload bytes.Buffer
		for i := 0; i < 200; i++ {
			fmt.Fprintf(&payload, `{"action":"Move","units_id":%d,"x":%d,"y":%d}`, i*7919%1000, i%13, i%17)
		}
		var deflated bytes.Buffer
		fw, err := flate.NewWriter(&deflated, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = fw.Write(payload.Bytes())
		require.NoError(t, err)
		require.NoError(t, fw.Close())
		cut := deflated.Bytes()[:deflated.Len()/2]

		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		raw, err := w.CreateRaw(&zip.FileHeader{
			Name:               "turn",
			Method:             zip.Deflate,
			CRC32:              crc32.ChecksumIEEE(payload.Bytes()),
			CompressedSize64:   uint64(len(cut)),
			UncompressedSize64: uint64(payload.Len()),
		})
		require.NoError(t, err)
		_, err = raw.Write(cut)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		a, err := Open(buf.Bytes())
		require.NoError(t, err, "The directory is intact, so the container should open")
		_, err = a.ReadEntry("turn")
		var corrupt *CorruptArchiveError
		require.True(t, errors.As(err, &corrupt), "Error should be a CorruptArchiveError, got %v", err)
		require.Equal(t, "turn", corrupt.Entry)
		require.Equal(t, "truncated data", corrupt.Reason)
	})

	t.Run("a flipped data byte fails the checksum", func(t *testing.T) {
		payload := []byte("stored payload bytes")
		data := buildZip(t, testEntry{name: "a", method: zip.Store, data: payload})
		at := bytes.Index(data, payload)
		require.Positive(t, at)
		data[at] ^= 0xff

		a, err := Open(data)
		require.NoError(t, err)
		_, err = a.ReadEntry("a")
		var corrupt *CorruptArchiveError
		require.True(t, errors.As(err, &corrupt), "Error should be a CorruptArchiveError, got %v", err)
		require.Equal(t, "a", corrupt.Entry)
	})

	t.Run("a local header that disagrees with the directory is rejected", func(t *testing.T) {
		data := buildZip(t, testEntry{name: "abc", method: zip.Store, data: []byte("x")})
		data[30] = 'z' // first byte of the local file name

		a, err := Open(data)
		require.NoError(t, err)
		_, err = a.ReadEntry("abc")
		var corrupt *CorruptArchiveError
		require.True(t, errors.As(err, &corrupt), "Error should be a CorruptArchiveError, got %v", err)
	})
}

func TestSplitMembers(t *testing.T) {
	t.Run("concatenated members are inflated separately", func(t *testing.T) {
		members, err := SplitMembers(gzipMembers(t, "one", "two", "three"))
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, members)
	})

	t.Run("plain data is a single member", func(t *testing.T) {
		members, err := SplitMembers([]byte("O:8:..."))
		require.NoError(t, err)
		require.Len(t, members, 1)
	})

	t.Run("a damaged member is an error", func(t *testing.T) {
		data := gzipMembers(t, "one", "two")
		data = data[:len(data)-4]
		_, err := SplitMembers(data)
		require.Error(t, err)
	})

	t.Run("members may not inflate past the limit together", func(t *testing.T) {
		data := gzipMembers(t, "aaaa", "bbbb", "cccc")
		members, err := splitMembers(data, 12)
		require.NoError(t, err, "Exactly the limit is allowed")
		require.Len(t, members, 3)

		_, err = splitMembers(data, 10)
		require.Error(t, err, "Each member is under the limit but the total is not")
		require.Contains(t, err.Error(), "member 2")
	})

	t.Run("members are read from archive entries", func(t *testing.T) {
		data := buildZip(t, testEntry{name: "1", method: zip.Deflate, data: gzipMembers(t, "a", "b")})
		a, err := Open(data)
		require.NoError(t, err)
		members, err := a.ReadMembers("1")
		require.NoError(t, err)
		require.Len(t, members, 2)
	})
}
