package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"awreplay/game"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Entry is one journaled update. Index is -1 for position updates.
type Entry struct {
	Index  int            `json:"index"`
	Cursor int            `json:"cursor"`
	Action string         `json:"action"`
	Player int            `json:"player"`
	Active int            `json:"active"`
	Day    int            `json:"day"`
	Hash   game.StateHash `json:"hash,string"`
	Events []EventRecord  `json:"events"`
}

type EventRecord struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type Snapshot struct {
	Cursor int
	Day    int
	Hash   game.StateHash
	State  *game.GameState
}

// Journal is a loaded bundle.
type Journal struct {
	Dir       string
	Manifest  Manifest
	Entries   []Entry
	Snapshots []Snapshot
}

// Load reads a bundle from its directory or manifest path.
func Load(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path must be provided")
	}
	manifestPath := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		manifestPath = filepath.Join(path, manifestName)
	}
	dir := filepath.Dir(manifestPath)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}

	entries, err := loadEntries(filepath.Join(dir, manifest.EventsPath))
	if err != nil {
		return nil, err
	}
	snapshots, err := loadSnapshots(filepath.Join(dir, manifest.SnapshotsPath))
	if err != nil {
		return nil, err
	}
	return &Journal{Dir: dir, Manifest: manifest, Entries: entries, Snapshots: snapshots}, nil
}

func loadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var entries []Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("event log line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return entries, nil
}

func loadSnapshots(path string) ([]Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshots: %w", err)
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot stream: %w", err)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	var snapshots []Snapshot
	offset := 0
	for offset+snapshotHeader <= len(payload) {
		cursor := int(binary.LittleEndian.Uint64(payload[offset : offset+8]))
		day := int(binary.LittleEndian.Uint32(payload[offset+8 : offset+12]))
		hash := game.StateHash(binary.LittleEndian.Uint64(payload[offset+12 : offset+20]))
		size := int(binary.LittleEndian.Uint32(payload[offset+20 : offset+24]))
		offset += snapshotHeader
		if offset+size > len(payload) {
			return nil, fmt.Errorf("snapshot at cursor %d truncated", cursor)
		}
		var gs game.GameState
		if err := json.Unmarshal(payload[offset:offset+size], &gs); err != nil {
			return nil, fmt.Errorf("snapshot at cursor %d: %w", cursor, err)
		}
		offset += size
		snapshots = append(snapshots, Snapshot{Cursor: cursor, Day: day, Hash: hash, State: &gs})
	}
	if offset != len(payload) {
		return nil, fmt.Errorf("snapshot stream has %d trailing bytes", len(payload)-offset)
	}
	return snapshots, nil
}

// SnapshotAt returns the latest snapshot taken at or before cursor.
func (j *Journal) SnapshotAt(cursor int) (Snapshot, bool) {
	var best Snapshot
	found := false
	for _, s := range j.Snapshots {
		if s.Cursor > cursor {
			break
		}
		best, found = s, true
	}
	return best, found
}
