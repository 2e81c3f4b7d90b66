// Package journal stores a played-back replay on disk: every update as a
// snappy-compressed JSON line, a zstd stream of state snapshots taken at the
// start of each day, and a manifest tying them together.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"awreplay/engine"
	"awreplay/game"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

const (
	ManifestVersion = 1
	manifestName    = "manifest.json"
	eventsName      = "events.jsonl.sz"
	snapshotsName   = "snapshots.bin.zst"
	snapshotHeader  = 8 + 4 + 8 + 4
)

// Manifest describes a journal bundle.
type Manifest struct {
	Version       int    `json:"version"`
	CreatedAt     string `json:"created_at"`
	MatchID       int    `json:"match_id"`
	Name          string `json:"name"`
	Actions       int    `json:"actions"`
	Applied       int    `json:"applied"`
	Days          int    `json:"days"`
	Snapshots     int    `json:"snapshots"`
	FinalHash     string `json:"final_hash"`
	Halted        *Halt  `json:"halted,omitempty"`
	EventsPath    string `json:"events_path"`
	SnapshotsPath string `json:"snapshots_path"`
}

type Halt struct {
	ActionIndex int    `json:"action_index"`
	Action      string `json:"action"`
	Reason      string `json:"reason"`
}

// Writer streams one journal bundle. It is not safe for concurrent use.
type Writer struct {
	dir         string
	manifest    Manifest
	eventFile   *os.File
	eventStream *snappy.Writer
	snapFile    *os.File
	snapStream  *zstd.Encoder
}

// NewWriter creates <root>/<match>-<timestamp> and opens its compressed sinks.
func NewWriter(root string, matchID int, name string, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("journal root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%d-%s", matchID, created.Format("20060102T150405Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, eventsName))
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}
	snapFile, err := os.Create(filepath.Join(dir, snapshotsName))
	if err != nil {
		eventFile.Close()
		return nil, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	snapStream, err := zstd.NewWriter(snapFile)
	if err != nil {
		eventFile.Close()
		snapFile.Close()
		return nil, fmt.Errorf("failed to open snapshot stream: %w", err)
	}

	return &Writer{
		dir: dir,
		manifest: Manifest{
			Version:       ManifestVersion,
			CreatedAt:     created.Format(time.RFC3339Nano),
			MatchID:       matchID,
			Name:          name,
			EventsPath:    eventsName,
			SnapshotsPath: snapshotsName,
		},
		eventFile:   eventFile,
		eventStream: snappy.NewBufferedWriter(eventFile),
		snapFile:    snapFile,
		snapStream:  snapStream,
	}, nil
}

func (w *Writer) Directory() string {
	return w.dir
}

// AppendUpdate writes one update as a JSON line.
func (w *Writer) AppendUpdate(u engine.Update) error {
	line, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode update %d: %w", u.Index, err)
	}
	if _, err := w.eventStream.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write update %d: %w", u.Index, err)
	}
	if !u.IsPosition() {
		w.manifest.Applied++
	}
	return nil
}

// AppendSnapshot writes the state reached at cursor.
func (w *Writer) AppendSnapshot(cursor int, gs *game.GameState) error {
	payload, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot at %d: %w", cursor, err)
	}
	header := make([]byte, snapshotHeader)
	binary.LittleEndian.PutUint64(header[0:8], uint64(cursor))
	binary.LittleEndian.PutUint32(header[8:12], uint32(gs.Day))
	binary.LittleEndian.PutUint64(header[12:20], uint64(gs.Hash()))
	binary.LittleEndian.PutUint32(header[20:24], uint32(len(payload)))
	if _, err := w.snapStream.Write(header); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	if _, err := w.snapStream.Write(payload); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	w.manifest.Snapshots++
	return nil
}

// Close finishes the bundle. The manifest is written last so a bundle without
// one is known to be incomplete.
func (w *Writer) Close(actions, days int, final game.StateHash, halted *game.RuleViolation) (Manifest, error) {
	var firstErr error
	if err := w.eventStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.eventFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.snapStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.snapFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return Manifest{}, fmt.Errorf("failed to close journal streams: %w", firstErr)
	}

	w.manifest.Actions = actions
	w.manifest.Days = days
	w.manifest.FinalHash = fmt.Sprintf("%016x", uint64(final))
	if halted != nil {
		w.manifest.Halted = &Halt{ActionIndex: halted.ActionIndex, Action: halted.Action.String(), Reason: halted.Reason}
	}
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, manifestName), data, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("failed to write manifest: %w", err)
	}
	return w.manifest, nil
}
