package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"awreplay/engine"
	"awreplay/game"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
)

// Record plays a match from the start and journals every update, with a
// snapshot of the initial state and of the state at the start of each new
// day. A rule violation ends the journal at the last good state and is noted
// in the manifest; it is not returned as an error.
func Record(ctx context.Context, root string, m *replay.Match, clock func() time.Time) (Manifest, string, error) {
	d, err := engine.NewDriver(m)
	if err != nil {
		return Manifest{}, "", err
	}
	w, err := NewWriter(root, m.Info.ID, m.Info.Name, clock)
	if err != nil {
		return Manifest{}, "", err
	}

	abort := func(err error) (Manifest, string, error) {
		w.Close(d.Len(), d.CurrentDay(), d.Position().Hash, nil)
		return Manifest{}, "", err
	}

	if err := w.AppendSnapshot(0, d.State()); err != nil {
		return abort(err)
	}
	for !d.IsAtEnd() {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		u, err := d.Step()
		var v *game.RuleViolation
		if errors.As(err, &v) {
			break
		}
		if err != nil {
			return abort(err)
		}
		if err := w.AppendUpdate(u); err != nil {
			return abort(err)
		}
		if startsDay(u) {
			if err := w.AppendSnapshot(u.Cursor, d.State()); err != nil {
				return abort(err)
			}
		}
	}

	manifest, err := w.Close(d.Len(), d.CurrentDay(), d.Position().Hash, d.Halted())
	if err != nil {
		return Manifest{}, "", err
	}
	log.Info().Msgf("journaled match %d: %d of %d actions, %d snapshots in %s",
		m.Info.ID, manifest.Applied, manifest.Actions, manifest.Snapshots, w.Directory())
	return manifest, w.Directory(), nil
}

func startsDay(u engine.Update) bool {
	for _, e := range u.Events {
		if e.Kind() == game.DayAdvancedEvent {
			return true
		}
	}
	return false
}

// Verify replays a match and checks it against a loaded journal: every
// recorded hash and snapshot must be reproduced exactly.
func Verify(j *Journal, m *replay.Match) error {
	if j.Manifest.MatchID != m.Info.ID {
		return fmt.Errorf("journal is for match %d, not %d", j.Manifest.MatchID, m.Info.ID)
	}
	d, err := engine.NewDriver(m)
	if err != nil {
		return err
	}
	snaps := j.Snapshots
	if len(snaps) > 0 && snaps[0].Cursor == 0 {
		if snaps[0].Hash != d.Position().Hash {
			return fmt.Errorf("initial state hash %016x does not match journal %016x", uint64(d.Position().Hash), uint64(snaps[0].Hash))
		}
		snaps = snaps[1:]
	}
	for _, e := range j.Entries {
		if e.Index < 0 {
			continue
		}
		u, err := d.Step()
		if err != nil {
			return fmt.Errorf("replaying journaled action %d: %w", e.Index, err)
		}
		if u.Index != e.Index || u.Hash != e.Hash {
			return fmt.Errorf("action %d: hash %016x does not match journal %016x", u.Index, uint64(u.Hash), uint64(e.Hash))
		}
		for len(snaps) > 0 && snaps[0].Cursor == u.Cursor {
			if snaps[0].Hash != u.Hash {
				return fmt.Errorf("snapshot at %d does not match the replayed state", u.Cursor)
			}
			snaps = snaps[1:]
		}
	}
	if len(snaps) > 0 {
		return fmt.Errorf("journal holds %d snapshots past its last update", len(snaps))
	}
	return nil
}
