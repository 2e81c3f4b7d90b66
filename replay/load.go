package replay

import (
	"errors"
	"fmt"

	"awreplay/archive"
	"awreplay/game"
	"awreplay/phpser"

	"github.com/rs/zerolog/log"
)

// MapEntries are the archive entries probed for a bundled map export.
var MapEntries = []string{"map.txt", "map.json"}

type options struct {
	mapDef *MapDef
	strict bool
}

type Option func(*options)

// WithMap supplies the terrain grid, overriding any map bundled in the
// archive.
func WithMap(m *MapDef) Option {
	return func(o *options) {
		o.mapDef = m
	}
}

// Lenient lets recorded outcomes override computed ones during playback
// instead of stopping at the first disagreement. Archives of matches with
// commander abilities need it.
func Lenient() Option {
	return func(o *options) {
		o.strict = false
	}
}

// WithStrict sets strict rules explicitly.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func newOptions(opts []Option) options {
	o := options{strict: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load decodes a replay archive: every entry is split into gzip members,
// game snapshots and turns are decoded, and the result is checked against
// the schema and the initial state rules.
func Load(data []byte, opts ...Option) (*Match, error) {
	o := newOptions(opts)
	a, err := archive.Open(data)
	if err != nil {
		return nil, err
	}

	var members [][]byte
	for _, name := range a.Entries() {
		if isMapEntry(name) {
			continue
		}
		ms, err := a.ReadMembers(name)
		if err != nil {
			return nil, err
		}
		members = append(members, ms...)
	}

	if o.mapDef == nil {
		if o.mapDef, err = probeMap(a); err != nil {
			return nil, err
		}
	}
	return build(members, o)
}

// Build assembles a Match from already extracted members, in archive order.
func Build(members [][]byte, opts ...Option) (*Match, error) {
	return build(members, newOptions(opts))
}

func isMapEntry(name string) bool {
	for _, m := range MapEntries {
		if name == m {
			return true
		}
	}
	return false
}

// probeMap looks for a bundled map export. Its absence is not an error here;
// build reports it if no map was supplied either.
func probeMap(a *archive.Archive) (*MapDef, error) {
	for _, name := range MapEntries {
		raw, err := a.ReadEntry(name)
		if errors.Is(err, archive.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Debug().Msgf("using map bundled as %s", name)
		return ParseMap(raw)
	}
	return nil, nil
}

func build(members [][]byte, o options) (*Match, error) {
	var snapshots []phpser.Value
	var turns []rawTurn
	for _, member := range members {
		if isTurn(member) {
			path := fieldIndex("turns", len(turns))
			t, err := parseTurn(member, path)
			if err != nil {
				return nil, err
			}
			turns = append(turns, t)
			continue
		}
		v, err := phpser.Decode(member)
		if err != nil {
			return nil, fmt.Errorf("game snapshot %d: %w", len(snapshots), err)
		}
		snapshots = append(snapshots, v)
	}

	if len(snapshots) == 0 {
		return nil, invalid("game", "archive holds no game snapshot")
	}
	if o.mapDef == nil {
		return nil, invalid("map", "no map definition in the archive and none supplied")
	}

	info, setup, err := buildGame(snapshots[0], o.mapDef, o.strict)
	if err != nil {
		return nil, err
	}
	m := &Match{Info: info, Map: *o.mapDef, Setup: setup, Snapshots: len(snapshots)}

	for ti, t := range turns {
		path := fieldIndex("turns", ti)
		if _, ok := m.Player(t.player); !ok {
			return nil, invalid(path+".player", "unknown player %d", t.player)
		}
		turn := Turn{Player: t.player, Day: t.day, First: len(m.Actions)}
		for ai, raw := range t.actions {
			a, err := parseAction(raw, t.player, &m.Map, fieldIndex(path+".actions", ai))
			if err != nil {
				return nil, err
			}
			m.Actions = append(m.Actions, a)
		}
		turn.Count = len(m.Actions) - turn.First
		m.Turns = append(m.Turns, turn)
	}

	log.Debug().Msgf("built replay %d (%s): %d snapshots, %d turns, %d actions",
		info.ID, info.Name, m.Snapshots, len(m.Turns), len(m.Actions))
	return m, nil
}

// ActionCounts tallies actions by kind, for summaries.
func (m *Match) ActionCounts() map[game.ActionKind]int {
	counts := make(map[game.ActionKind]int)
	for _, a := range m.Actions {
		counts[a.Kind()]++
	}
	return counts
}
