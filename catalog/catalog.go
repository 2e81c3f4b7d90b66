// Package catalog indexes decoded replays in SQLite so they can be listed
// and filtered without decoding every archive again.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"awreplay/engine"
	"awreplay/game"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("replay not indexed")

// PlayerRow is one seat of an indexed match.
type PlayerRow struct {
	ID      game.PlayerID `json:"id"`
	Faction string        `json:"faction"`
	CO      string        `json:"co,omitempty"`
	Team    string        `json:"team,omitempty"`
	Order   int           `json:"order"`
}

// Entry is what the catalog knows about one replay.
type Entry struct {
	MatchID    int             `json:"matchId"`
	Name       string          `json:"name"`
	MapID      int             `json:"mapId"`
	Type       string          `json:"type,omitempty"`
	StartDate  string          `json:"startDate,omitempty"`
	Path       string          `json:"path,omitempty"`
	Actions    int             `json:"actions"`
	Applied    int             `json:"applied"`
	Days       int             `json:"days"`
	HaltedAt   int             `json:"haltedAt"` // -1 when the replay plays to the end
	HaltReason string          `json:"haltReason,omitempty"`
	FinalHash  string          `json:"finalHash"`
	Winners    []game.PlayerID `json:"winners,omitempty"`
	Players    []PlayerRow     `json:"players"`
	IndexedAt  time.Time       `json:"indexedAt"`
}

func (e *Entry) Halted() bool {
	return e.HaltedAt >= 0
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Faction string
	MapID   int
	Player  game.PlayerID
}

type Catalog struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *Catalog) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS replays (
			match_id    INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			map_id      INTEGER NOT NULL,
			type        TEXT NOT NULL DEFAULT '',
			start_date  TEXT NOT NULL DEFAULT '',
			path        TEXT NOT NULL DEFAULT '',
			actions     INTEGER NOT NULL,
			applied     INTEGER NOT NULL,
			days        INTEGER NOT NULL,
			halted_at   INTEGER NOT NULL DEFAULT -1,
			halt_reason TEXT NOT NULL DEFAULT '',
			final_hash  TEXT NOT NULL,
			winners     TEXT NOT NULL DEFAULT '',
			indexed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS replay_players (
			match_id   INTEGER NOT NULL REFERENCES replays(match_id),
			player_id  INTEGER NOT NULL,
			faction    TEXT NOT NULL,
			co         TEXT NOT NULL DEFAULT '',
			team       TEXT NOT NULL DEFAULT '',
			turn_order INTEGER NOT NULL,
			PRIMARY KEY (match_id, player_id)
		);
		CREATE INDEX IF NOT EXISTS replay_players_faction ON replay_players(faction);
	`)
	return err
}

// Summarize plays a match to its end (or first violation) and describes it.
func Summarize(m *replay.Match, path string) (Entry, error) {
	d, err := engine.NewDriver(m)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		MatchID:   m.Info.ID,
		Name:      m.Info.Name,
		MapID:     m.Info.MapID,
		Type:      m.Info.Type,
		StartDate: m.Info.StartDate,
		Path:      path,
		Actions:   d.Len(),
		HaltedAt:  -1,
	}
	_, err = d.Run()
	var v *game.RuleViolation
	if err != nil && !errors.As(err, &v) {
		return Entry{}, err
	}
	if v != nil {
		e.HaltedAt = v.ActionIndex
		e.HaltReason = v.Reason
	}
	gs := d.State()
	e.Applied = d.Cursor()
	e.Days = gs.Day
	e.FinalHash = fmt.Sprintf("%016x", uint64(gs.Hash()))
	e.Winners = gs.Winners
	for _, p := range m.Setup.Players {
		e.Players = append(e.Players, PlayerRow{ID: p.ID, Faction: p.Faction.Code(), CO: p.CO, Team: p.Team, Order: p.Order})
	}
	return e, nil
}

// Index summarizes a match and stores it, replacing an earlier entry.
func (c *Catalog) Index(m *replay.Match, path string) (Entry, error) {
	e, err := Summarize(m, path)
	if err != nil {
		return Entry{}, err
	}
	if err := c.Put(e); err != nil {
		return Entry{}, err
	}
	log.Debug().Msgf("indexed match %d (%s): %d/%d actions over %d days", e.MatchID, e.Name, e.Applied, e.Actions, e.Days)
	return e, nil
}

// Put upserts an entry and its players.
func (c *Catalog) Put(e Entry) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO replays (match_id, name, map_id, type, start_date, path, actions, applied, days, halted_at, halt_reason, final_hash, winners, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(match_id) DO UPDATE SET
			name = excluded.name, map_id = excluded.map_id, type = excluded.type,
			start_date = excluded.start_date, path = excluded.path, actions = excluded.actions,
			applied = excluded.applied, days = excluded.days, halted_at = excluded.halted_at,
			halt_reason = excluded.halt_reason, final_hash = excluded.final_hash,
			winners = excluded.winners, indexed_at = excluded.indexed_at
	`, e.MatchID, e.Name, e.MapID, e.Type, e.StartDate, e.Path, e.Actions, e.Applied, e.Days,
		e.HaltedAt, e.HaltReason, e.FinalHash, joinIDs(e.Winners))
	if err != nil {
		return fmt.Errorf("upsert replay %d: %w", e.MatchID, err)
	}

	if _, err := tx.Exec("DELETE FROM replay_players WHERE match_id = ?", e.MatchID); err != nil {
		return fmt.Errorf("clear players of %d: %w", e.MatchID, err)
	}
	for _, p := range e.Players {
		_, err := tx.Exec(
			"INSERT INTO replay_players (match_id, player_id, faction, co, team, turn_order) VALUES (?, ?, ?, ?, ?, ?)",
			e.MatchID, int(p.ID), p.Faction, p.CO, p.Team, p.Order,
		)
		if err != nil {
			return fmt.Errorf("insert player %d of %d: %w", p.ID, e.MatchID, err)
		}
	}
	return tx.Commit()
}

const entryColumns = "match_id, name, map_id, type, start_date, path, actions, applied, days, halted_at, halt_reason, final_hash, winners, indexed_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var winners string
	err := row.Scan(&e.MatchID, &e.Name, &e.MapID, &e.Type, &e.StartDate, &e.Path, &e.Actions, &e.Applied,
		&e.Days, &e.HaltedAt, &e.HaltReason, &e.FinalHash, &winners, &e.IndexedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Winners, err = splitIDs(winners)
	return e, err
}

// Get retrieves an entry with its players.
func (c *Catalog) Get(matchID int) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRow("SELECT "+entryColumns+" FROM replays WHERE match_id = ?", matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get replay %d: %w", matchID, err)
	}
	if e.Players, err = c.players(matchID); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns matching entries, newest match first.
func (c *Catalog) List(f Filter) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM replays"
	var where []string
	var args []any
	if f.MapID != 0 {
		where = append(where, "map_id = ?")
		args = append(args, f.MapID)
	}
	if f.Faction != "" {
		where = append(where, "match_id IN (SELECT match_id FROM replay_players WHERE faction = ?)")
		args = append(args, strings.ToLower(f.Faction))
	}
	if f.Player != 0 {
		where = append(where, "match_id IN (SELECT match_id FROM replay_players WHERE player_id = ?)")
		args = append(args, int(f.Player))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY match_id DESC"

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	defer rows.Close()
	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if result[i].Players, err = c.players(result[i].MatchID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Catalog) players(matchID int) ([]PlayerRow, error) {
	rows, err := c.db.Query("SELECT player_id, faction, co, team, turn_order FROM replay_players WHERE match_id = ? ORDER BY turn_order", matchID)
	if err != nil {
		return nil, fmt.Errorf("players of %d: %w", matchID, err)
	}
	defer rows.Close()
	var result []PlayerRow
	for rows.Next() {
		var p PlayerRow
		var id int
		if err := rows.Scan(&id, &p.Faction, &p.CO, &p.Team, &p.Order); err != nil {
			return nil, err
		}
		p.ID = game.PlayerID(id)
		result = append(result, p)
	}
	return result, rows.Err()
}

// Delete removes an entry and its players.
func (c *Catalog) Delete(matchID int) error {
	_, err := c.db.Exec("DELETE FROM replay_players WHERE match_id = ?", matchID)
	if err != nil {
		return err
	}
	_, err = c.db.Exec("DELETE FROM replays WHERE match_id = ?", matchID)
	return err
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func joinIDs(ids []game.PlayerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) ([]game.PlayerID, error) {
	if s == "" {
		return nil, nil
	}
	var ids []game.PlayerID
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad winner list %q: %w", s, err)
		}
		ids = append(ids, game.PlayerID(id))
	}
	return ids, nil
}
