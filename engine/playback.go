package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"awreplay/game"
	"awreplay/meta"

	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("playback stopped")

// Status is a playback position summary.
type Status struct {
	Cursor   int                 `json:"cursor"`
	Len      int                 `json:"len"`
	Day      int                 `json:"day"`
	AtEnd    bool                `json:"atEnd"`
	Paused   bool                `json:"paused"`
	Interval time.Duration       `json:"interval"`
	Hash     game.StateHash      `json:"hash,string"`
	Halted   *game.RuleViolation `json:"halted,omitempty"`
	Dropped  int64               `json:"dropped"`
}

// Snapshot is a status plus a copy of the state it describes.
type Snapshot struct {
	Status
	State *game.GameState `json:"state"`
}

type commandKind int

const (
	stepCommand commandKind = iota
	seekCommand
	pauseCommand
	resumeCommand
	intervalCommand
	statusCommand
	snapshotCommand
)

type command struct {
	kind     commandKind
	index    int
	interval time.Duration
	reply    chan result
}

type result struct {
	update   Update
	snapshot Snapshot
	err      error
}

// Playback paces an Engine from a single owner goroutine. Every command goes
// through that goroutine, so the engine is never touched concurrently.
// Updates are published without blocking: when the buffer is full the update
// is dropped and counted, and consumers resync from Snapshot using the
// cursor and hash every update carries.
type Playback struct {
	engine   Engine
	interval time.Duration
	paused   bool

	commands chan command
	updates  chan Update
	done     chan struct{}
	dropped  atomic.Int64
}

type PlaybackOption func(*Playback)

func WithInterval(d time.Duration) PlaybackOption {
	if d <= 0 {
		panic("interval must be positive")
	}
	return func(p *Playback) {
		p.interval = d
	}
}

func WithBuffer(n int) PlaybackOption {
	if n < 1 {
		panic("buffer must hold at least one update")
	}
	return func(p *Playback) {
		p.updates = make(chan Update, n)
	}
}

// StartPaused keeps the playback from advancing until Resume.
func StartPaused() PlaybackOption {
	return func(p *Playback) {
		p.paused = true
	}
}

func NewPlayback(e Engine, opts ...PlaybackOption) *Playback {
	p := &Playback{
		engine:   e,
		interval: meta.DEFAULT_STEP_INTERVAL_MS * time.Millisecond,
		commands: make(chan command),
		updates:  make(chan Update, meta.UPDATE_BUFFER),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Updates streams applied actions in order. It is closed when Run returns.
func (p *Playback) Updates() <-chan Update {
	return p.updates
}

// Done is closed when Run returns.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Run owns the engine until ctx is cancelled.
func (p *Playback) Run(ctx context.Context) error {
	defer close(p.updates)
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Msgf("playback started at action %d of %d", p.engine.Cursor(), p.engine.Len())
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("playback stopped at action %d", p.engine.Cursor())
			return ctx.Err()
		case c := <-p.commands:
			c.reply <- p.handle(c, ticker)
		case <-ticker.C:
			if p.paused {
				continue
			}
			p.advance()
		}
	}
}

func (p *Playback) handle(c command, ticker *time.Ticker) result {
	switch c.kind {
	case stepCommand:
		u, err := p.engine.Step()
		if err == nil {
			p.publish(u)
		}
		return result{update: u, err: err}
	case seekCommand:
		_, err := p.engine.Seek(c.index)
		pos := p.engine.Position()
		p.publish(pos)
		return result{update: pos, err: err}
	case pauseCommand:
		p.paused = true
	case resumeCommand:
		p.paused = false
	case intervalCommand:
		p.interval = c.interval
		ticker.Reset(c.interval)
	case snapshotCommand:
		return result{snapshot: Snapshot{Status: p.status(), State: p.engine.State()}}
	}
	return result{snapshot: Snapshot{Status: p.status()}}
}

// advance applies one action on a tick and pauses at the end or on a halt.
func (p *Playback) advance() {
	u, err := p.engine.Step()
	if err != nil {
		p.paused = true
		if errors.Is(err, ErrAtEnd) {
			log.Info().Msgf("playback reached the end after %d actions", p.engine.Len())
		}
		return
	}
	p.publish(u)
	if p.engine.IsAtEnd() {
		p.paused = true
		log.Info().Msgf("playback reached the end after %d actions", p.engine.Len())
	}
}

func (p *Playback) publish(u Update) {
	select {
	case p.updates <- u:
	default:
		n := p.dropped.Add(1)
		log.Debug().Msgf("update stream full, dropped update at cursor %d (%d dropped)", u.Cursor, n)
	}
}

func (p *Playback) status() Status {
	return Status{
		Cursor:   p.engine.Cursor(),
		Len:      p.engine.Len(),
		Day:      p.engine.CurrentDay(),
		AtEnd:    p.engine.IsAtEnd(),
		Paused:   p.paused,
		Interval: p.interval,
		Hash:     p.engine.Position().Hash,
		Halted:   p.engine.Halted(),
		Dropped:  p.dropped.Load(),
	}
}

func (p *Playback) send(ctx context.Context, c command) (result, error) {
	c.reply = make(chan result, 1)
	select {
	case p.commands <- c:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-p.done:
		return result{}, ErrStopped
	}
	select {
	case r := <-c.reply:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// Step applies the next action regardless of pause.
func (p *Playback) Step(ctx context.Context) (Update, error) {
	r, err := p.send(ctx, command{kind: stepCommand})
	if err != nil {
		return Update{}, err
	}
	return r.update, r.err
}

// Seek jumps to the position before action index and publishes it.
func (p *Playback) Seek(ctx context.Context, index int) (Update, error) {
	r, err := p.send(ctx, command{kind: seekCommand, index: index})
	if err != nil {
		return Update{}, err
	}
	return r.update, r.err
}

func (p *Playback) Pause(ctx context.Context) error {
	_, err := p.send(ctx, command{kind: pauseCommand})
	return err
}

func (p *Playback) Resume(ctx context.Context) error {
	_, err := p.send(ctx, command{kind: resumeCommand})
	return err
}

// SetInterval changes the pacing between actions.
func (p *Playback) SetInterval(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %s", d)
	}
	_, err := p.send(ctx, command{kind: intervalCommand, interval: d})
	return err
}

func (p *Playback) Status(ctx context.Context) (Status, error) {
	r, err := p.send(ctx, command{kind: statusCommand})
	if err != nil {
		return Status{}, err
	}
	return r.snapshot.Status, nil
}

func (p *Playback) Snapshot(ctx context.Context) (Snapshot, error) {
	r, err := p.send(ctx, command{kind: snapshotCommand})
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot, nil
}
