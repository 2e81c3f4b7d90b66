package gamemaster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"awreplay/catalog"
	"awreplay/communication"
	"awreplay/engine"
	"awreplay/meta"
	"awreplay/replay"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GameMaster hosts the playback of one replay at a time and fans its updates
// out to subscribers. Loading another archive replaces the playback; the
// subscribers stay and receive the new starting position.
type GameMaster struct {
	ctx          context.Context
	replayOpts   []replay.Option
	playbackOpts []engine.PlaybackOption
	catalog      *catalog.Catalog
	buffer       int

	mu       sync.Mutex
	match    *replay.Match
	playback *engine.Playback
	stop     context.CancelFunc
	subs     map[uuid.UUID]chan engine.Update
	closed   bool
}

type Option func(*GameMaster)

func WithReplayOptions(opts ...replay.Option) Option {
	return func(gm *GameMaster) {
		gm.replayOpts = append(gm.replayOpts, opts...)
	}
}

func WithPlaybackOptions(opts ...engine.PlaybackOption) Option {
	return func(gm *GameMaster) {
		gm.playbackOpts = append(gm.playbackOpts, opts...)
	}
}

// WithCatalog indexes every loaded replay.
func WithCatalog(c *catalog.Catalog) Option {
	return func(gm *GameMaster) {
		gm.catalog = c
	}
}

// WithSubscriberBuffer sizes each subscriber's update channel.
func WithSubscriberBuffer(n int) Option {
	if n < 1 {
		panic("subscriber buffer must hold at least one update")
	}
	return func(gm *GameMaster) {
		gm.buffer = n
	}
}

// NewGameMaster creates a host whose playbacks live until ctx is done.
func NewGameMaster(ctx context.Context, opts ...Option) *GameMaster {
	gm := &GameMaster{
		ctx:    ctx,
		buffer: meta.UPDATE_BUFFER,
		subs:   make(map[uuid.UUID]chan engine.Update),
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

var _ communication.Controller = (*GameMaster)(nil)

// Load decodes an archive and starts playing it.
func (gm *GameMaster) Load(ctx context.Context, archive []byte) (communication.LoadResponse, error) {
	m, err := replay.Load(archive, gm.replayOpts...)
	if err != nil {
		return communication.LoadResponse{}, err
	}
	return gm.Play(ctx, m)
}

// Play starts playing an already decoded match.
func (gm *GameMaster) Play(ctx context.Context, m *replay.Match) (communication.LoadResponse, error) {
	d, err := engine.NewDriver(m)
	if err != nil {
		return communication.LoadResponse{}, err
	}
	if gm.catalog != nil {
		if _, err := gm.catalog.Index(m, ""); err != nil {
			log.Warn().Msgf("failed to index match %d: %v", m.Info.ID, err)
		}
	}

	pb := engine.NewPlayback(d, gm.playbackOpts...)
	runCtx, stop := context.WithCancel(gm.ctx)

	gm.mu.Lock()
	if gm.closed {
		gm.mu.Unlock()
		stop()
		return communication.LoadResponse{}, fmt.Errorf("game master is closed")
	}
	if gm.stop != nil {
		gm.stop()
	}
	gm.match, gm.playback, gm.stop = m, pb, stop
	gm.mu.Unlock()

	// The starting position goes out before the playback can publish.
	gm.broadcast(pb, d.Position())
	go pb.Run(runCtx)
	go gm.forward(pb)

	status, err := pb.Status(ctx)
	if err != nil {
		return communication.LoadResponse{}, err
	}
	log.Info().Msgf("loaded match %d (%s): %d actions in %d turns", m.Info.ID, m.Info.Name, len(m.Actions), len(m.Turns))
	return communication.LoadResponse{Info: m.Info, Turns: len(m.Turns), Status: status}, nil
}

// Current returns the loaded match and its playback.
func (gm *GameMaster) Current() (*replay.Match, *engine.Playback, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.playback == nil {
		return nil, nil, communication.ErrNoReplay
	}
	return gm.match, gm.playback, nil
}

func (gm *GameMaster) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	_, pb, err := gm.Current()
	if err != nil {
		return engine.Snapshot{}, err
	}
	return pb.Snapshot(ctx)
}

// Control runs a command against the current playback. The status is
// returned even when the command fails, so a halted or finished playback
// still reports where it stands.
func (gm *GameMaster) Control(ctx context.Context, cmd communication.Command) (engine.Status, error) {
	_, pb, err := gm.Current()
	if err != nil {
		return engine.Status{}, err
	}

	switch cmd.Action {
	case communication.StepCommand:
		_, err = pb.Step(ctx)
	case communication.SeekCommand:
		_, err = pb.Seek(ctx, cmd.Index)
	case communication.PauseCommand:
		err = pb.Pause(ctx)
	case communication.ResumeCommand:
		err = pb.Resume(ctx)
	case communication.SpeedCommand:
		err = pb.SetInterval(ctx, time.Duration(cmd.IntervalMs)*time.Millisecond)
	default:
		return engine.Status{}, fmt.Errorf("unknown command %q", cmd.Action)
	}

	status, statusErr := pb.Status(ctx)
	if err != nil {
		return status, err
	}
	return status, statusErr
}

// Subscribe registers a listener for updates of whatever is playing.
func (gm *GameMaster) Subscribe() (uuid.UUID, <-chan engine.Update) {
	id := uuid.New()
	ch := make(chan engine.Update, gm.buffer)
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.closed {
		close(ch)
		return id, ch
	}
	gm.subs[id] = ch
	log.Debug().Msgf("subscriber %s joined (%d total)", id, len(gm.subs))
	return id, ch
}

func (gm *GameMaster) Unsubscribe(id uuid.UUID) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if ch, ok := gm.subs[id]; ok {
		delete(gm.subs, id)
		close(ch)
		log.Debug().Msgf("subscriber %s left (%d total)", id, len(gm.subs))
	}
}

// Close stops the playback and ends every subscription.
func (gm *GameMaster) Close() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.closed {
		return
	}
	gm.closed = true
	if gm.stop != nil {
		gm.stop()
	}
	for id, ch := range gm.subs {
		delete(gm.subs, id)
		close(ch)
	}
}

func (gm *GameMaster) forward(pb *engine.Playback) {
	for u := range pb.Updates() {
		gm.broadcast(pb, u)
	}
}

// broadcast hands u to every subscriber that has room, provided pb is still
// the current playback.
func (gm *GameMaster) broadcast(pb *engine.Playback, u engine.Update) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.playback != pb {
		return
	}
	for id, ch := range gm.subs {
		select {
		case ch <- u:
		default:
			log.Debug().Msgf("subscriber %s is behind, dropped update at cursor %d", id, u.Cursor)
		}
	}
}
