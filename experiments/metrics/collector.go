package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"awreplay/game"
)

// ActionMetric describes one applied action.
type ActionMetric struct {
	Index    int
	Kind     game.ActionKind
	Player   game.PlayerID
	Day      int
	Events   int
	Duration time.Duration
}

type ReplayMetric struct {
	MatchID   int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Applied   int
	Events    int
	Halted    bool
	Reason    string
}

type Collector interface {
	Start(matchID int)
	Observe(m ActionMetric)
	Halt(reason string)
	Actions() []ActionMetric
	Complete() ReplayMetric
}

type collector struct {
	matchID   int
	startTime time.Time
	applied   atomic.Int32
	events    atomic.Int32
	halted    atomic.Bool

	mu      sync.Mutex
	reason  string
	actions []ActionMetric
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the collector for a fresh run over a match.
func (m *collector) Start(matchID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchID = matchID
	m.startTime = time.Now()
	m.applied.Store(0)
	m.events.Store(0)
	m.halted.Store(false)
	m.reason = ""
	m.actions = m.actions[:0]
}

func (m *collector) Observe(a ActionMetric) {
	m.applied.Add(1)
	m.events.Add(int32(a.Events))
	m.mu.Lock()
	m.actions = append(m.actions, a)
	m.mu.Unlock()
}

func (m *collector) Halt(reason string) {
	m.halted.Store(true)
	m.mu.Lock()
	m.reason = reason
	m.mu.Unlock()
}

func (m *collector) Actions() []ActionMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ActionMetric(nil), m.actions...)
}

func (m *collector) Complete() ReplayMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := time.Now()
	return ReplayMetric{
		MatchID:   m.matchID,
		StartTime: m.startTime,
		EndTime:   end,
		Duration:  end.Sub(m.startTime),
		Applied:   int(m.applied.Load()),
		Events:    int(m.events.Load()),
		Halted:    m.halted.Load(),
		Reason:    m.reason,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(matchID int)       {}
func (m *dummyCollector) Observe(a ActionMetric)  {}
func (m *dummyCollector) Halt(reason string)      {}
func (m *dummyCollector) Actions() []ActionMetric { return nil }
func (m *dummyCollector) Complete() ReplayMetric  { return ReplayMetric{} }
