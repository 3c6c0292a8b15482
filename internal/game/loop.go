package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ayusman/gesturefall/internal/gesture"
)

// Game constants.
const (
	MaxHealth  = 100
	HealthStep = 10

	MinRadius = 15.0
	MaxRadius = 45.0

	DefaultSpawnInterval = 1000 * time.Millisecond
	DefaultDebounce      = 250 * time.Millisecond
)

// Entity is one falling symbol. X, Y is the disc center.
type Entity struct {
	ID     uint64  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Symbol Gesture `json:"symbol"`
}

// EventKind classifies what happened to the game during a tick.
type EventKind int

const (
	EventSpawned EventKind = iota
	EventMissed
	EventCleared
	EventOver
)

func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "spawned"
	case EventMissed:
		return "missed"
	case EventCleared:
		return "cleared"
	default:
		return "over"
	}
}

// Event is returned by Tick for every state change.
type Event struct {
	Kind   EventKind
	Entity Entity
	Health int
	// Round is set on EventOver.
	Round *Round
}

// Stats counts entities over one round.
type Stats struct {
	Spawned int `json:"spawned"`
	Cleared int `json:"cleared"`
	Missed  int `json:"missed"`
}

// Round summarizes a finished game.
type Round struct {
	StartedAt time.Time
	EndedAt   time.Time
	Stats
}

// Options configures a Loop. Zero or negative sizes and durations take the
// defaults.
type Options struct {
	Width          float64
	Height         float64
	SpawnInterval  time.Duration
	Debounce       time.Duration
	ClearOnRestart bool
	Rand           *rand.Rand
}

// removal is a debounced clear: it fires at fireAt and only acts if the
// current top label still equals label.
type removal struct {
	label  string
	target Gesture
	fireAt time.Time
}

// Loop owns the game state. All methods are safe for concurrent use; the
// frame pipeline drives Tick while handlers and front-ends read snapshots.
type Loop struct {
	mu sync.Mutex

	width, height  float64
	spawnInterval  time.Duration
	debounce       time.Duration
	clearOnRestart bool
	rng            *rand.Rand

	health    int
	running   bool
	over      bool
	entities  []Entity
	lastSpawn time.Time
	pending   []removal
	top       string
	nextID    uint64

	stats      Stats
	roundStart time.Time
}

// NewLoop creates a stopped game at full health.
func NewLoop(opts Options) *Loop {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if opts.SpawnInterval <= 0 {
		opts.SpawnInterval = DefaultSpawnInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Loop{
		width:          opts.Width,
		height:         opts.Height,
		spawnInterval:  opts.SpawnInterval,
		debounce:       opts.Debounce,
		clearOnRestart: opts.ClearOnRestart,
		rng:            opts.Rand,
		health:         MaxHealth,
	}
}

// Spawn adds one entity at the top of the field and returns it.
func (l *Loop) Spawn() Entity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spawnLocked()
}

func (l *Loop) spawnLocked() Entity {
	radius := l.rng.Float64()*(MaxRadius-MinRadius) + MinRadius
	l.nextID++
	e := Entity{
		ID:     l.nextID,
		X:      radius + l.rng.Float64()*(l.width-2*radius),
		Y:      -radius,
		Radius: radius,
		DX:     (l.rng.Float64() - 0.5) * 2,
		DY:     l.rng.Float64()*2 + 1,
		Symbol: Gesture(l.rng.IntN(len(symbolTable))),
	}
	l.entities = append(l.entities, e)
	l.stats.Spawned++
	return e
}

// Start resumes ticking and spawns the first entity if the field is empty.
// A game that is over stays over until Restart.
func (l *Loop) Start(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.over {
		return
	}
	l.running = true
	if l.roundStart.IsZero() {
		l.roundStart = now
	}
	if len(l.entities) == 0 {
		l.spawnLocked()
		l.lastSpawn = now
	}
	if l.lastSpawn.IsZero() {
		l.lastSpawn = now
	}
}

// Stop pauses ticking. State is kept.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
}

// Restart resets health, leaves the terminal state and resumes ticking.
// Entities and pending clears survive unless ClearOnRestart is set.
func (l *Loop) Restart(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.health = MaxHealth
	l.over = false
	l.running = true
	l.stats = Stats{}
	l.roundStart = now
	l.lastSpawn = now
	if l.clearOnRestart {
		l.entities = nil
		l.pending = nil
	}
}

// Tick advances the game by one frame. ranked is the frame's prediction list
// sorted by confidence, or nil when no hand was classified.
func (l *Loop) Tick(now time.Time, ranked []gesture.Prediction) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || l.over {
		return nil
	}

	var events []Event

	if now.Sub(l.lastSpawn) >= l.spawnInterval {
		e := l.spawnLocked()
		l.lastSpawn = now
		events = append(events, Event{Kind: EventSpawned, Entity: e, Health: l.health})
	}

	for i := range l.entities {
		l.entities[i].Y += l.entities[i].DY
	}

	kept := l.entities[:0]
	for _, e := range l.entities {
		if e.Y-e.Radius > l.height {
			l.health = max(l.health-HealthStep, 0)
			l.stats.Missed++
			events = append(events, Event{Kind: EventMissed, Entity: e, Health: l.health})
			continue
		}
		kept = append(kept, e)
	}
	l.entities = kept

	// Without a hand the last known top label stays current.
	top, ok := gesture.Top(ranked)
	if ok {
		l.top = top
	}

	events = append(events, l.fireDueLocked(now)...)

	if ok {
		if g, known := ParseGesture(top); known {
			l.pending = append(l.pending, removal{label: top, target: g, fireAt: now.Add(l.debounce)})
		}
	}

	if l.health == 0 {
		l.over = true
		l.running = false
		round := &Round{StartedAt: l.roundStart, EndedAt: now, Stats: l.stats}
		events = append(events, Event{Kind: EventOver, Health: 0, Round: round})
	}

	return events
}

// fireDueLocked runs every removal whose time has come. Each re-checks the
// current top label before clearing the first entity with its symbol.
func (l *Loop) fireDueLocked(now time.Time) []Event {
	var events []Event
	waiting := l.pending[:0]
	for _, r := range l.pending {
		if now.Before(r.fireAt) {
			waiting = append(waiting, r)
			continue
		}
		if l.top != r.label {
			continue
		}
		if e, ok := l.removeFirstLocked(r.target); ok {
			l.stats.Cleared++
			events = append(events, Event{Kind: EventCleared, Entity: e, Health: l.health})
		}
	}
	l.pending = waiting
	return events
}

func (l *Loop) removeFirstLocked(g Gesture) (Entity, bool) {
	for i, e := range l.entities {
		if e.Symbol == g {
			l.entities = append(l.entities[:i], l.entities[i+1:]...)
			return e, true
		}
	}
	return Entity{}, false
}

// Snapshot is a copy of the game state for display.
type Snapshot struct {
	Health   int      `json:"health"`
	Band     Band     `json:"band"`
	Color    string   `json:"color"`
	Running  bool     `json:"running"`
	Over     bool     `json:"over"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Entities []Entity `json:"entities"`
	Top      string   `json:"top,omitempty"`
	Pending  int      `json:"pending"`
	Stats    Stats    `json:"stats"`
}

// Snapshot copies the current state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	band := BandFor(l.health)
	return Snapshot{
		Health:   l.health,
		Band:     band,
		Color:    band.Color(),
		Running:  l.running,
		Over:     l.over,
		Width:    l.width,
		Height:   l.height,
		Entities: append([]Entity(nil), l.entities...),
		Top:      l.top,
		Pending:  len(l.pending),
		Stats:    l.stats,
	}
}

// Health returns the current health.
func (l *Loop) Health() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.health
}

// Over reports whether the game reached zero health.
func (l *Loop) Over() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.over
}

// Running reports whether Tick currently advances the game.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
