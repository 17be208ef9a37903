package game

import (
	crand "crypto/rand"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

const roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randID(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = roomIDAlphabet[int(b[i])%len(roomIDAlphabet)]
	}
	return string(b)
}

// Registry owns the live rooms. Any referenced room id is materialized on
// first use; a room removes itself once its last connection is gone.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg   Config
	log   *slog.Logger
	stats StatsReporter
}

func NewRegistry(cfg Config, log *slog.Logger, stats StatsReporter) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg.withDefaults(),
		log:   log,
		stats: stats,
	}
}

// Create makes a room under a fresh id.
func (g *Registry) Create() *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		id := randID(9)
		if _, ok := g.rooms[id]; ok {
			continue
		}
		return g.newRoomLocked(id)
	}
}

// GetOrCreate returns the room for id, creating it on first reference.
func (g *Registry) GetOrCreate(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		return r
	}
	return g.newRoomLocked(id)
}

func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) newRoomLocked(id string) *Room {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	r := NewRoom(id, g.cfg, g.log.With("room", id), g.stats, rng)
	r.onEmpty = g.remove
	g.rooms[id] = r
	g.log.Info("room created", "room", id)
	return r
}

func (g *Registry) remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
	g.log.Info("room removed", "room", id)
}
