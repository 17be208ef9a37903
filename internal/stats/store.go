package stats

import (
	"context"
	"sync"
	"time"
)

// RoomInfo is one room's occupancy report.
type RoomInfo struct {
	ID          string    `json:"roomId"`
	PlayerCount int       `json:"playerCount"`
	GameStarted bool      `json:"gameStarted"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store persists per-room occupancy. Reports are best-effort; a Store error
// never propagates into game state.
type Store interface {
	Put(ctx context.Context, info RoomInfo) error
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]RoomInfo, error)
}

type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]RoomInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]RoomInfo)}
}

func (s *MemoryStore) Put(_ context.Context, info RoomInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[info.ID] = info
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, info := range s.rooms {
		out = append(out, info)
	}
	return out, nil
}
