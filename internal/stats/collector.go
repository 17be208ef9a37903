package stats

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

const (
	reportTimeout = 3 * time.Second
	staleAfter    = 5 * time.Minute
)

// Collector aggregates room occupancy reports into the global stats views.
// It satisfies the game package's reporter interface; rooms call Report and
// Unregister fire-and-forget.
type Collector struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewCollector(store Store, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{store: store, log: log, now: time.Now}
}

func (c *Collector) Report(roomID string, playerCount int, gameStarted bool) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	err := c.store.Put(ctx, RoomInfo{
		ID:          roomID,
		PlayerCount: playerCount,
		GameStarted: gameStarted,
		LastUpdated: c.now(),
	})
	if err != nil {
		c.log.Warn("stats report failed", "room", roomID, "err", err)
	}
}

func (c *Collector) Unregister(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := c.store.Delete(ctx, roomID); err != nil {
		c.log.Warn("stats unregister failed", "room", roomID, "err", err)
	}
}

// Summary is the aggregate served by /api/stats.
type Summary struct {
	ActiveGames  int `json:"activeGames"`
	TotalRooms   int `json:"totalRooms"`
	TotalPlayers int `json:"totalPlayers"`
	RoomsWaiting int `json:"roomsWaiting"`
}

// Summary aggregates the live entries. Rooms that have not reported within
// the staleness window are evicted as they are seen.
func (c *Collector) Summary(ctx context.Context) (Summary, error) {
	infos, err := c.fresh(ctx)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	for _, info := range infos {
		s.TotalRooms++
		s.TotalPlayers += info.PlayerCount
		if info.GameStarted {
			s.ActiveGames++
		} else {
			s.RoomsWaiting++
		}
	}
	return s, nil
}

// ActiveGames lists the rooms with a game in progress, busiest first.
func (c *Collector) ActiveGames(ctx context.Context) ([]RoomInfo, error) {
	infos, err := c.fresh(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RoomInfo, 0, len(infos))
	for _, info := range infos {
		if info.GameStarted {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PlayerCount > out[j].PlayerCount
	})
	return out, nil
}

func (c *Collector) fresh(ctx context.Context) ([]RoomInfo, error) {
	infos, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := c.now().Add(-staleAfter)
	out := infos[:0]
	for _, info := range infos {
		if info.LastUpdated.Before(cutoff) {
			if err := c.store.Delete(ctx, info.ID); err != nil {
				c.log.Warn("stale room eviction failed", "room", info.ID, "err", err)
			}
			continue
		}
		out = append(out, info)
	}
	return out, nil
}
