package game

import (
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultCapacity        = 10
	defaultMaxRounds       = 10
	defaultRoundDuration   = 60 * time.Second
	defaultWordChoiceCount = 3

	minPlayersToStart = 2
	wordChoiceBudget  = 20 * time.Second
	roundGap          = 3 * time.Second  // pause between rounds
	resetGrace        = 10 * time.Second // scores survive this long after game end
	chatTail          = 50

	redactedGuess = "*** guessed correctly! ***"
)

// Config carries the per-room defaults. StartGame settings may override the
// round parameters within their documented ranges.
type Config struct {
	Capacity        int
	MaxRounds       int
	RoundDuration   time.Duration
	WordChoiceCount int
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = defaultMaxRounds
	}
	if c.RoundDuration <= 0 {
		c.RoundDuration = defaultRoundDuration
	}
	if c.WordChoiceCount <= 0 {
		c.WordChoiceCount = defaultWordChoiceCount
	}
	return c
}

// StatsReporter receives fire-and-forget occupancy reports. Calls are
// dispatched outside the room's critical section and failures never reach
// room state.
type StatsReporter interface {
	Report(roomID string, playerCount int, gameStarted bool)
	Unregister(roomID string)
}

// Round is the state of one drawer/word cycle. Word stays empty until the
// drawer has chosen; it is the authoritative secret afterwards.
type Round struct {
	Number       int
	DrawerID     string
	Word         string
	Choices      []string
	TimeLeftMs   int64
	MaxTimeMs    int64
	Guessed      map[string]bool
	ScoreUpdates []ScoreUpdate
}

// Room is the authoritative actor for one game room. Every entry point
// (HTTP call, WebSocket frame, clock tick) takes the mutex, runs to
// completion and queues outbound messages, so clients always observe a
// single serialized history. Rooms never touch each other's state.
type Room struct {
	id string
	mu sync.Mutex

	log     *slog.Logger
	stats   StatsReporter
	rng     *rand.Rand
	cfg     Config
	onEmpty func(roomID string)

	players   []*Player // join order
	conns     map[string]*ClientConn
	creatorID string
	banned    map[string]bool

	defaultBank *WordBank
	bank        *WordBank
	usedWords   map[string]bool

	gameStarted     bool
	paused          bool
	roundNumber     int
	drawerIndex     int
	maxRounds       int
	roundDuration   time.Duration
	wordChoiceCount int

	current *Round
	chat    []ChatMessage

	// clockToken invalidates stale tickers, epoch invalidates stale
	// delayed transitions (round gap, grace reset).
	clockToken int64
	epoch      int64
}

func NewRoom(id string, cfg Config, log *slog.Logger, stats StatsReporter, rng *rand.Rand) *Room {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bank := NewWordBank(rng)
	return &Room{
		id:              id,
		log:             log,
		stats:           stats,
		rng:             rng,
		cfg:             cfg,
		conns:           make(map[string]*ClientConn),
		banned:          make(map[string]bool),
		defaultBank:     bank,
		bank:            bank,
		usedWords:       make(map[string]bool),
		drawerIndex:     -1,
		maxRounds:       cfg.MaxRounds,
		roundDuration:   cfg.RoundDuration,
		wordChoiceCount: cfg.WordChoiceCount,
	}
}

func (r *Room) ID() string { return r.id }

// JoinResult is what a successful join returns to the HTTP caller.
type JoinResult struct {
	PlayerID    string `json:"playerId"`
	Player      Player `json:"player"`
	IsCreator   bool   `json:"isCreator"`
	GameStarted bool   `json:"gameStarted"`
}

// Join adds a player to the roster. The first joiner becomes creator. A
// blank username gets a generated guest name.
func (r *Room) Join(username string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= r.cfg.Capacity {
		return JoinResult{}, ErrRoomFull
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = randomName(r.rng)
	}
	for _, p := range r.players {
		if p.Connected && p.Username == username {
			return JoinResult{}, ErrNameTaken
		}
	}

	p := &Player{ID: uuid.NewString(), Username: username, Connected: true}
	if r.creatorID == "" {
		r.creatorID = p.ID
	}
	r.players = append(r.players, p)

	r.broadcastExceptLocked(newEnvelope(MsgJoin, JoinData{
		Player:      *p,
		IsCreator:   p.ID == r.creatorID,
		GameStarted: r.gameStarted,
	}), p.ID)
	r.reportStatsLocked()

	r.log.Info("player joined", "player", p.ID, "username", p.Username, "players", len(r.players))
	return JoinResult{
		PlayerID:    p.ID,
		Player:      *p,
		IsCreator:   p.ID == r.creatorID,
		GameStarted: r.gameStarted,
	}, nil
}

// Leave removes a player entirely (roster entry and connection).
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findPlayerLocked(playerID) == nil {
		return ErrNotFound
	}

	newOwner := r.removePlayerLocked(playerID)
	r.broadcastLocked(newEnvelope(MsgLeave, LeaveData{
		PlayerID:         playerID,
		NewOwnerID:       newOwner,
		OwnerTransferred: newOwner != "",
	}))

	if r.current != nil && r.current.DrawerID == playerID {
		r.endRoundLocked()
	}
	r.reportStatsLocked()
	r.checkOccupancyLocked()
	return nil
}

// Ban is creator-only and permanent for the room's lifetime: the target is
// removed and its player id can never join or connect again.
func (r *Room) Ban(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.creatorID {
		return ErrForbidden
	}
	if requesterID == targetID {
		return ErrInvalidTarget
	}
	target := r.findPlayerLocked(targetID)
	if target == nil {
		return ErrNotFound
	}

	r.banned[targetID] = true
	name := target.Username
	r.removePlayerLocked(targetID)

	r.broadcastLocked(newEnvelope(MsgPlayerBanned, PlayerBannedData{
		BannedPlayerID:   targetID,
		BannedPlayerName: name,
	}))

	if r.current != nil && r.current.DrawerID == targetID {
		r.endRoundLocked()
	}
	r.reportStatsLocked()
	r.checkOccupancyLocked()

	r.log.Info("player banned", "player", targetID, "by", requesterID)
	return nil
}

// Pause toggles the pause flag. The clock keeps ticking while paused but
// stops decrementing time.
func (r *Room) Pause(playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.creatorID {
		return false, ErrForbidden
	}
	if !r.gameStarted || r.current == nil {
		return false, ErrNoActiveGame
	}

	r.paused = !r.paused
	r.broadcastLocked(newEnvelope(MsgGamePause, GamePauseData{IsPaused: r.paused}))
	return r.paused, nil
}

// StartSettings are the creator's game options. Out-of-range values fall
// back to the room defaults rather than failing the start.
type StartSettings struct {
	MaxRounds       int      `json:"maxRounds"`
	RoundDuration   int      `json:"roundDuration"` // seconds
	WordChoiceCount int      `json:"wordChoiceCount"`
	CustomWords     []string `json:"customWords"`
}

// StartGame validates settings, resets per-game state and begins round 1.
func (r *Room) StartGame(playerID string, s StartSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.creatorID {
		return ErrForbidden
	}
	if r.connectedCountLocked() < minPlayersToStart {
		return ErrNotEnoughPlayers
	}
	if r.gameStarted {
		return ErrAlreadyStarted
	}

	r.applySettingsLocked(s)

	r.gameStarted = true
	r.paused = false
	r.roundNumber = 0
	clear(r.usedWords)
	r.epoch++

	r.reportStatsLocked()
	r.startRoundLocked()

	r.log.Info("game started", "by", playerID,
		"maxRounds", r.maxRounds, "roundDuration", r.roundDuration, "wordChoices", r.wordChoiceCount)
	return nil
}

func (r *Room) applySettingsLocked(s StartSettings) {
	r.maxRounds = r.cfg.MaxRounds
	if s.MaxRounds >= 5 && s.MaxRounds <= 20 {
		r.maxRounds = s.MaxRounds
	}

	r.roundDuration = r.cfg.RoundDuration
	switch s.RoundDuration {
	case 30, 60, 90, 180:
		r.roundDuration = time.Duration(s.RoundDuration) * time.Second
	}

	r.wordChoiceCount = r.cfg.WordChoiceCount
	if s.WordChoiceCount >= 2 && s.WordChoiceCount <= 5 {
		r.wordChoiceCount = s.WordChoiceCount
	}

	r.bank = r.defaultBank
	if len(s.CustomWords) > 0 {
		if custom := NewCustomWordBank(s.CustomWords, r.rng); custom.Size() >= 10 {
			r.bank = custom
		}
	}
}

// Connect attaches a WebSocket to an existing player. Unknown or banned ids
// are rejected; the transport closes with a policy-violation code.
func (r *Room) Connect(playerID string, cc *ClientConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.banned[playerID] {
		return ErrNotFound
	}
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return ErrNotFound
	}

	if old, ok := r.conns[playerID]; ok && old != cc {
		old.Close()
	}
	r.conns[playerID] = cc
	p.Connected = true

	r.sendLocked(cc, newEnvelope(MsgGameState, r.snapshotLocked()))
	r.reportStatsLocked()
	return nil
}

// Disconnect handles a transport close: the player stays on the roster,
// marked disconnected. The conn argument guards against a reconnect having
// already replaced the socket.
func (r *Room) Disconnect(playerID string, cc *ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[playerID] != cc {
		return // superseded by a reconnect
	}
	delete(r.conns, playerID)

	p := r.findPlayerLocked(playerID)
	if p == nil {
		return
	}
	p.Connected = false

	newOwner := ""
	if playerID == r.creatorID {
		if next := r.firstConnectedLocked(playerID); next != nil {
			r.creatorID = next.ID
			newOwner = next.ID
		}
	}
	r.broadcastLocked(newEnvelope(MsgLeave, LeaveData{
		PlayerID:         playerID,
		NewOwnerID:       newOwner,
		OwnerTransferred: newOwner != "",
	}))

	if r.current != nil && r.current.DrawerID == playerID {
		r.endRoundLocked()
	}
	r.reportStatsLocked()
	r.checkOccupancyLocked()
}

// Snapshot returns the public room state (secret word withheld).
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// removePlayerLocked drops the player from roster and connection map and
// transfers ownership if needed. Returns the new owner id, if any.
func (r *Room) removePlayerLocked(playerID string) string {
	if cc, ok := r.conns[playerID]; ok {
		cc.Close()
		delete(r.conns, playerID)
	}

	newOwner := ""
	if playerID == r.creatorID {
		if next := r.firstConnectedLocked(playerID); next != nil {
			r.creatorID = next.ID
			newOwner = next.ID
		} else {
			r.creatorID = ""
		}
	}

	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	return newOwner
}

// checkOccupancyLocked applies the empty/near-empty room policy after any
// membership change.
func (r *Room) checkOccupancyLocked() {
	switch n := r.connectedCountLocked(); {
	case n == 0:
		r.stopClockLocked()
		r.current = nil
		r.gameStarted = false
		r.paused = false
		r.roundNumber = 0
		r.drawerIndex = -1
		for _, p := range r.players {
			p.Score = 0
		}
		r.epoch++
		if r.stats != nil {
			go r.stats.Unregister(r.id)
		}
		if r.onEmpty != nil {
			go r.onEmpty(r.id)
		}
		r.log.Info("room emptied, state reset")

	case n == 1 && r.gameStarted:
		r.endGameLocked(r.firstConnectedLocked(""), "Only one player remaining")
	}
}

// scheduleResetLocked arms the post-game grace period after which scores,
// rotation and the started flag are cleared for a fresh game.
func (r *Room) scheduleResetLocked() {
	epoch := r.epoch
	time.AfterFunc(resetGrace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch != epoch {
			return
		}
		for _, p := range r.players {
			p.Score = 0
		}
		r.drawerIndex = -1
		r.roundNumber = 0
		r.gameStarted = false
		r.paused = false
	})
}

func (r *Room) reportStatsLocked() {
	if r.stats == nil {
		return
	}
	n, started := r.connectedCountLocked(), r.gameStarted
	go r.stats.Report(r.id, n, started)
}

// roster helpers

func (r *Room) findPlayerLocked(playerID string) *Player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) connectedPlayersLocked() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) connectedCountLocked() int {
	return len(r.connectedPlayersLocked())
}

// firstConnectedLocked returns the earliest-joined connected player,
// skipping the given id.
func (r *Room) firstConnectedLocked(skipID string) *Player {
	for _, p := range r.players {
		if p.Connected && p.ID != skipID {
			return p
		}
	}
	return nil
}

func (r *Room) finalScoresLocked() []FinalScore {
	sorted := make([]*Player, len(r.players))
	copy(sorted, r.players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	out := make([]FinalScore, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, FinalScore{Username: p.Username, Score: p.Score})
	}
	return out
}

// messaging helpers; sends are non-blocking, a slow or closed peer drops
// its copy without affecting the others

func (r *Room) sendLocked(cc *ClientConn, env Envelope) {
	if cc == nil {
		return
	}
	b := mustJSON(env)
	select {
	case cc.send <- b:
	default:
	}
}

func (r *Room) sendToLocked(playerID string, env Envelope) {
	r.sendLocked(r.conns[playerID], env)
}

func (r *Room) broadcastLocked(env Envelope) {
	for _, cc := range r.conns {
		r.sendLocked(cc, env)
	}
}

func (r *Room) broadcastExceptLocked(env Envelope, exceptID string) {
	for id, cc := range r.conns {
		if id != exceptID {
			r.sendLocked(cc, env)
		}
	}
}

func (r *Room) appendChatLocked(msg ChatMessage) {
	r.chat = append(r.chat, msg)
	if len(r.chat) > chatTail {
		r.chat = r.chat[len(r.chat)-chatTail:]
	}
}
