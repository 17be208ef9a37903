package game

import (
	"encoding/json"
	"time"
)

// MsgType enumerates every message that crosses the WebSocket. Dispatch is a
// single switch over these values; an unknown type is an invalid frame.
type MsgType string

const (
	// server -> client
	MsgGameState    MsgType = "game-state"
	MsgJoin         MsgType = "join"
	MsgLeave        MsgType = "leave"
	MsgDraw         MsgType = "draw"
	MsgGuess        MsgType = "guess"
	MsgRoundPrepare MsgType = "round-prepare"
	MsgWordChoice   MsgType = "word-choice"
	MsgDrawerWord   MsgType = "drawer-word"
	MsgRoundStart   MsgType = "round-start"
	MsgTimerUpdate  MsgType = "timer-update"
	MsgRoundEnd     MsgType = "round-end"
	MsgGameEnd      MsgType = "game-end"
	MsgPlayerBanned MsgType = "player-banned"
	MsgGamePause    MsgType = "game-pause"
)

// Envelope WS envelope: {"type":"...","data":{...},"timestamp":...}
type Envelope struct {
	Type      MsgType         `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func newEnvelope(t MsgType, v any) Envelope {
	return Envelope{Type: t, Data: mustJSON(v), Timestamp: time.Now().UnixMilli()}
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Player is roster state. Score only grows within a game; Connected flips on
// transport open/close while the entry itself survives until Leave or Ban.
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Connected bool   `json:"isConnected"`
}

// ChatMessage is a logged guess attempt. IsCorrect is present only for
// guesses (which is every entry this server produces).
type ChatMessage struct {
	ID        string `json:"id"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	IsGuess   bool   `json:"isGuess"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// ScoreUpdate is one line of the end-of-round summary.
type ScoreUpdate struct {
	PlayerID           string `json:"playerId"`
	PlayerName         string `json:"playerName"`
	PointsEarned       int    `json:"pointsEarned"`
	DrawerID           string `json:"drawerId"`
	DrawerName         string `json:"drawerName"`
	DrawerPointsEarned int    `json:"drawerPointsEarned"`
}

// outbound payloads

type JoinData struct {
	Player      Player `json:"player"`
	IsCreator   bool   `json:"isCreator"`
	GameStarted bool   `json:"gameStarted"`
}

type LeaveData struct {
	PlayerID         string `json:"playerId"`
	NewOwnerID       string `json:"newOwnerId,omitempty"`
	OwnerTransferred bool   `json:"ownerTransferred"`
}

type WordChoiceData struct {
	WordChoices []string `json:"wordChoices"`
	TimeLeft    int64    `json:"timeLeft"` // choice budget in ms, client-enforced
}

type RoundPrepareData struct {
	DrawerID    string `json:"drawerId"`
	RoundNumber int    `json:"roundNumber"`
	MaxRounds   int    `json:"maxRounds"`
}

type RoundStartData struct {
	DrawerID    string `json:"drawerId"`
	TimeLeft    int64  `json:"timeLeft"`
	RoundNumber int    `json:"roundNumber"`
	MaxRounds   int    `json:"maxRounds"`
	WordHint    string `json:"wordHint"`
}

type DrawerWordData struct {
	Word     string `json:"word"`
	TimeLeft int64  `json:"timeLeft"`
}

type TimerUpdateData struct {
	TimeLeft int64 `json:"timeLeft"`
	IsPaused bool  `json:"isPaused"`
}

type RoundEndData struct {
	Word         string        `json:"word"`
	Scores       []Player      `json:"scores"`
	Revealed     bool          `json:"revealed"`
	ScoreUpdates []ScoreUpdate `json:"scoreUpdates"`
}

type FinalScore struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type GameEndData struct {
	Winner      Player       `json:"winner"`
	FinalScores []FinalScore `json:"finalScores"`
	Reason      string       `json:"reason,omitempty"`
}

type PlayerBannedData struct {
	BannedPlayerID   string `json:"bannedPlayerId"`
	BannedPlayerName string `json:"bannedPlayerName"`
}

type GamePauseData struct {
	IsPaused bool `json:"isPaused"`
}
