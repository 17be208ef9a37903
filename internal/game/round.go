package game

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// startRoundLocked advances the drawer rotation and enters word selection.
// Caller guarantees at least two connected players.
func (r *Room) startRoundLocked() {
	connected := r.connectedPlayersLocked()
	if len(connected) < minPlayersToStart {
		return
	}

	r.drawerIndex = (r.drawerIndex + 1) % len(connected)
	drawer := connected[r.drawerIndex]
	r.roundNumber++

	if r.bank.Remaining(r.usedWords) < r.wordChoiceCount {
		clear(r.usedWords)
	}
	choices := r.bank.Choices(r.wordChoiceCount, r.usedWords)
	for _, w := range choices {
		r.usedWords[normalizeWord(w)] = true
	}

	durMs := r.roundDuration.Milliseconds()
	r.current = &Round{
		Number:     r.roundNumber,
		DrawerID:   drawer.ID,
		Choices:    choices,
		TimeLeftMs: durMs,
		MaxTimeMs:  durMs,
		Guessed:    make(map[string]bool),
	}

	r.sendToLocked(drawer.ID, newEnvelope(MsgWordChoice, WordChoiceData{
		WordChoices: choices,
		TimeLeft:    wordChoiceBudget.Milliseconds(),
	}))
	r.broadcastExceptLocked(newEnvelope(MsgRoundPrepare, RoundPrepareData{
		DrawerID:    drawer.ID,
		RoundNumber: r.roundNumber,
		MaxRounds:   r.maxRounds,
	}), drawer.ID)

	r.log.Info("round started", "round", r.roundNumber, "drawer", drawer.ID)
}

// WordChoice commits the drawer's pick and starts the drawing phase. Only
// the current drawer may choose, only once, and only from the offered
// candidates.
func (r *Room) WordChoice(playerID, word string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.DrawerID != playerID || r.current.Word != "" {
		return ErrInvalidChoice
	}
	if !slices.Contains(r.current.Choices, word) {
		return ErrInvalidChoice
	}

	r.current.Word = word

	r.broadcastLocked(newEnvelope(MsgRoundStart, RoundStartData{
		DrawerID:    playerID,
		TimeLeft:    r.current.TimeLeftMs,
		RoundNumber: r.current.Number,
		MaxRounds:   r.maxRounds,
		WordHint:    maskWord(word),
	}))
	r.sendToLocked(playerID, newEnvelope(MsgDrawerWord, DrawerWordData{
		Word:     word,
		TimeLeft: r.current.TimeLeftMs,
	}))

	r.startClockLocked()
	return nil
}

// Draw relays a canvas frame from the drawer to everyone else. The payload
// is opaque to the server.
func (r *Room) Draw(playerID string, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.DrawerID != playerID {
		return ErrForbidden
	}
	r.broadcastExceptLocked(Envelope{
		Type:      MsgDraw,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}, playerID)
	return nil
}

// Guess processes a chat guess. Guesses from the drawer or from players who
// already solved the word are dropped silently. Correct guesses are scored,
// logged and redacted for everyone who doesn't already know the word.
func (r *Room) Guess(playerID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.Word == "" {
		return
	}
	if playerID == r.current.DrawerID || r.current.Guessed[playerID] {
		return
	}
	p := r.findPlayerLocked(playerID)
	if p == nil {
		return
	}

	correct := r.bank.Matches(text, r.current.Word)
	msg := ChatMessage{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Username:  p.Username,
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
		IsGuess:   true,
		IsCorrect: &correct,
	}

	if correct {
		r.current.Guessed[playerID] = true

		points := 100 + int(r.current.TimeLeftMs/1000)
		p.Score += points

		drawerName := ""
		if drawer := r.findPlayerLocked(r.current.DrawerID); drawer != nil {
			drawer.Score += 50
			drawerName = drawer.Username
		}
		r.current.ScoreUpdates = append(r.current.ScoreUpdates, ScoreUpdate{
			PlayerID:           playerID,
			PlayerName:         p.Username,
			PointsEarned:       points,
			DrawerID:           r.current.DrawerID,
			DrawerName:         drawerName,
			DrawerPointsEarned: 50,
		})
		r.log.Info("correct guess", "player", playerID, "points", points)
	}

	// The chat ring is replayed to anyone who connects later, so a correct
	// guess is logged with the marker, never the word itself.
	logged := msg
	if correct {
		logged.Message = redactedGuess
	}
	r.appendChatLocked(logged)

	// Correct guesses show their text only to players who already know the
	// word; everyone else sees a redaction marker.
	for recvID, cc := range r.conns {
		out := msg
		if correct && recvID != r.current.DrawerID && !r.current.Guessed[recvID] {
			out.Message = redactedGuess
		}
		r.sendLocked(cc, newEnvelope(MsgGuess, out))
	}

	if correct && r.allGuessedLocked() {
		r.endRoundLocked()
	}
}

// allGuessedLocked reports whether every connected non-drawer has solved the
// current word.
func (r *Room) allGuessedLocked() bool {
	n := 0
	for _, p := range r.players {
		if !p.Connected || p.ID == r.current.DrawerID {
			continue
		}
		if !r.current.Guessed[p.ID] {
			return false
		}
		n++
	}
	return n > 0
}

// clock

func (r *Room) startClockLocked() {
	r.clockToken++
	token := r.clockToken
	go r.runClock(token)
}

func (r *Room) stopClockLocked() {
	r.clockToken++
}

func (r *Room) runClock(token int64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if !r.tick(token) {
			return
		}
	}
}

// tick applies one second of round time. Returns false once this clock is
// stale and its goroutine should exit.
func (r *Room) tick(token int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.clockToken {
		return false
	}
	if r.current == nil || r.current.Word == "" {
		return false
	}

	if r.paused {
		r.broadcastLocked(newEnvelope(MsgTimerUpdate, TimerUpdateData{
			TimeLeft: r.current.TimeLeftMs,
			IsPaused: true,
		}))
		return true
	}

	r.current.TimeLeftMs -= 1000
	r.broadcastLocked(newEnvelope(MsgTimerUpdate, TimerUpdateData{
		TimeLeft: r.current.TimeLeftMs,
	}))

	if r.current.TimeLeftMs <= 0 {
		r.endRoundLocked()
		return false
	}
	return true
}

// endRoundLocked reveals the word, publishes the round summary and arms the
// gap before the next round (or the game end).
func (r *Room) endRoundLocked() {
	if r.current == nil {
		return
	}
	r.stopClockLocked()

	word := r.current.Word
	if word == "" {
		word = "???" // drawer left before choosing
	}
	r.broadcastLocked(newEnvelope(MsgRoundEnd, RoundEndData{
		Word:         word,
		Scores:       r.playersCopyLocked(),
		Revealed:     true,
		ScoreUpdates: r.current.ScoreUpdates,
	}))
	r.current = nil

	lastRound := r.roundNumber >= r.maxRounds
	epoch := r.epoch
	time.AfterFunc(roundGap, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch != epoch || !r.gameStarted {
			return
		}
		if lastRound {
			r.endGameLocked(nil, "")
			return
		}
		if r.connectedCountLocked() >= minPlayersToStart {
			r.startRoundLocked()
		}
	})

	r.log.Info("round ended", "round", r.roundNumber, "word", word)
}

// endGameLocked publishes the final standings. A nil winner means highest
// score wins; forced endings pass the survivor explicitly.
func (r *Room) endGameLocked(winner *Player, reason string) {
	finals := r.finalScoresLocked()
	if winner == nil {
		top := FinalScore{}
		if len(finals) > 0 {
			top = finals[0]
		}
		for _, p := range r.players {
			if p.Username == top.Username && p.Score == top.Score {
				winner = p
				break
			}
		}
	}
	if winner == nil {
		winner = &Player{}
	}

	r.broadcastLocked(newEnvelope(MsgGameEnd, GameEndData{
		Winner:      *winner,
		FinalScores: finals,
		Reason:      reason,
	}))

	r.stopClockLocked()
	r.current = nil
	r.paused = false
	r.epoch++
	r.reportStatsLocked()
	r.scheduleResetLocked()

	r.log.Info("game ended", "winner", winner.ID, "rounds", r.roundNumber)
}

func (r *Room) playersCopyLocked() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out
}
