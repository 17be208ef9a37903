package game

// RoundSnapshot is the public view of the current round. The secret word is
// never included; guessers get the letter hint through round-start instead.
type RoundSnapshot struct {
	RoundNumber      int      `json:"roundNumber"`
	DrawerID         string   `json:"drawerId"`
	TimeLeft         int64    `json:"timeLeft"`
	MaxTime          int64    `json:"maxTime"`
	GuessedPlayerIDs []string `json:"guessedPlayerIds"`
}

// Snapshot is the catch-up state sent on connect and served over HTTP.
type Snapshot struct {
	RoomID             string         `json:"roomId"`
	Players            []Player       `json:"players"`
	CurrentRound       *RoundSnapshot `json:"currentRound"`
	CurrentRoundNumber int            `json:"currentRoundNumber"`
	MaxRounds          int            `json:"maxRounds"`
	GameStarted        bool           `json:"gameStarted"`
	IsPaused           bool           `json:"isPaused"`
	ChatMessages       []ChatMessage  `json:"chatMessages"`
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected {
			players = append(players, *p)
		}
	}

	var round *RoundSnapshot
	if r.current != nil {
		guessed := make([]string, 0, len(r.current.Guessed))
		for id := range r.current.Guessed {
			guessed = append(guessed, id)
		}
		round = &RoundSnapshot{
			RoundNumber:      r.current.Number,
			DrawerID:         r.current.DrawerID,
			TimeLeft:         r.current.TimeLeftMs,
			MaxTime:          r.current.MaxTimeMs,
			GuessedPlayerIDs: guessed,
		}
	}

	chat := make([]ChatMessage, len(r.chat))
	copy(chat, r.chat)

	return Snapshot{
		RoomID:             r.id,
		Players:            players,
		CurrentRound:       round,
		CurrentRoundNumber: r.roundNumber,
		MaxRounds:          r.maxRounds,
		GameStarted:        r.gameStarted,
		IsPaused:           r.paused,
		ChatMessages:       chat,
	}
}
