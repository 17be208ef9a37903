package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// currentRound reads the drawer and candidates of the round in progress.
func currentRound(t *testing.T, r *Room) (string, []string) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotNil(t, r.current)
	return r.current.DrawerID, append([]string(nil), r.current.Choices...)
}

// startedGame wires a three player room with a chosen word. The creator is
// the first drawer by rotation order.
func startedGame(t *testing.T, r *Room) (drawer string, word string, conns map[string]*ClientConn) {
	t.Helper()
	conns = make(map[string]*ClientConn)
	alice, c1 := joinConnected(t, r, "Alice")
	bob, c2 := joinConnected(t, r, "Bob")
	charlie, c3 := joinConnected(t, r, "Charlie")
	conns[alice], conns[bob], conns[charlie] = c1, c2, c3

	require.NoError(t, r.StartGame(alice, StartSettings{}))
	drawerID, choices := currentRound(t, r)
	require.Equal(t, alice, drawerID)
	require.NoError(t, r.WordChoice(drawerID, choices[0]))

	for _, c := range conns {
		readEnvelopesNonBlocking(c)
	}
	return drawerID, choices[0], conns
}

func TestRound_Selection(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "drawer gets word choices, others get round-prepare",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				alice, c1 := joinConnected(t, r, "Alice")
				_, c2 := joinConnected(t, r, "Bob")
				readEnvelopesNonBlocking(c1)
				readEnvelopesNonBlocking(c2)

				require.NoError(t, r.StartGame(alice, StartSettings{}))

				drawerEnvs := readEnvelopesNonBlocking(c1)
				env, ok := findLast(drawerEnvs, MsgWordChoice)
				require.True(t, ok)
				var wc WordChoiceData
				require.NoError(t, json.Unmarshal(env.Data, &wc))
				assert.Len(t, wc.WordChoices, defaultWordChoiceCount)
				assert.Equal(t, int64(20000), wc.TimeLeft)

				_, ok = findLast(drawerEnvs, MsgRoundPrepare)
				assert.False(t, ok, "drawer should not get round-prepare")

				otherEnvs := readEnvelopesNonBlocking(c2)
				env, ok = findLast(otherEnvs, MsgRoundPrepare)
				require.True(t, ok)
				var rp RoundPrepareData
				require.NoError(t, json.Unmarshal(env.Data, &rp))
				assert.Equal(t, alice, rp.DrawerID)
				assert.Equal(t, 1, rp.RoundNumber)

				_, ok = findLast(otherEnvs, MsgWordChoice)
				assert.False(t, ok, "guesser should not see the candidates")
			},
		},
		{
			name: "only the drawer may choose, only from the candidates",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				alice, _ := joinConnected(t, r, "Alice")
				bob, _ := joinConnected(t, r, "Bob")
				require.NoError(t, r.StartGame(alice, StartSettings{}))

				drawerID, choices := currentRound(t, r)
				require.Equal(t, alice, drawerID)

				require.ErrorIs(t, r.WordChoice(bob, choices[0]), ErrInvalidChoice)
				require.ErrorIs(t, r.WordChoice(alice, "not-a-candidate"), ErrInvalidChoice)
				require.NoError(t, r.WordChoice(alice, choices[0]))
				require.ErrorIs(t, r.WordChoice(alice, choices[1]), ErrInvalidChoice)
			},
		},
		{
			name: "choice starts the round with hint and drawer word",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				alice, c1 := joinConnected(t, r, "Alice")
				_, c2 := joinConnected(t, r, "Bob")
				require.NoError(t, r.StartGame(alice, StartSettings{}))
				readEnvelopesNonBlocking(c1)
				readEnvelopesNonBlocking(c2)

				_, choices := currentRound(t, r)
				word := choices[0]
				require.NoError(t, r.WordChoice(alice, word))

				envs := readEnvelopesNonBlocking(c2)
				env, ok := findLast(envs, MsgRoundStart)
				require.True(t, ok)
				var rs RoundStartData
				require.NoError(t, json.Unmarshal(env.Data, &rs))
				assert.Equal(t, maskWord(word), rs.WordHint)
				assert.NotContains(t, rs.WordHint, word)

				drawerEnvs := readEnvelopesNonBlocking(c1)
				env, ok = findLast(drawerEnvs, MsgDrawerWord)
				require.True(t, ok)
				var dw DrawerWordData
				require.NoError(t, json.Unmarshal(env.Data, &dw))
				assert.Equal(t, word, dw.Word)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestRound_Guessing(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "correct guess scores guesser and drawer",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				drawer, word, _ := startedGame(t, r)

				r.mu.Lock()
				var guesser string
				for _, p := range r.players {
					if p.ID != drawer {
						guesser = p.ID
						break
					}
				}
				r.mu.Unlock()

				r.Guess(guesser, word)

				r.mu.Lock()
				defer r.mu.Unlock()
				assert.Equal(t, 160, r.findPlayerLocked(guesser).Score) // 100 + full time bonus
				assert.Equal(t, 50, r.findPlayerLocked(drawer).Score)
				assert.True(t, r.current.Guessed[guesser])
				require.Len(t, r.current.ScoreUpdates, 1)
				assert.Equal(t, 160, r.current.ScoreUpdates[0].PointsEarned)
				assert.Equal(t, 50, r.current.ScoreUpdates[0].DrawerPointsEarned)
			},
		},
		{
			name: "wrong guess is broadcast verbatim",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				drawer, _, conns := startedGame(t, r)

				var guesser string
				for id := range conns {
					if id != drawer {
						guesser = id
						break
					}
				}

				r.Guess(guesser, "definitely wrong")

				for id, c := range conns {
					env, ok := findLast(readEnvelopesNonBlocking(c), MsgGuess)
					require.True(t, ok, "no guess message for %s", id)
					var msg ChatMessage
					require.NoError(t, json.Unmarshal(env.Data, &msg))
					assert.Equal(t, "definitely wrong", msg.Message)
					require.NotNil(t, msg.IsCorrect)
					assert.False(t, *msg.IsCorrect)
				}
			},
		},
		{
			name: "correct guess is redacted for players still guessing",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				drawer, word, conns := startedGame(t, r)

				var guesser, bystander string
				for id := range conns {
					if id == drawer {
						continue
					}
					if guesser == "" {
						guesser = id
					} else {
						bystander = id
					}
				}

				r.Guess(guesser, word)

				for id, c := range conns {
					env, ok := findLast(readEnvelopesNonBlocking(c), MsgGuess)
					require.True(t, ok)
					var msg ChatMessage
					require.NoError(t, json.Unmarshal(env.Data, &msg))
					require.NotNil(t, msg.IsCorrect)
					assert.True(t, *msg.IsCorrect)
					if id == bystander {
						assert.Equal(t, redactedGuess, msg.Message)
					} else {
						assert.Equal(t, word, msg.Message)
					}
				}
			},
		},
		{
			name: "drawer and solved players cannot guess again",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				drawer, word, _ := startedGame(t, r)

				r.mu.Lock()
				var guesser string
				for _, p := range r.players {
					if p.ID != drawer {
						guesser = p.ID
						break
					}
				}
				r.mu.Unlock()

				r.Guess(drawer, word) // ignored
				r.Guess(guesser, word)
				r.Guess(guesser, word) // already solved, ignored

				r.mu.Lock()
				defer r.mu.Unlock()
				assert.Equal(t, 160, r.findPlayerLocked(guesser).Score)
				assert.Equal(t, 50, r.findPlayerLocked(drawer).Score)
				assert.Len(t, r.chat, 1)
			},
		},
		{
			name: "chat tail and snapshot never carry the live word",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				drawer, word, _ := startedGame(t, r)

				r.mu.Lock()
				var guesser string
				for _, p := range r.players {
					if p.ID != drawer {
						guesser = p.ID
						break
					}
				}
				r.mu.Unlock()

				r.Guess(guesser, word)

				// the round is still live, the third player has not solved it
				snap := r.Snapshot()
				require.NotNil(t, snap.CurrentRound)
				require.NotEmpty(t, snap.ChatMessages)
				for _, m := range snap.ChatMessages {
					assert.NotEqual(t, word, m.Message)
				}
				last := snap.ChatMessages[len(snap.ChatMessages)-1]
				assert.Equal(t, redactedGuess, last.Message)
				require.NotNil(t, last.IsCorrect)
				assert.True(t, *last.IsCorrect)
			},
		},
		{
			name: "round ends when every guesser has solved the word",
			run: func(t *testing.T) {
				r := newTestRoom(Config{})
				alice, c1 := joinConnected(t, r, "Alice")
				bob, _ := joinConnected(t, r, "Bob")
				require.NoError(t, r.StartGame(alice, StartSettings{}))

				_, choices := currentRound(t, r)
				word := choices[0]
				require.NoError(t, r.WordChoice(alice, word))
				readEnvelopesNonBlocking(c1)

				r.Guess(bob, word)

				envs := readEnvelopesNonBlocking(c1)
				env, ok := findLast(envs, MsgRoundEnd)
				require.True(t, ok)
				var re RoundEndData
				require.NoError(t, json.Unmarshal(env.Data, &re))
				assert.Equal(t, word, re.Word)
				assert.True(t, re.Revealed)
				require.Len(t, re.ScoreUpdates, 1)

				r.mu.Lock()
				defer r.mu.Unlock()
				assert.Nil(t, r.current)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestRound_DrawRelay(t *testing.T) {
	r := newTestRoom(Config{})
	drawer, _, conns := startedGame(t, r)

	frame := json.RawMessage(`{"x":1,"y":2,"type":"line"}`)
	require.NoError(t, r.Draw(drawer, frame))

	for id, c := range conns {
		env, ok := findLast(readEnvelopesNonBlocking(c), MsgDraw)
		if id == drawer {
			assert.False(t, ok, "drawer should not get an echo")
			continue
		}
		require.True(t, ok)
		assert.JSONEq(t, string(frame), string(env.Data))
	}

	var guesser string
	for id := range conns {
		if id != drawer {
			guesser = id
			break
		}
	}
	require.ErrorIs(t, r.Draw(guesser, frame), ErrForbidden)
}

func TestRound_ClockTick(t *testing.T) {
	r := newTestRoom(Config{})
	drawer, _, conns := startedGame(t, r)
	_ = drawer

	r.mu.Lock()
	token := r.clockToken
	before := r.current.TimeLeftMs
	r.mu.Unlock()

	require.True(t, r.tick(token))

	r.mu.Lock()
	assert.Equal(t, before-1000, r.current.TimeLeftMs)
	r.mu.Unlock()

	// pause freezes the countdown but keeps ticking
	creator := drawer
	_, err := r.Pause(creator)
	require.NoError(t, err)
	require.True(t, r.tick(token))

	r.mu.Lock()
	assert.Equal(t, before-1000, r.current.TimeLeftMs)
	r.mu.Unlock()

	for _, c := range conns {
		readEnvelopesNonBlocking(c)
	}

	// stale token stops the clock goroutine
	r.mu.Lock()
	r.stopClockLocked()
	stale := token
	r.mu.Unlock()
	assert.False(t, r.tick(stale))
}

func TestRound_DrawerLeavingEndsRound(t *testing.T) {
	r := newTestRoom(Config{})
	drawer, _, conns := startedGame(t, r)

	require.NoError(t, r.Leave(drawer))

	var other *ClientConn
	for id, c := range conns {
		if id != drawer {
			other = c
			break
		}
	}
	envs := readEnvelopesNonBlocking(other)
	_, ok := findLast(envs, MsgRoundEnd)
	assert.True(t, ok)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Nil(t, r.current)
}

func TestRound_DrawerRotation(t *testing.T) {
	r := newTestRoom(Config{})
	alice, _ := joinConnected(t, r, "Alice")
	bob, cBob := joinConnected(t, r, "Bob")
	charlie, _ := joinConnected(t, r, "Charlie")
	require.NoError(t, r.StartGame(alice, StartSettings{}))

	drawerNow := func() string {
		r.mu.Lock()
		defer r.mu.Unlock()
		require.NotNil(t, r.current)
		return r.current.DrawerID
	}
	nextRound := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.endRoundLocked()
		r.startRoundLocked()
	}

	// two full rotations over a fixed roster of three
	counts := map[string]int{drawerNow(): 1}
	for i := 0; i < 5; i++ {
		nextRound()
		counts[drawerNow()]++
	}
	assert.Equal(t, map[string]int{alice: 2, bob: 2, charlie: 2}, counts)

	// a disconnected player is skipped for every future turn
	r.mu.Lock()
	r.endRoundLocked()
	r.mu.Unlock()
	r.Disconnect(bob, cBob)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		r.mu.Lock()
		r.startRoundLocked()
		require.NotNil(t, r.current)
		assert.NotEqual(t, bob, r.current.DrawerID)
		seen[r.current.DrawerID] = true
		r.endRoundLocked()
		r.mu.Unlock()
	}
	assert.True(t, seen[alice])
	assert.True(t, seen[charlie])
}

func TestRound_WordsNotRepeatedWithinGame(t *testing.T) {
	r := newTestRoom(Config{})
	alice, _ := joinConnected(t, r, "Alice")
	joinConnected(t, r, "Bob")
	require.NoError(t, r.StartGame(alice, StartSettings{}))

	_, first := currentRound(t, r)

	r.mu.Lock()
	for _, w := range first {
		assert.True(t, r.usedWords[normalizeWord(w)], "candidate %q not marked used", w)
	}
	r.endRoundLocked()
	r.startRoundLocked()
	r.mu.Unlock()

	_, second := currentRound(t, r)
	for _, w := range second {
		assert.NotContains(t, first, w)
	}
}
