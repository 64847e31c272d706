package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCards = []string{"Dragon", "Wizard", "Robot"}

func startedRoom(t *testing.T, names ...string) *Room {
	t.Helper()
	room := newRoomWith(t, names...)
	require.NoError(t, room.Start(names[0], 2, testCards))
	return room
}

func TestStart(t *testing.T) {
	t.Run("host starts with enough players", func(t *testing.T) {
		room := newRoomWith(t, "H", "Bob")
		require.NoError(t, room.Start("H", 2, testCards))

		assert.Equal(t, PhasePicking, room.Phase)
		assert.Equal(t, 1, room.Round)
		assert.Equal(t, "H", room.TurnHolder().Name)
		assert.Equal(t, testCards, room.Cards)
		assert.Empty(t, room.Secret)
		assert.Empty(t, room.Guesses)
	})

	tests := []struct {
		name      string
		players   []string
		requester string
		phase     Phase
		wantErr   error
	}{
		{"non-host", []string{"H", "Bob"}, "Bob", PhaseWaiting, ErrNotHost},
		{"too few players", []string{"H"}, "H", PhaseWaiting, ErrNotEnoughPlayers},
		{"already started", []string{"H", "Bob"}, "H", PhaseGuessing, ErrWrongPhase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := newRoomWith(t, tt.players...)
			room.Phase = tt.phase

			err := room.Start(tt.requester, 2, testCards)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.phase, room.Phase)
			assert.Equal(t, 0, room.Round)
		})
	}
}

func TestPick(t *testing.T) {
	t.Run("turn holder picks an offered card", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob")
		require.NoError(t, room.Pick("H", "Dragon"))

		assert.Equal(t, PhaseGuessing, room.Phase)
		assert.Equal(t, "Dragon", room.Secret)
	})

	tests := []struct {
		name      string
		requester string
		card      string
		wantErr   error
	}{
		{"other player", "Bob", "Dragon", ErrNotYourTurn},
		{"card not offered", "H", "Toaster", ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := startedRoom(t, "H", "Bob")
			err := room.Pick(tt.requester, tt.card)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, PhasePicking, room.Phase)
			assert.Empty(t, room.Secret)
			assert.Equal(t, testCards, room.Cards)
		})
	}

	t.Run("wrong phase", func(t *testing.T) {
		room := newRoomWith(t, "H", "Bob")
		assert.ErrorIs(t, room.Pick("H", "Dragon"), ErrWrongPhase)
	})
}

func TestAddGuess(t *testing.T) {
	room := startedRoom(t, "H", "Bob", "Cid")
	require.NoError(t, room.Pick("H", "Dragon"))

	t0 := time.Now()
	require.NoError(t, room.AddGuess("Bob", "Wizard", t0))
	require.NoError(t, room.AddGuess("Bob", "Wizard", t0.Add(time.Second)))
	require.NoError(t, room.AddGuess("Cid", "Lizard", t0))

	assert.Equal(t, []Guess{
		{Text: "Wizard", SubmittedAt: t0},
		{Text: "Wizard", SubmittedAt: t0.Add(time.Second)},
	}, room.Guesses["Bob"])
	assert.Len(t, room.Guesses["Cid"], 1)

	assert.ErrorIs(t, room.AddGuess("H", "Dragon", t0), ErrNotYourTurn)
	assert.ErrorIs(t, room.AddGuess("Zed", "x", t0), ErrPlayerNotFound)
	assert.NotContains(t, room.Guesses, "H")
	assert.Equal(t, PhaseGuessing, room.Phase)

	picking := startedRoom(t, "H", "Bob")
	assert.ErrorIs(t, picking.AddGuess("Bob", "x", t0), ErrWrongPhase)
}

func TestAllGuessed(t *testing.T) {
	room := startedRoom(t, "H", "Bob", "Cid")
	require.NoError(t, room.Pick("H", "Dragon"))

	assert.False(t, room.AllGuessed())
	require.NoError(t, room.AddGuess("Bob", "a", time.Now()))
	assert.False(t, room.AllGuessed())
	require.NoError(t, room.AddGuess("Cid", "b", time.Now()))
	assert.True(t, room.AllGuessed())

	solo := startedRoom(t, "H", "Bob")
	_, err := solo.RemovePlayer("Bob")
	require.NoError(t, err)
	assert.False(t, solo.AllGuessed(), "no guessers means nobody has guessed")
}

func TestBeginAndApplyReveal(t *testing.T) {
	room := startedRoom(t, "H", "Bob", "Cid")
	require.NoError(t, room.Pick("H", "Dragon"))
	room.ArmTimer(hour, func(uint64) {})
	require.NoError(t, room.AddGuess("Cid", "wyvern", time.Now()))

	job, err := room.BeginReveal()
	require.NoError(t, err)

	assert.Equal(t, PhaseRevealing, room.Phase)
	assert.True(t, room.Scoring)
	assert.Nil(t, room.ActiveTimer())
	assert.Equal(t, "Dragon", job.Secret)
	assert.Equal(t, room.Round, job.Round)
	assert.Equal(t, []string{"H", "Bob", "Cid"}, job.Order)
	assert.Equal(t, map[string][]string{"Cid": {"wyvern"}}, job.Texts())

	// The snapshot is independent of later room mutation
	room.Guesses["Cid"][0].Text = "changed"
	assert.Equal(t, "wyvern", job.Guesses["Cid"][0].Text)

	_, err = room.BeginReveal()
	assert.ErrorIs(t, err, ErrWrongPhase)

	assert.False(t, room.ApplyReveal(&Reveal{Round: job.Round + 1}), "result for another round")
	assert.True(t, room.ApplyReveal(&Reveal{Round: job.Round, CorrectAnswer: "Dragon"}))
	assert.False(t, room.Scoring)
	assert.Equal(t, "Dragon", room.Result.CorrectAnswer)
	assert.False(t, room.ApplyReveal(&Reveal{Round: job.Round}), "already applied")
}

func TestApplyRevealAfterRestartOrClose(t *testing.T) {
	t.Run("turn restarted", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob")
		require.NoError(t, room.Pick("H", "Dragon"))
		job, err := room.BeginReveal()
		require.NoError(t, err)

		room.RestartTurn(testCards)
		assert.False(t, room.ApplyReveal(&Reveal{Round: job.Round}))
		assert.Equal(t, PhasePicking, room.Phase)
	})

	t.Run("closed", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob")
		require.NoError(t, room.Pick("H", "Dragon"))
		job, err := room.BeginReveal()
		require.NoError(t, err)

		room.Close()
		assert.False(t, room.ApplyReveal(&Reveal{Round: job.Round}))
	})
}

func TestAdvance(t *testing.T) {
	reveal := func(room *Room) {
		t.Helper()
		holder := room.TurnHolder().Name
		require.NoError(t, room.Pick(holder, room.Cards[0]))
		job, err := room.BeginReveal()
		require.NoError(t, err)
		require.True(t, room.ApplyReveal(&Reveal{Round: job.Round}))
	}

	t.Run("wraps modulo player count", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob", "Cid")
		holders := []string{}
		for i := 0; i < 4; i++ {
			holders = append(holders, room.TurnHolder().Name)
			reveal(room)
			require.NoError(t, room.Advance(room.TurnHolder().Name, testCards))
		}
		assert.Equal(t, []string{"H", "Bob", "Cid", "H"}, holders)
		assert.Equal(t, 5, room.Round)
	})

	t.Run("host may advance", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob", "Cid")
		reveal(room)
		require.NoError(t, room.Advance("H", testCards))
		reveal(room)
		require.NoError(t, room.Advance("H", testCards))
		assert.Equal(t, "Cid", room.TurnHolder().Name)
	})

	t.Run("rejections", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob", "Cid")
		assert.ErrorIs(t, room.Advance("H", testCards), ErrWrongPhase)

		require.NoError(t, room.Pick("H", "Dragon"))
		_, err := room.BeginReveal()
		require.NoError(t, err)
		assert.ErrorIs(t, room.Advance("H", testCards), ErrWrongPhase, "still scoring")

		room.Scoring = false
		assert.ErrorIs(t, room.Advance("Bob", testCards), ErrNotYourTurn)
		assert.ErrorIs(t, room.Advance("Zed", testCards), ErrPlayerNotFound)
	})

	t.Run("clears round state", func(t *testing.T) {
		room := startedRoom(t, "H", "Bob")
		require.NoError(t, room.Pick("H", "Dragon"))
		require.NoError(t, room.AddGuess("Bob", "x", time.Now()))
		job, err := room.BeginReveal()
		require.NoError(t, err)
		require.True(t, room.ApplyReveal(&Reveal{Round: job.Round}))

		require.NoError(t, room.Advance("H", []string{"Robot"}))
		assert.Equal(t, PhasePicking, room.Phase)
		assert.Empty(t, room.Secret)
		assert.Empty(t, room.Guesses)
		assert.Nil(t, room.Result)
		assert.Equal(t, []string{"Robot"}, room.Cards)
	})
}
