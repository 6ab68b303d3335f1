package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- GameKind Tests ---

func TestParseGameKind(t *testing.T) {
	for _, k := range AllGameKinds() {
		t.Run(string(k), func(t *testing.T) {
			got, err := ParseGameKind(string(k))
			require.NoError(t, err)
			assert.Equal(t, k, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseGameKind("craps")
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidSelection))
	})
}

func TestGameKind_Stateful(t *testing.T) {
	assert.True(t, KindBlackjack.Stateful())
	assert.True(t, KindMines.Stateful())
	assert.False(t, KindSlots.Stateful())
	assert.False(t, KindDice.Stateful())
	assert.False(t, KindRoulette.Stateful())
}

func TestResultFromNet(t *testing.T) {
	assert.Equal(t, ResultWin, ResultFromNet(5))
	assert.Equal(t, ResultLoss, ResultFromNet(-1))
	assert.Equal(t, ResultPush, ResultFromNet(0))
}

// --- HouseRules Tests ---

func TestDefaultHouseRules(t *testing.T) {
	r := DefaultHouseRules()
	assert.Equal(t, int64(200), r.StartingBalance)
	assert.Equal(t, int64(50), r.BonusAmount)
	assert.Equal(t, "4h0m0s", r.BonusCooldown.String())

	want := map[GameKind]int64{
		KindSlots: 5, KindDice: 5, KindMines: 10, KindBlackjack: 10, KindRoulette: 10,
	}
	for k, amt := range want {
		assert.Equal(t, amt, r.DefaultBet(k), "default bet for %s", k)
	}
}

func TestValidateBet(t *testing.T) {
	tests := []struct {
		amount  int64
		wantErr bool
	}{
		{0, true},
		{-5, true},
		{1, false},
		{100000, false},
		{100001, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			err := ValidateBet(tt.amount)
			if tt.wantErr {
				assert.True(t, IsCode(err, CodeInvalidSelection))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClampBet(t *testing.T) {
	assert.Equal(t, int64(1), ClampBet(0))
	assert.Equal(t, int64(1), ClampBet(-40))
	assert.Equal(t, int64(250), ClampBet(250))
	assert.Equal(t, int64(100000), ClampBet(5_000_000))
}

// --- Validator Tests ---

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"snowflake", "248823478231187456", false},
		{"with separators", "guild:abc-1_2.x", false},
		{"empty", "", true},
		{"spaces", "user 1", true},
		{"too long", string(make([]byte, 65)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity("user", tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePositiveAmount(t *testing.T) {
	assert.NoError(t, ValidatePositiveAmount(1))
	assert.Error(t, ValidatePositiveAmount(0))
	assert.Error(t, ValidatePositiveAmount(-1))
}

// --- Settlement Tests ---

func validSettlement() Settlement {
	return Settlement{
		RoundID: uuid.New(),
		GuildID: "g1",
		UserID:  "u1",
		Kind:    KindDice,
		Stake:   10,
		Payout:  20,
		Result:  ResultWin,
	}
}

func TestSettlement_Validate(t *testing.T) {
	t.Run("valid win", func(t *testing.T) {
		assert.NoError(t, validSettlement().Validate())
	})

	t.Run("forced loss on bust", func(t *testing.T) {
		s := validSettlement()
		s.Payout = 0
		s.Result = ResultLoss
		assert.NoError(t, s.Validate())
		assert.Equal(t, int64(-10), s.Net())
	})

	tests := []struct {
		name   string
		mutate func(*Settlement)
	}{
		{"missing round", func(s *Settlement) { s.RoundID = uuid.Nil }},
		{"missing guild", func(s *Settlement) { s.GuildID = "" }},
		{"unknown kind", func(s *Settlement) { s.Kind = "keno" }},
		{"unknown result", func(s *Settlement) { s.Result = "draw" }},
		{"zero stake", func(s *Settlement) { s.Stake = 0 }},
		{"negative payout", func(s *Settlement) { s.Payout = -1 }},
		{"win without net", func(s *Settlement) { s.Payout = 10 }},
		{"push with net", func(s *Settlement) { s.Result = ResultPush }},
		{"loss with positive net", func(s *Settlement) { s.Result = ResultLoss }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettlement()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeInvalidSelection))
		})
	}
}

func TestSettlement_StatDelta(t *testing.T) {
	s := validSettlement()
	d := s.StatDelta()
	assert.Equal(t, int64(10), d.Net)
	w, l, p := d.Counters()
	assert.Equal(t, [3]int64{1, 0, 0}, [3]int64{w, l, p})

	d.Result = ResultPush
	w, l, p = d.Counters()
	assert.Equal(t, [3]int64{0, 0, 1}, [3]int64{w, l, p})
}

// --- Leaderboard Tests ---

func TestStatLine_Winrate(t *testing.T) {
	assert.Equal(t, 0.0, StatLine{}.Winrate())
	assert.Equal(t, 0.0, StatLine{Pushes: 4}.Winrate())
	assert.InDelta(t, 0.75, StatLine{Wins: 3, Losses: 1, Pushes: 9}.Winrate(), 1e-9)
}

func TestRankStats(t *testing.T) {
	lines := []StatLine{
		{UserID: "a", Wins: 1, Losses: 3, Net: -20},
		{UserID: "b", Wins: 5, Losses: 5, Net: 40},
		{UserID: "c", Wins: 2, Losses: 0, Net: 10},
		{UserID: "d"},
	}

	ids := func(ls []StatLine) []string {
		out := make([]string, len(ls))
		for i, l := range ls {
			out[i] = l.UserID
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(RankStats(lines, MetricWins, 10)))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(RankStats(lines, MetricLosses, 10)))
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(RankStats(lines, MetricWinrate, 10)))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(RankStats(lines, MetricNet, 0)))
	assert.Equal(t, []string{"b", "c"}, ids(RankStats(lines, MetricNet, 2)))

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, "a", lines[0].UserID)
	})
}

func TestParseStatScope(t *testing.T) {
	s, err := ParseStatScope("all")
	require.NoError(t, err)
	assert.True(t, s.All)

	s, err = ParseStatScope("")
	require.NoError(t, err)
	assert.True(t, s.All)

	s, err = ParseStatScope("mines")
	require.NoError(t, err)
	assert.Equal(t, KindMines, s.Kind)
	assert.Equal(t, "mines", s.String())

	_, err = ParseStatScope("poker")
	assert.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	for _, m := range []string{"wins", "losses", "winrate", "net"} {
		_, err := ParseMetric(m)
		assert.NoError(t, err, m)
	}
	_, err := ParseMetric("balance")
	assert.Error(t, err)
}

// --- Error Tests ---

func TestAppError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := ErrIllegalState("no active game")
		assert.Equal(t, "ILLEGAL_STATE: no active game", err.Error())
		assert.Nil(t, err.Unwrap())
		assert.Equal(t, 409, err.Status)
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := ErrPersistence("settle round", cause)
		assert.Contains(t, err.Error(), "connection reset")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("place stake: %w", ErrInsufficientFunds(5, 10))
		assert.Equal(t, CodeInsufficientFunds, CodeOf(err))
		assert.Equal(t, "", CodeOf(errors.New("plain")))
	})
}

// --- Event Tests ---

func TestNewRoundSettledEvent(t *testing.T) {
	s := validSettlement()
	evt := NewRoundSettledEvent(s, 210)

	assert.Equal(t, EventRoundSettled, evt.EventType)
	assert.Equal(t, AggregateRound, evt.AggregateType)
	assert.Equal(t, s.RoundID.String(), evt.AggregateID)
	assert.Equal(t, "g1", evt.PartitionKey)
	assert.Equal(t, "casino.round.settled", evt.Topic())

	var p RoundSettledPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, int64(10), p.Net)
	assert.Equal(t, int64(210), p.Balance)
	assert.Equal(t, KindDice, p.Game)
}
