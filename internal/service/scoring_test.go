package service

import (
	"quiz_duel_backend/internal/model"
	"testing"
	"time"
)

func answers(pattern ...bool) model.AnswerList {
	list := make(model.AnswerList, len(pattern))
	for i, correct := range pattern {
		sel := 1
		if !correct {
			sel = 0
		}
		list[i] = model.AnswerRecord{Selected: sel, Correct: correct}
	}
	return list
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers model.AnswerList
		want    int
	}{
		{"empty", model.AnswerList{}, 0},
		{"all correct", answers(true, true, true), 3},
		{"all wrong", answers(false, false), 0},
		{"mixed", answers(true, false, true, true, false), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.answers); got != tt.want {
				t.Fatalf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name    string
		answers model.AnswerList
		want    int
	}{
		{"empty", model.AnswerList{}, 0},
		{"single correct", answers(true), 1},
		{"all wrong", answers(false, false, false), 0},
		// 最长一段在中间，不是收尾那段
		{"max in middle", answers(true, true, false, true, true, true, false), 3},
		{"max at start", answers(true, true, true, false, true), 3},
		{"all correct", answers(true, true, true, true), 4},
		{"reset then rebuild", answers(true, false, true, false, true), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestStreak(tt.answers); got != tt.want {
				t.Fatalf("LongestStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func finishedChallenge(a, b model.Attempt) *model.Challenge {
	now := time.Now()
	if a.SubmittedAt == nil {
		a.SubmittedAt = &now
	}
	if b.SubmittedAt == nil {
		b.SubmittedAt = &now
	}
	return &model.Challenge{
		ChallengerID: 1,
		OpponentID:   2,
		Status:       model.StatusFinished,
		Challenger:   a,
		Opponent:     b,
	}
}

func attemptWith(score int, timeMs int64, chain int) model.Attempt {
	return model.Attempt{Score: &score, TimeMs: &timeMs, Chain: &chain}
}

func TestDecideWinnerHigherScore(t *testing.T) {
	mode := &model.DuelMode{WinRule: model.WinRuleHigherScore, TieBreak: model.TieBreakLowerTime}

	tests := []struct {
		name     string
		a, b     model.Attempt
		wantSide model.Side
		wantWin  bool
	}{
		{"challenger higher", attemptWith(6, 40000, 0), attemptWith(4, 30000, 0), model.SideChallenger, true},
		{"opponent higher", attemptWith(3, 40000, 0), attemptWith(7, 90000, 0), model.SideOpponent, true},
		// 6/8 对 6/8，42 秒 vs 55 秒，用时更少的发起方胜
		{"tie broken by lower time", attemptWith(6, 42000, 0), attemptWith(6, 55000, 0), model.SideChallenger, true},
		{"tie broken the other way", attemptWith(6, 55000, 0), attemptWith(6, 42000, 0), model.SideOpponent, true},
		{"equal score equal time", attemptWith(5, 42000, 0), attemptWith(5, 42000, 0), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := finishedChallenge(tt.a, tt.b)
			side, decisive := DecideWinner(ch, mode)
			if side != tt.wantSide || decisive != tt.wantWin {
				t.Fatalf("DecideWinner() = (%q, %v), want (%q, %v)", side, decisive, tt.wantSide, tt.wantWin)
			}
		})
	}
}

func TestDecideWinnerTieWithoutTieBreak(t *testing.T) {
	mode := &model.DuelMode{WinRule: model.WinRuleHigherScore, TieBreak: model.TieBreakNone}
	ch := finishedChallenge(attemptWith(5, 42000, 0), attemptWith(5, 99000, 0))
	if side, decisive := DecideWinner(ch, mode); decisive {
		t.Fatalf("expected draw without tie break, got winner %q", side)
	}
}

func TestDecideWinnerLongerStreak(t *testing.T) {
	mode := &model.DuelMode{WinRule: model.WinRuleLongerStreak, TieBreak: model.TieBreakNone}

	tests := []struct {
		name     string
		a, b     model.Attempt
		wantSide model.Side
		wantWin  bool
	}{
		{"challenger longer chain", attemptWith(6, 40000, 5), attemptWith(7, 30000, 3), model.SideChallenger, true},
		{"opponent longer chain", attemptWith(8, 40000, 2), attemptWith(5, 30000, 4), model.SideOpponent, true},
		// 连对 5 对 5：平局就是平局，连对模式从不比用时
		{"equal chain is a genuine draw", attemptWith(6, 42000, 5), attemptWith(6, 55000, 5), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := finishedChallenge(tt.a, tt.b)
			side, decisive := DecideWinner(ch, mode)
			if side != tt.wantSide || decisive != tt.wantWin {
				t.Fatalf("DecideWinner() = (%q, %v), want (%q, %v)", side, decisive, tt.wantSide, tt.wantWin)
			}
		})
	}
}

func TestDecideWinnerIsDeterministic(t *testing.T) {
	mode, _ := model.LookupMode("classic")
	ch := finishedChallenge(attemptWith(6, 42000, 0), attemptWith(6, 55000, 0))

	firstSide, firstWin := DecideWinner(ch, mode)
	for i := 0; i < 50; i++ {
		side, win := DecideWinner(ch, mode)
		if side != firstSide || win != firstWin {
			t.Fatalf("DecideWinner not deterministic: run %d got (%q, %v), first run (%q, %v)", i, side, win, firstSide, firstWin)
		}
	}
}

func TestWinnerSideExpired(t *testing.T) {
	now := time.Now()
	score := 4

	onlyChallenger := &model.Challenge{
		ChallengerID: 1,
		OpponentID:   2,
		Status:       model.StatusExpired,
		Challenger:   model.Attempt{Score: &score, SubmittedAt: &now},
	}
	mode, _ := model.LookupMode("classic")

	if side, decisive := WinnerSide(onlyChallenger, mode); !decisive || side != model.SideChallenger {
		t.Fatalf("expected challenger to win expired duel, got (%q, %v)", side, decisive)
	}

	neither := &model.Challenge{ChallengerID: 1, OpponentID: 2, Status: model.StatusExpired}
	if side, decisive := WinnerSide(neither, mode); decisive {
		t.Fatalf("expected no winner when neither played, got %q", side)
	}
}

func TestComputeSettlement(t *testing.T) {
	mode, _ := model.LookupMode("classic")
	now := time.Now()
	score := 4

	t.Run("finished win and lose", func(t *testing.T) {
		ch := finishedChallenge(attemptWith(6, 42000, 0), attemptWith(3, 50000, 0))
		outcome, reward := ComputeSettlement(ch, mode, model.SideChallenger)
		if outcome != model.OutcomeWin || reward != mode.RewardFor(model.OutcomeWin) {
			t.Fatalf("challenger settlement = (%q, %+v)", outcome, reward)
		}
		outcome, reward = ComputeSettlement(ch, mode, model.SideOpponent)
		if outcome != model.OutcomeLose || reward != mode.RewardFor(model.OutcomeLose) {
			t.Fatalf("opponent settlement = (%q, %+v)", outcome, reward)
		}
	})

	t.Run("expired: absent side gets nothing", func(t *testing.T) {
		ch := &model.Challenge{
			ChallengerID: 1,
			OpponentID:   2,
			Status:       model.StatusExpired,
			Challenger:   model.Attempt{Score: &score, SubmittedAt: &now},
		}
		outcome, reward := ComputeSettlement(ch, mode, model.SideChallenger)
		if outcome != model.OutcomeWin || reward != mode.RewardFor(model.OutcomeWin) {
			t.Fatalf("present side settlement = (%q, %+v)", outcome, reward)
		}
		outcome, reward = ComputeSettlement(ch, mode, model.SideOpponent)
		if outcome != model.OutcomeLose || reward.XP != 0 || reward.Coins != 0 {
			t.Fatalf("absent side should get zero reward, got (%q, %+v)", outcome, reward)
		}
	})

	t.Run("expired: neither played", func(t *testing.T) {
		ch := &model.Challenge{ChallengerID: 1, OpponentID: 2, Status: model.StatusExpired}
		for _, side := range []model.Side{model.SideChallenger, model.SideOpponent} {
			outcome, reward := ComputeSettlement(ch, mode, side)
			if outcome != model.OutcomeDraw || reward.XP != 0 || reward.Coins != 0 {
				t.Fatalf("side %q: expected zero-reward draw, got (%q, %+v)", side, outcome, reward)
			}
		}
	})
}
