package model

import (
	"testing"
	"time"
)

func TestPairKey(t *testing.T) {
	if PairKey(1, 2, false) != PairKey(2, 1, false) {
		t.Fatal("pair key must be order-independent for human duels")
	}
	if PairKey(1, 2, false) == PairKey(1, 3, false) {
		t.Fatal("distinct pairs collided")
	}
	// 人机对是有向的：u1 挑战 bot2 和 u2 挑战 bot1 不是同一对
	if PairKey(1, 2, true) == PairKey(2, 1, true) {
		t.Fatal("bot pair key must keep challenger and bot distinct")
	}
	if PairKey(1, 2, true) == PairKey(1, 2, false) {
		t.Fatal("bot 2 and user 2 collided in the pair key space")
	}
}

func TestTerminalAndAcceptsSubmission(t *testing.T) {
	tests := []struct {
		status      ChallengeStatus
		terminal    bool
		submittable bool
	}{
		{StatusPending, false, false},
		{StatusAccepted, false, true},
		{StatusChallengerDone, false, true},
		{StatusOpponentDone, false, true},
		{StatusFinished, true, false},
		{StatusExpired, true, false},
		{StatusCancelled, true, false},
		{StatusDeclined, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := &Challenge{Status: tt.status}
			if c.Terminal() != tt.terminal {
				t.Fatalf("Terminal() = %v, want %v", c.Terminal(), tt.terminal)
			}
			if c.AcceptsSubmission() != tt.submittable {
				t.Fatalf("AcceptsSubmission() = %v, want %v", c.AcceptsSubmission(), tt.submittable)
			}
		})
	}
}

func TestSideOf(t *testing.T) {
	human := &Challenge{ChallengerID: 1, OpponentID: 2}
	if side, ok := human.SideOf(1); !ok || side != SideChallenger {
		t.Fatalf("SideOf(1) = (%q, %v)", side, ok)
	}
	if side, ok := human.SideOf(2); !ok || side != SideOpponent {
		t.Fatalf("SideOf(2) = (%q, %v)", side, ok)
	}
	if _, ok := human.SideOf(3); ok {
		t.Fatal("outsider mapped to a side")
	}

	// 脚本对手不对应任何用户：与 bot id 相同的用户 id 不能被当成接收方
	botDuel := &Challenge{ChallengerID: 1, OpponentID: 2, OpponentIsBot: true}
	if _, ok := botDuel.SideOf(2); ok {
		t.Fatal("user with the bot's id mapped to the opponent side")
	}
}

func TestExpireDue(t *testing.T) {
	now := time.Now()
	respondAt := now.Add(time.Minute)

	c := &Challenge{Status: StatusAccepted, ExpiresAt: now.Add(-time.Second), BotRespondAt: &respondAt}
	if !c.ExpireDue(now) {
		t.Fatal("overdue active duel not expired")
	}
	if c.Status != StatusExpired {
		t.Fatalf("status = %q", c.Status)
	}
	if c.BotRespondAt != nil {
		t.Fatal("pending bot schedule must be dropped on expiry")
	}

	// 已过期的再清扫一次是空操作
	if c.ExpireDue(now) {
		t.Fatal("second sweep reported a transition")
	}

	fresh := &Challenge{Status: StatusAccepted, ExpiresAt: now.Add(time.Hour)}
	if fresh.ExpireDue(now) || fresh.Status != StatusAccepted {
		t.Fatal("duel inside its window was expired")
	}

	// 终态不受清扫影响
	done := &Challenge{Status: StatusFinished, ExpiresAt: now.Add(-time.Hour)}
	if done.ExpireDue(now) || done.Status != StatusFinished {
		t.Fatal("finished duel was re-expired")
	}
}

func TestAttemptHelpers(t *testing.T) {
	c := &Challenge{}
	if c.AttemptFor(SideChallenger) != &c.Challenger || c.AttemptFor(SideOpponent) != &c.Opponent {
		t.Fatal("AttemptFor returned the wrong side")
	}
	if OtherSide(SideChallenger) != SideOpponent || OtherSide(SideOpponent) != SideChallenger {
		t.Fatal("OtherSide mismatch")
	}
	if DoneStatus(SideChallenger) != StatusChallengerDone || DoneStatus(SideOpponent) != StatusOpponentDone {
		t.Fatal("DoneStatus mismatch")
	}

	var a Attempt
	if a.Submitted() {
		t.Fatal("empty attempt reports submitted")
	}
	now := time.Now()
	a.SubmittedAt = &now
	if !a.Submitted() {
		t.Fatal("attempt with timestamp reports not submitted")
	}
}
