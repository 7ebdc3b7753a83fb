package model

import "testing"

func TestLookupMode(t *testing.T) {
	for _, id := range []string{"classic", "sprint", "streak", "marathon"} {
		mode, ok := LookupMode(id)
		if !ok || mode.ID != id {
			t.Fatalf("LookupMode(%q) = (%v, %v)", id, mode, ok)
		}
	}
	if _, ok := LookupMode("blitz"); ok {
		t.Fatal("unknown mode id resolved")
	}
	if _, ok := LookupMode(""); ok {
		t.Fatal("empty mode id resolved")
	}
}

func TestModeCatalogInvariants(t *testing.T) {
	modes := AllModes()
	if len(modes) == 0 {
		t.Fatal("empty mode catalog")
	}
	for _, m := range modes {
		if m.QuestionCount <= 0 {
			t.Fatalf("%s: question count %d", m.ID, m.QuestionCount)
		}
		// 每题限时和总限时最多配置一个
		if m.PerQuestionTime > 0 && m.TotalTime > 0 {
			t.Fatalf("%s: both per-question and total time budgets set", m.ID)
		}
		// 连对模式不允许配置用时决胜
		if m.WinRule == WinRuleLongerStreak && m.TieBreak != TieBreakNone {
			t.Fatalf("%s: streak mode carries a tie break", m.ID)
		}
		for _, outcome := range []Outcome{OutcomeWin, OutcomeLose, OutcomeDraw} {
			if _, ok := m.Rewards[outcome]; !ok {
				t.Fatalf("%s: no reward configured for %q", m.ID, outcome)
			}
		}
		if m.RewardFor(OutcomeWin).XP <= m.RewardFor(OutcomeLose).XP {
			t.Fatalf("%s: winning pays no better than losing", m.ID)
		}
	}
}

func TestAllModesStableOrder(t *testing.T) {
	first := AllModes()
	second := AllModes()
	if len(first) != len(second) {
		t.Fatal("catalog size changed between calls")
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatal("catalog order not stable")
		}
	}
}
