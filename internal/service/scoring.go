package service

import (
	"quiz_duel_backend/internal/model"
)

// 本文件是对战的计分引擎：全部是纯函数，不做任何 I/O，
// 相同输入永远得到相同输出。

// Score 答对题数
func Score(answers model.AnswerList) int {
	count := 0
	for _, a := range answers {
		if a.Correct {
			count++
		}
	}
	return count
}

// LongestStreak 按作答顺序的最长连对数。答错把当前计数清零，
// 返回的是整个过程中达到过的最大值，不是收尾那一段。
func LongestStreak(answers model.AnswerList) int {
	best, run := 0, 0
	for _, a := range answers {
		if a.Correct {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func attemptScore(a *model.Attempt) int {
	if a.Score != nil {
		return *a.Score
	}
	return Score(a.Answers)
}

func attemptChain(a *model.Attempt) int {
	if a.Chain != nil {
		return *a.Chain
	}
	return LongestStreak(a.Answers)
}

// DecideWinner 双方均已交卷时判定胜方；返回 ("", false) 表示平局。
//   - higher_score：比答对数，平分时按模式的 tie_break 处理
//   - longer_streak：比最长连对，平局就是平局，连对模式从不比用时
//   - lower_time：双方都有用时才比较，恰好一方缺用时则有记录的一方胜
func DecideWinner(c *model.Challenge, mode *model.DuelMode) (model.Side, bool) {
	a, b := &c.Challenger, &c.Opponent

	switch mode.WinRule {
	case model.WinRuleLongerStreak:
		ca, cb := attemptChain(a), attemptChain(b)
		if ca > cb {
			return model.SideChallenger, true
		}
		if cb > ca {
			return model.SideOpponent, true
		}
		return "", false
	default: // higher_score
		sa, sb := attemptScore(a), attemptScore(b)
		if sa > sb {
			return model.SideChallenger, true
		}
		if sb > sa {
			return model.SideOpponent, true
		}
		if mode.TieBreak == model.TieBreakLowerTime {
			return lowerTime(a, b)
		}
		return "", false
	}
}

func lowerTime(a, b *model.Attempt) (model.Side, bool) {
	switch {
	case a.TimeMs == nil && b.TimeMs == nil:
		return "", false
	case a.TimeMs == nil:
		return model.SideOpponent, true
	case b.TimeMs == nil:
		return model.SideChallenger, true
	case *a.TimeMs < *b.TimeMs:
		return model.SideChallenger, true
	case *b.TimeMs < *a.TimeMs:
		return model.SideOpponent, true
	}
	return "", false
}

// WinnerSide 终态对战的胜方。finished 用 DecideWinner；
// expired 时唯一交过卷的一方直接判胜，双方都没交卷则没有胜方。
func WinnerSide(c *model.Challenge, mode *model.DuelMode) (model.Side, bool) {
	switch c.Status {
	case model.StatusFinished:
		return DecideWinner(c, mode)
	case model.StatusExpired:
		switch {
		case c.Challenger.Submitted() && !c.Opponent.Submitted():
			return model.SideChallenger, true
		case c.Opponent.Submitted() && !c.Challenger.Submitted():
			return model.SideOpponent, true
		}
		return "", false
	}
	return "", false
}

// OutcomeFor 某一方视角的结果
func OutcomeFor(c *model.Challenge, mode *model.DuelMode, side model.Side) model.Outcome {
	winner, decisive := WinnerSide(c, mode)
	if !decisive {
		return model.OutcomeDraw
	}
	if winner == side {
		return model.OutcomeWin
	}
	return model.OutcomeLose
}

// ComputeSettlement 结算某一方应得的结果和奖励。
// 过期对局里从未交卷的一方奖励为零；过期但自己交了卷按胜方发放；
// 双方都没交卷按零奖励平局处理。finished 正常查模式奖励表。
func ComputeSettlement(c *model.Challenge, mode *model.DuelMode, side model.Side) (model.Outcome, model.Reward) {
	outcome := OutcomeFor(c, mode, side)

	if c.Status == model.StatusExpired {
		if !c.AttemptFor(side).Submitted() {
			return outcome, model.Reward{}
		}
		if outcome == model.OutcomeDraw {
			// 双方都交了卷却在窗口后过期不会发生；保守按平局表发放
			return outcome, mode.RewardFor(model.OutcomeDraw)
		}
		return outcome, mode.RewardFor(outcome)
	}

	return outcome, mode.RewardFor(outcome)
}
