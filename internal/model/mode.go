package model

import "time"

// WinRule 对战模式的胜负判定规则
type WinRule string

const (
	WinRuleHigherScore  WinRule = "higher_score"  // 比较答对题数
	WinRuleLongerStreak WinRule = "longer_streak" // 比较最长连对数
)

// TieBreak 平分时的决胜规则
type TieBreak string

const (
	TieBreakNone      TieBreak = "none"
	TieBreakLowerTime TieBreak = "lower_time" // 用时更少者胜
)

// Outcome 单个参与者视角的对战结果
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Reward 单次对战结算的奖励数值
// swagger:model Reward
type Reward struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// DuelMode 对战模式配置。纯静态数据，创建对战时解析一次，
// 之后内部始终传递 *DuelMode，不再按字符串反复查表。
// swagger:model DuelMode
type DuelMode struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	QuestionCount int           `json:"questionCount"`
	// PerQuestionTime 和 TotalTime 最多只有一个非零；都为零表示不限时
	PerQuestionTime time.Duration `json:"perQuestionTime" swaggertype:"primitive,integer"`
	TotalTime       time.Duration `json:"totalTime" swaggertype:"primitive,integer"`
	WinRule         WinRule       `json:"winRule"`
	TieBreak        TieBreak      `json:"tieBreak"`
	Rewards         map[Outcome]Reward `json:"rewards"`
}

// StreakBased 返回该模式是否按最长连对判胜
func (m *DuelMode) StreakBased() bool {
	return m.WinRule == WinRuleLongerStreak
}

// RewardFor 按结果查奖励表，未配置的结果奖励为零
func (m *DuelMode) RewardFor(outcome Outcome) Reward {
	return m.Rewards[outcome]
}

var duelModes = map[string]*DuelMode{
	"classic": {
		ID:              "classic",
		Name:            "经典对战",
		QuestionCount:   8,
		PerQuestionTime: 15 * time.Second,
		WinRule:         WinRuleHigherScore,
		TieBreak:        TieBreakLowerTime,
		Rewards: map[Outcome]Reward{
			OutcomeWin:  {XP: 50, Coins: 20},
			OutcomeLose: {XP: 10, Coins: 5},
			OutcomeDraw: {XP: 25, Coins: 10},
		},
	},
	"sprint": {
		ID:            "sprint",
		Name:          "限时冲刺",
		QuestionCount: 5,
		TotalTime:     60 * time.Second,
		WinRule:       WinRuleHigherScore,
		TieBreak:      TieBreakLowerTime,
		Rewards: map[Outcome]Reward{
			OutcomeWin:  {XP: 40, Coins: 15},
			OutcomeLose: {XP: 8, Coins: 3},
			OutcomeDraw: {XP: 20, Coins: 8},
		},
	},
	"streak": {
		ID:              "streak",
		Name:            "连对挑战",
		QuestionCount:   10,
		PerQuestionTime: 10 * time.Second,
		WinRule:         WinRuleLongerStreak,
		TieBreak:        TieBreakNone, // 连对模式平局就是平局，不比用时
		Rewards: map[Outcome]Reward{
			OutcomeWin:  {XP: 60, Coins: 25},
			OutcomeLose: {XP: 12, Coins: 5},
			OutcomeDraw: {XP: 30, Coins: 12},
		},
	},
	"marathon": {
		ID:            "marathon",
		Name:          "马拉松",
		QuestionCount: 20,
		WinRule:       WinRuleHigherScore,
		TieBreak:      TieBreakNone,
		Rewards: map[Outcome]Reward{
			OutcomeWin:  {XP: 80, Coins: 30},
			OutcomeLose: {XP: 15, Coins: 6},
			OutcomeDraw: {XP: 40, Coins: 15},
		},
	},
}

// LookupMode 按 id 查找对战模式；未知 id 返回 false，调用方必须中止
func LookupMode(id string) (*DuelMode, bool) {
	m, ok := duelModes[id]
	return m, ok
}

// AllModes 返回模式目录（固定顺序，供客户端渲染模式选择）
func AllModes() []*DuelMode {
	order := []string{"classic", "sprint", "streak", "marathon"}
	result := make([]*DuelMode, 0, len(order))
	for _, id := range order {
		result = append(result, duelModes[id])
	}
	return result
}
