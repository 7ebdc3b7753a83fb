package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ChallengeStatus 对战记录状态机的状态。状态只能沿转移图前进，
// 终态（finished/expired/cancelled/declined）之后只允许改结算标记。
type ChallengeStatus string

const (
	StatusPending        ChallengeStatus = "pending"         // 已创建，等待对方接受（仅真人对战）
	StatusAccepted       ChallengeStatus = "accepted"        // 双方均可作答
	StatusChallengerDone ChallengeStatus = "challenger_done" // 发起方已交卷
	StatusOpponentDone   ChallengeStatus = "opponent_done"   // 接收方已交卷
	StatusFinished       ChallengeStatus = "finished"
	StatusExpired        ChallengeStatus = "expired"
	StatusCancelled      ChallengeStatus = "cancelled"
	StatusDeclined       ChallengeStatus = "declined"
)

// Side 对战中的一方
type Side string

const (
	SideChallenger Side = "challenger"
	SideOpponent   Side = "opponent"
)

// Question 冻结在对战记录里的单道题目，双方作答完全相同的内容
// swagger:model Question
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type QuestionList []Question

func (q QuestionList) Value() (driver.Value, error) {
	return json.Marshal(q)
}

func (q *QuestionList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("failed to unmarshal question list:", value))
	}
	return json.Unmarshal(bytes, q)
}

// AnswerRecord 一道题的作答记录。Correct 在交卷时根据冻结题目判定后落库，
// 作答一经提交不可修改。
// swagger:model AnswerRecord
type AnswerRecord struct {
	Selected int  `json:"selected"` // 选项下标，-1 表示未作答
	Correct  bool `json:"correct"`
}

type AnswerList []AnswerRecord

func (a AnswerList) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AnswerList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("failed to unmarshal answer list:", value))
	}
	return json.Unmarshal(bytes, a)
}

// Attempt 单方的作答结果，交卷前所有字段为空
// swagger:model Attempt
type Attempt struct {
	Score       *int       `json:"score,omitempty"`
	Answers     AnswerList `gorm:"type:json" json:"answers,omitempty"`
	Chain       *int       `json:"chain,omitempty"`  // 最长连对数，仅连对模式
	TimeMs      *int64     `json:"timeMs,omitempty"` // 完成用时（毫秒）
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Settled     bool       `json:"settled"` // 奖励是否已结算（查看结果页时置位）
}

// Submitted 该方是否已交卷
func (a *Attempt) Submitted() bool {
	return a.SubmittedAt != nil
}

// Challenge 一次对战的权威记录，全部状态和作答变更都走这一行
// swagger:model Challenge
type Challenge struct {
	UUIDBase
	ChallengerID  uint            `gorm:"index;not null" json:"challengerId"`
	OpponentID    uint            `gorm:"index;not null" json:"opponentId"`
	OpponentIsBot bool            `gorm:"default:false" json:"opponentIsBot"`
	PairKey       string          `gorm:"size:40;index" json:"-"`
	ModeID        string          `gorm:"size:32;not null" json:"modeId"`
	Questions     QuestionList    `gorm:"type:json" json:"questions"`
	Status        ChallengeStatus `gorm:"type:enum('pending','accepted','challenger_done','opponent_done','finished','expired','cancelled','declined');default:'pending';index" json:"status"`
	ExpiresAt     time.Time       `gorm:"not null;index" json:"expiresAt"`
	BotRespondAt  *time.Time      `gorm:"index" json:"-"` // 脚本对手计划交卷时间，落库以便重启后恢复
	Challenger    Attempt         `gorm:"embedded;embeddedPrefix:challenger_" json:"challenger"`
	Opponent      Attempt         `gorm:"embedded;embeddedPrefix:opponent_" json:"opponent"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// PairKey 归一化无序参与者对，用于"同一对之间只能有一场进行中对战"的约束
func PairKey(challengerID, opponentID uint, opponentIsBot bool) string {
	if opponentIsBot {
		return fmt.Sprintf("u%d:b%d", challengerID, opponentID)
	}
	lo, hi := challengerID, opponentID
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("u%d:u%d", lo, hi)
}

// Terminal 是否处于终态
func (c *Challenge) Terminal() bool {
	switch c.Status {
	case StatusFinished, StatusExpired, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}

// AcceptsSubmission 当前状态是否允许交卷
func (c *Challenge) AcceptsSubmission() bool {
	switch c.Status {
	case StatusAccepted, StatusChallengerDone, StatusOpponentDone:
		return true
	}
	return false
}

// AttemptFor 取指定一方的作答
func (c *Challenge) AttemptFor(side Side) *Attempt {
	if side == SideChallenger {
		return &c.Challenger
	}
	return &c.Opponent
}

// OtherSide 对方
func OtherSide(side Side) Side {
	if side == SideChallenger {
		return SideOpponent
	}
	return SideChallenger
}

// DoneStatus 某方先交卷后进入的中间状态
func DoneStatus(side Side) ChallengeStatus {
	if side == SideChallenger {
		return StatusChallengerDone
	}
	return StatusOpponentDone
}

// SideOf 判断用户在对战中的身份；脚本对手不对应任何用户
func (c *Challenge) SideOf(userID uint) (Side, bool) {
	if c.ChallengerID == userID {
		return SideChallenger, true
	}
	if !c.OpponentIsBot && c.OpponentID == userID {
		return SideOpponent, true
	}
	return "", false
}

// ParticipantID 某一方对应的参与者 id（脚本对手返回 bot id）
func (c *Challenge) ParticipantID(side Side) uint {
	if side == SideChallenger {
		return c.ChallengerID
	}
	return c.OpponentID
}

// ExpireDue 响应窗口已过则置为 expired；在每次读取和后台巡检时调用，
// 调用方必须先完成这次清扫再信任胜负和奖励
func (c *Challenge) ExpireDue(now time.Time) bool {
	if c.Terminal() || !now.After(c.ExpiresAt) {
		return false
	}
	c.Status = StatusExpired
	c.BotRespondAt = nil
	return true
}

// Mode 解析本场对战的模式配置
func (c *Challenge) Mode() (*DuelMode, bool) {
	return LookupMode(c.ModeID)
}
