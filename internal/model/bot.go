package model

// BotOpponent 脚本对手配置。accuracy 是每道题独立答对的概率，
// 延迟区间决定合成交卷被安排在多久之后。
// swagger:model BotOpponent
type BotOpponent struct {
	BaseModel
	Name            string  `gorm:"size:100;not null" json:"name"`
	Avatar          string  `gorm:"size:255" json:"avatar"`
	Accuracy        float64 `gorm:"not null" json:"accuracy"` // [0,1]
	MinDelaySeconds int     `gorm:"not null" json:"minDelaySeconds"`
	MaxDelaySeconds int     `gorm:"not null" json:"maxDelaySeconds"`
	Enabled         bool    `gorm:"default:true" json:"enabled"`
}

func (BotOpponent) TableName() string {
	return "bot_opponents"
}
