package service

import (
	"context"
	"encoding/json"
	"fmt"
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisNotifier 通过 redis 频道广播"对战有更新"信号。纯属尽力而为：
// 投递丢了也不影响引擎正确性，客户端靠轮询 GetChallenge 兜底。
type RedisNotifier struct {
	Redis  *redis.Client
	Prefix string
	ctx    context.Context
}

func NewRedisNotifier(rdb *redis.Client, prefix string) *RedisNotifier {
	return &RedisNotifier{
		Redis:  rdb,
		Prefix: prefix,
		ctx:    context.Background(),
	}
}

type challengeEvent struct {
	Event       string                `json:"event"`
	ChallengeID string                `json:"challengeId"`
	Status      model.ChallengeStatus `json:"status"`
	ModeID      string                `json:"modeId"`
}

func (n *RedisNotifier) ChallengeUpdated(userID uint, event string, ch *model.Challenge) {
	if n == nil || n.Redis == nil {
		return
	}
	payload, err := json.Marshal(challengeEvent{
		Event:       event,
		ChallengeID: ch.ID,
		Status:      ch.Status,
		ModeID:      ch.ModeID,
	})
	if err != nil {
		return
	}
	channel := fmt.Sprintf("%s:%d", n.Prefix, userID)
	if err := n.Redis.Publish(n.ctx, channel, payload).Err(); err != nil {
		logger.Log.Warn("challenge notification dropped",
			zap.String("channel", channel),
			zap.Error(err))
	}
}
