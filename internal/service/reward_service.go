package service

import (
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/internal/util"
	"quiz_duel_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// RewardLedger 用户账本：奖励入账和胜负统计
type RewardLedger interface {
	Credit(userID uint, xp, coins int) error
	RecordDuelOutcome(userID uint, outcome model.Outcome) error
}

// RewardService 对战奖励结算。"已结算"标记的检查和置位走对战记录的
// 原子读-改-写（Mutate 行锁），同一个 (对战, 参与者) 的第二次结算
// 必然看到已置位的标记，所以账本至多入账一次：结果页展示多少次都只发一次奖励。
type RewardService struct {
	Store  ChallengeStore
	Ledger RewardLedger
}

func NewRewardService(store ChallengeStore, ledger RewardLedger) *RewardService {
	return &RewardService{Store: store, Ledger: ledger}
}

type SettlementResult struct {
	Outcome model.Outcome `json:"outcome"`
	XP      int           `json:"xp"`
	Coins   int           `json:"coins"`
	// AlreadySettled 为 true 表示这次调用没有入账，返回的是之前算出的结果
	AlreadySettled bool `json:"alreadySettled"`
}

// Settle 结算某个参与者在一场对战里的奖励。只有 finished/expired 可结算；
// 结算前先做一次过期清扫，窗口刚过的对战也能立即拿到结果。
// 重复调用是显式的空操作：返回同样的结果（胜负和奖励从记录确定性推导），不再入账。
func (s *RewardService) Settle(challengeID string, userID uint) (*SettlementResult, error) {
	var result SettlementResult
	var credit bool

	_, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		// 清扫先于结算，过期转移和标记置位落在同一次写里
		c.ExpireDue(time.Now())

		side, ok := c.SideOf(userID)
		if !ok {
			return util.ErrNotParticipant
		}
		if c.Status != model.StatusFinished && c.Status != model.StatusExpired {
			return util.ErrNotFinished
		}
		mode, ok := c.Mode()
		if !ok {
			return util.ErrUnknownMode
		}

		outcome, reward := ComputeSettlement(c, mode, side)
		result = SettlementResult{Outcome: outcome, XP: reward.XP, Coins: reward.Coins}

		attempt := c.AttemptFor(side)
		if attempt.Settled {
			result.AlreadySettled = true
			return nil
		}
		attempt.Settled = true
		credit = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 标记先落库再入账：进程在两步之间崩溃会丢这笔奖励，但绝不会重复发放
	if credit {
		if result.XP != 0 || result.Coins != 0 {
			if err := s.Ledger.Credit(userID, result.XP, result.Coins); err != nil {
				logger.Log.Error("reward credit failed after settle mark",
					zap.String("challengeId", challengeID),
					zap.Uint("userId", userID),
					zap.Error(err))
				return nil, err
			}
		}
		if err := s.Ledger.RecordDuelOutcome(userID, result.Outcome); err != nil {
			logger.Log.Error("duel outcome record failed",
				zap.String("challengeId", challengeID),
				zap.Uint("userId", userID),
				zap.Error(err))
		}
	}
	return &result, nil
}
