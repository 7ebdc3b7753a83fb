package service

import (
	"math/rand"
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/internal/util"
	"quiz_duel_backend/pkg/logger"
	"quiz_duel_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BotService 脚本对手模拟器。创建对战时按对手配置抽一个响应延迟，
// 到点走和真人完全相同的 SubmitAttempt 路径提交合成作答。
// 计划时间落在对战记录上（bot_respond_at），进程重启后 Recover
// 按剩余延迟重建定时器，已过点的立即补交，不会丢也不会双发——
// 双发被提交路径本身的 AlreadySubmitted 守卫挡住。
type BotService struct {
	Store ChallengeStore
	Bots  BotFinder
	Duel  *ChallengeService

	mu     sync.Mutex
	timers map[string]*time.Timer
	rng    *rand.Rand
}

func NewBotService(store ChallengeStore, bots BotFinder, duel *ChallengeService) *BotService {
	return &BotService{
		Store:  store,
		Bots:   bots,
		Duel:   duel,
		timers: make(map[string]*time.Timer),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// botDelay 在对手配置的 [min, max] 区间内均匀抽响应延迟
func botDelay(bot *model.BotOpponent) time.Duration {
	min := time.Duration(bot.MinDelaySeconds) * time.Second
	max := time.Duration(bot.MaxDelaySeconds) * time.Second
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Schedule 为一场脚本对战挂内存定时器。持久化的 bot_respond_at 是权威，
// 定时器只是让交卷准点；丢了定时器还有巡检和重启恢复兜底。
func (s *BotService) Schedule(ch *model.Challenge) {
	if !ch.OpponentIsBot || ch.BotRespondAt == nil {
		return
	}
	delay := time.Until(*ch.BotRespondAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if existing, ok := s.timers[ch.ID]; ok {
		existing.Stop()
	}
	id := ch.ID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.Fire(id)
	})
	s.mu.Unlock()
}

// Recover 进程启动时重建所有未执行的合成交卷计划。
// 计划时间已过的（宕机期间到点的）立即补交。
func (s *BotService) Recover() {
	scheduled, err := s.Store.ListScheduledBotResponses()
	if err != nil {
		logger.Log.Error("failed to recover bot schedules", zap.Error(err))
		return
	}
	for i := range scheduled {
		s.Schedule(&scheduled[i])
	}
	if len(scheduled) > 0 {
		logger.Log.Info("recovered bot response schedules", zap.Int("count", len(scheduled)))
	}
}

// FireDue 巡检兜底：把所有计划时间已到的合成交卷立即执行
func (s *BotService) FireDue() {
	due, err := s.Store.ListDueBotResponses(time.Now())
	if err != nil {
		logger.Log.Error("failed to list due bot responses", zap.Error(err))
		return
	}
	for i := range due {
		s.Fire(due[i].ID)
	}
}

// Fire 执行一次合成交卷。按提交瞬间的记录状态重新校验，
// 记录已关闭或已交过卷时安静跳过（幂等）。
func (s *BotService) Fire(challengeID string) {
	ch, err := s.Store.FindByID(challengeID)
	if err != nil {
		logger.Log.Warn("bot fire: challenge gone", zap.String("challengeId", challengeID), zap.Error(err))
		return
	}
	if !ch.OpponentIsBot || ch.BotRespondAt == nil || ch.Terminal() {
		return
	}
	bot, err := s.Bots.FindByID(ch.OpponentID)
	if err != nil {
		logger.Log.Error("bot fire: bot config missing",
			zap.String("challengeId", challengeID),
			zap.Uint("botId", ch.OpponentID),
			zap.Error(err))
		return
	}

	selections, timeMs := s.synthesize(bot, ch.Questions)
	_, _, err = s.Duel.SubmitAttempt(ch.ID, model.SideOpponent, selections, timeMs)
	switch err {
	case nil:
		monitoring.BotSubmissions.Inc()
	case util.ErrAlreadySubmitted, util.ErrChallengeClosed:
		// 定时器和巡检重叠触发时会走到这里，什么都不用做
	default:
		logger.Log.Error("bot submission failed", zap.String("challengeId", challengeID), zap.Error(err))
	}
}

// synthesize 按对手准确率合成作答：每道题独立以 accuracy 概率答对，
// 答错时在错误选项里均匀随机挑一个
func (s *BotService) synthesize(bot *model.BotOpponent, questions model.QuestionList) ([]int, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selections := make([]int, len(questions))
	var totalMs int64
	for i, q := range questions {
		if s.rng.Float64() < bot.Accuracy {
			selections[i] = q.CorrectIndex
		} else {
			wrong := s.rng.Intn(len(q.Options) - 1)
			if wrong >= q.CorrectIndex {
				wrong++
			}
			selections[i] = wrong
		}
		// 每题 2~9 秒的拟真作答耗时
		totalMs += 2000 + s.rng.Int63n(7000)
	}
	return selections, totalMs
}

// Stop 停掉所有内存定时器（优雅关停用；计划仍在库里，下次启动恢复）
func (s *BotService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
