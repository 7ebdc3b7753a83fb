package service

import (
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/internal/util"
	"quiz_duel_backend/pkg/logger"
	"quiz_duel_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// ChallengeStore 对战记录的持久化接口。Mutate 必须是单条记录上的
// 原子读-改-写（行锁或等价的条件更新），所有状态和作答变更都走它。
type ChallengeStore interface {
	Create(ch *model.Challenge) error
	FindByID(id string) (*model.Challenge, error)
	Mutate(id string, fn func(*model.Challenge) error) (*model.Challenge, error)
	ListByUser(userID uint, limit int) ([]model.Challenge, error)
	ListDueBotResponses(now time.Time) ([]model.Challenge, error)
	ListScheduledBotResponses() ([]model.Challenge, error)
	ListOverdue(now time.Time) ([]model.Challenge, error)
}

type UserFinder interface {
	FindByID(id uint) (*model.User, error)
}

type BotFinder interface {
	FindByID(id uint) (*model.BotOpponent, error)
}

// DuelNotifier 尽力而为的"对战有更新"通知通道；投递丢失不影响正确性，
// 客户端轮询 GetChallenge 兜底
type DuelNotifier interface {
	ChallengeUpdated(userID uint, event string, ch *model.Challenge)
}

// BotScheduler 为脚本对手安排延迟合成交卷
type BotScheduler interface {
	Schedule(ch *model.Challenge)
}

type ChallengeService struct {
	Store        ChallengeStore
	Users        UserFinder
	Bots         BotFinder
	Notifier     DuelNotifier
	ExpiryWindow time.Duration

	scheduler BotScheduler
}

func NewChallengeService(store ChallengeStore, users UserFinder, bots BotFinder, notifier DuelNotifier, expiryWindow time.Duration) *ChallengeService {
	return &ChallengeService{
		Store:        store,
		Users:        users,
		Bots:         bots,
		Notifier:     notifier,
		ExpiryWindow: expiryWindow,
	}
}

// SetBotScheduler 注入脚本对手调度器（BotService 依赖本服务，启动时回填）
func (s *ChallengeService) SetBotScheduler(scheduler BotScheduler) {
	s.scheduler = scheduler
}

type QuestionInput struct {
	Prompt       string   `json:"prompt" binding:"required"`
	Options      []string `json:"options" binding:"required"`
	CorrectIndex int      `json:"correctIndex"`
}

type CreateChallengeRequest struct {
	OpponentID    uint            `json:"opponentId" binding:"required"`
	OpponentIsBot bool            `json:"opponentIsBot"`
	ModeID        string          `json:"modeId" binding:"required"`
	Questions     []QuestionInput `json:"questions" binding:"required"`
}

// CreateChallenge 创建对战。题目集在这里一次性冻结进记录，双方作答完全相同的内容。
// 真人对战从 pending 开始等待对方接受；脚本对手没有接受环节，直接进入 accepted
// 并安排延迟的合成交卷。
func (s *ChallengeService) CreateChallenge(initiatorID uint, req CreateChallengeRequest) (*model.Challenge, error) {
	mode, ok := model.LookupMode(req.ModeID)
	if !ok {
		return nil, util.ErrUnknownMode
	}
	if len(req.Questions) == 0 {
		return nil, util.ErrNoQuestions
	}
	if len(req.Questions) != mode.QuestionCount {
		return nil, util.ErrQuestionCount
	}

	questions := make(model.QuestionList, len(req.Questions))
	for i, q := range req.Questions {
		if len(q.Options) < 2 || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, util.ErrBadQuestion
		}
		questions[i] = model.Question{
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		}
	}

	if err := s.validateOpponent(initiatorID, req.OpponentID, req.OpponentIsBot); err != nil {
		return nil, err
	}

	now := time.Now()
	ch := &model.Challenge{
		ChallengerID:  initiatorID,
		OpponentID:    req.OpponentID,
		OpponentIsBot: req.OpponentIsBot,
		PairKey:       model.PairKey(initiatorID, req.OpponentID, req.OpponentIsBot),
		ModeID:        mode.ID,
		Questions:     questions,
		Status:        model.StatusPending,
		ExpiresAt:     now.Add(s.ExpiryWindow),
	}

	if req.OpponentIsBot {
		// 脚本对手没有显式接受环节
		ch.Status = model.StatusAccepted
		bot, err := s.Bots.FindByID(req.OpponentID)
		if err != nil {
			return nil, util.ErrInvalidOpponent
		}
		respondAt := now.Add(botDelay(bot))
		ch.BotRespondAt = &respondAt
	}

	if err := s.Store.Create(ch); err != nil {
		return nil, err
	}

	monitoring.ChallengesCreated.Inc()

	if ch.OpponentIsBot && s.scheduler != nil {
		s.scheduler.Schedule(ch)
	}
	if !ch.OpponentIsBot {
		s.notify(ch.OpponentID, "challenge_created", ch)
	}
	return ch, nil
}

func (s *ChallengeService) validateOpponent(initiatorID, opponentID uint, isBot bool) error {
	if isBot {
		bot, err := s.Bots.FindByID(opponentID)
		if err != nil || !bot.Enabled {
			return util.ErrInvalidOpponent
		}
		return nil
	}
	if opponentID == initiatorID {
		return util.ErrInvalidOpponent
	}
	opponent, err := s.Users.FindByID(opponentID)
	if err != nil || opponent.Disabled {
		return util.ErrInvalidOpponent
	}
	return nil
}

// AcceptChallenge 接收方接受邀请，pending → accepted
func (s *ChallengeService) AcceptChallenge(challengeID string, receiverID uint) (*model.Challenge, error) {
	var closedByExpiry bool
	ch, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		if c.ExpireDue(time.Now()) {
			closedByExpiry = true
			return nil
		}
		if c.OpponentIsBot || c.OpponentID != receiverID {
			return util.ErrNotReceiver
		}
		if c.Status != model.StatusPending {
			return util.ErrWrongState
		}
		c.Status = model.StatusAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}
	if closedByExpiry {
		return nil, util.ErrChallengeClosed
	}
	s.notify(ch.ChallengerID, "challenge_accepted", ch)
	return ch, nil
}

// DeclineChallenge 接收方拒绝邀请，pending → declined
func (s *ChallengeService) DeclineChallenge(challengeID string, receiverID uint) error {
	var closedByExpiry bool
	ch, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		if c.ExpireDue(time.Now()) {
			closedByExpiry = true
			return nil
		}
		if c.OpponentIsBot || c.OpponentID != receiverID {
			return util.ErrNotReceiver
		}
		if c.Status != model.StatusPending {
			return util.ErrWrongState
		}
		c.Status = model.StatusDeclined
		return nil
	})
	if err != nil {
		return err
	}
	if closedByExpiry {
		return util.ErrChallengeClosed
	}
	s.notify(ch.ChallengerID, "challenge_declined", ch)
	return nil
}

// CancelChallenge 发起方在对方接受前撤回，pending → cancelled
func (s *ChallengeService) CancelChallenge(challengeID string, initiatorID uint) error {
	var closedByExpiry bool
	ch, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		if c.ExpireDue(time.Now()) {
			closedByExpiry = true
			return nil
		}
		if c.ChallengerID != initiatorID {
			return util.ErrNotInitiator
		}
		if c.Status != model.StatusPending {
			return util.ErrWrongState
		}
		c.Status = model.StatusCancelled
		c.BotRespondAt = nil
		return nil
	})
	if err != nil {
		return err
	}
	if closedByExpiry {
		return util.ErrChallengeClosed
	}
	if !ch.OpponentIsBot {
		s.notify(ch.OpponentID, "challenge_cancelled", ch)
	}
	return nil
}

type SubmitResult struct {
	Status   model.ChallengeStatus `json:"status"`
	Finished bool                  `json:"finished"`
	WinnerID *uint                 `json:"winnerId,omitempty"`
	Draw     bool                  `json:"draw"`
}

// SubmitAttempt 提交某一方的完整作答。得分、连对数一律按冻结题目在服务端重算，
// 不信任客户端上报值。整个判定在持久层的行锁事务里根据提交瞬间的最新状态完成：
// 对方已交卷则本次提交驱动到 finished，否则进入对应的 *_done 等待态。
// 同一方重复提交会被拒绝（AlreadySubmitted 意味着之前已成功，不是失败）。
func (s *ChallengeService) SubmitAttempt(challengeID string, side model.Side, selections []int, timeMs int64) (*model.Challenge, *SubmitResult, error) {
	var closedByExpiry bool
	ch, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		// 先清扫再信任：窗口已过的记录在同一次写里落成 expired，但本次提交被拒
		if c.ExpireDue(time.Now()) {
			closedByExpiry = true
			return nil
		}
		if !c.AcceptsSubmission() {
			if c.Terminal() {
				return util.ErrChallengeClosed
			}
			return util.ErrWrongState
		}

		attempt := c.AttemptFor(side)
		if attempt.Submitted() {
			return util.ErrAlreadySubmitted
		}
		if len(selections) != len(c.Questions) {
			return util.ErrAnswerCount
		}
		mode, ok := c.Mode()
		if !ok {
			return util.ErrUnknownMode
		}

		records := make(model.AnswerList, len(selections))
		for i, sel := range selections {
			records[i] = model.AnswerRecord{
				Selected: sel,
				Correct:  sel == c.Questions[i].CorrectIndex,
			}
		}

		now := time.Now()
		score := Score(records)
		attempt.Score = &score
		attempt.Answers = records
		attempt.TimeMs = &timeMs
		attempt.SubmittedAt = &now
		if mode.StreakBased() {
			chain := LongestStreak(records)
			attempt.Chain = &chain
		}
		if c.OpponentIsBot && side == model.SideOpponent {
			// 合成交卷已执行，清掉计划时间防止重启后再次触发
			c.BotRespondAt = nil
		}

		if c.AttemptFor(model.OtherSide(side)).Submitted() {
			c.Status = model.StatusFinished
			c.BotRespondAt = nil
		} else {
			c.Status = model.DoneStatus(side)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if closedByExpiry {
		return nil, nil, util.ErrChallengeClosed
	}

	result := &SubmitResult{Status: ch.Status}
	if ch.Status == model.StatusFinished {
		result.Finished = true
		monitoring.ChallengesFinished.Inc()
		if mode, ok := ch.Mode(); ok {
			if winner, decisive := DecideWinner(ch, mode); decisive {
				id := ch.ParticipantID(winner)
				result.WinnerID = &id
			} else {
				result.Draw = true
			}
		}
	}

	s.notifyParticipants(ch, "challenge_updated")
	return ch, result, nil
}

// ChallengeView 返回给客户端的对战视图，胜负从作答和模式规则即时推导
type ChallengeView struct {
	*model.Challenge
	ViewerSide    model.Side    `json:"viewerSide"`
	WinnerID      *uint         `json:"winnerId,omitempty"`
	Draw          bool          `json:"draw,omitempty"`
	ViewerOutcome model.Outcome `json:"viewerOutcome,omitempty"`
}

// GetChallenge 读取对战。返回前先执行过期清扫，调用方拿到的胜负一定是可信的。
// 查看方还没交卷时抹掉题目答案，防止先看答案再作答。
func (s *ChallengeService) GetChallenge(challengeID string, viewerID uint) (*ChallengeView, error) {
	ch, err := s.sweepOnRead(challengeID)
	if err != nil {
		return nil, err
	}
	side, ok := ch.SideOf(viewerID)
	if !ok {
		return nil, util.ErrNotParticipant
	}
	return s.buildView(ch, side), nil
}

func (s *ChallengeService) buildView(ch *model.Challenge, side model.Side) *ChallengeView {
	view := &ChallengeView{Challenge: ch, ViewerSide: side}

	if !ch.AttemptFor(side).Submitted() && !ch.Terminal() {
		masked := make(model.QuestionList, len(ch.Questions))
		copy(masked, ch.Questions)
		for i := range masked {
			masked[i].CorrectIndex = -1
		}
		copied := *ch
		copied.Questions = masked
		view.Challenge = &copied
	}

	if mode, ok := ch.Mode(); ok && (ch.Status == model.StatusFinished || ch.Status == model.StatusExpired) {
		if winner, decisive := WinnerSide(ch, mode); decisive {
			id := ch.ParticipantID(winner)
			view.WinnerID = &id
		} else {
			view.Draw = true
		}
		view.ViewerOutcome = OutcomeFor(ch, mode, side)
	}
	return view
}

// sweepOnRead 读取并在必要时持久化过期转移
func (s *ChallengeService) sweepOnRead(challengeID string) (*model.Challenge, error) {
	ch, err := s.Store.FindByID(challengeID)
	if err != nil {
		return nil, err
	}
	if ch.Terminal() || !time.Now().After(ch.ExpiresAt) {
		return ch, nil
	}
	swept, err := s.Store.Mutate(challengeID, func(c *model.Challenge) error {
		c.ExpireDue(time.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if swept.Status == model.StatusExpired {
		monitoring.ChallengesExpired.Inc()
	}
	return swept, nil
}

// ListChallenges 用户参与的对战列表，逐条清扫后返回
func (s *ChallengeService) ListChallenges(userID uint, limit int) ([]ChallengeView, error) {
	challenges, err := s.Store.ListByUser(userID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]ChallengeView, 0, len(challenges))
	for i := range challenges {
		ch := &challenges[i]
		if !ch.Terminal() && time.Now().After(ch.ExpiresAt) {
			swept, err := s.sweepOnRead(ch.ID)
			if err == nil {
				ch = swept
			}
		}
		if side, ok := ch.SideOf(userID); ok {
			views = append(views, *s.buildView(ch, side))
		}
	}
	return views, nil
}

// SweepExpired 后台巡检：把窗口已过的对战批量转到 expired。
// 过期是懒惰执行的兜底超时，这个巡检保证没人再读的对战也会被收尾。
func (s *ChallengeService) SweepExpired() (int, error) {
	overdue, err := s.Store.ListOverdue(time.Now())
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range overdue {
		ch, err := s.Store.Mutate(overdue[i].ID, func(c *model.Challenge) error {
			c.ExpireDue(time.Now())
			return nil
		})
		if err != nil {
			logger.Log.Error("expiry sweep failed", zap.String("challengeId", overdue[i].ID), zap.Error(err))
			continue
		}
		if ch.Status == model.StatusExpired {
			swept++
			monitoring.ChallengesExpired.Inc()
			s.notifyParticipants(ch, "challenge_expired")
		}
	}
	return swept, nil
}

func (s *ChallengeService) notify(userID uint, event string, ch *model.Challenge) {
	if s.Notifier != nil {
		s.Notifier.ChallengeUpdated(userID, event, ch)
	}
}

func (s *ChallengeService) notifyParticipants(ch *model.Challenge, event string) {
	s.notify(ch.ChallengerID, event, ch)
	if !ch.OpponentIsBot {
		s.notify(ch.OpponentID, event, ch)
	}
}
