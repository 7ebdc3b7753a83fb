package controller

import (
	"errors"
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/internal/repository"
	"quiz_duel_backend/internal/service"
	"quiz_duel_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DuelController struct {
	ChallengeService *service.ChallengeService
	RewardService    *service.RewardService
	UserService      *service.UserService
	BotRepo          *repository.BotRepository
}

func NewDuelController(challengeService *service.ChallengeService, rewardService *service.RewardService, userService *service.UserService, botRepo *repository.BotRepository) *DuelController {
	return &DuelController{
		ChallengeService: challengeService,
		RewardService:    rewardService,
		UserService:      userService,
		BotRepo:          botRepo,
	}
}

// duelError 把引擎的错误分类映射到 HTTP 状态码
func duelError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrChallengeNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUnknownMode),
		errors.Is(err, util.ErrNoQuestions),
		errors.Is(err, util.ErrQuestionCount),
		errors.Is(err, util.ErrBadQuestion),
		errors.Is(err, util.ErrAnswerCount),
		errors.Is(err, util.ErrInvalidOpponent):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrDuplicateActiveChallenge),
		errors.Is(err, util.ErrAlreadySubmitted),
		errors.Is(err, util.ErrChallengeClosed),
		errors.Is(err, util.ErrWrongState),
		errors.Is(err, util.ErrNotFinished):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrNotReceiver),
		errors.Is(err, util.ErrNotInitiator),
		errors.Is(err, util.ErrNotParticipant):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// GetModes godoc
// @Summary 对战模式目录
// @Description 返回全部对战模式（题数、限时、胜负规则、奖励表）
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.DuelMode}
// @Router /api/duel/modes [get]
func (c *DuelController) GetModes(ctx *gin.Context) {
	util.Success(ctx, model.AllModes())
}

// GetOpponents godoc
// @Summary 脚本对手名单
// @Description 返回可挑战的脚本对手（含准确率档位）
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.BotOpponent}
// @Router /api/duel/opponents [get]
func (c *DuelController) GetOpponents(ctx *gin.Context) {
	bots, err := c.BotRepo.ListEnabled()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, bots)
}

// CreateChallenge godoc
// @Summary 发起对战
// @Description 冻结题目集创建一场对战；对手可以是真人或脚本对手
// @Tags 对战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateChallengeRequest true "对战信息"
// @Success 201 {object} util.Response{data=model.Challenge}
// @Failure 400 {object} util.Response "参数/模式/题目/对手非法"
// @Failure 409 {object} util.Response "这对用户之间已有进行中的对战"
// @Router /api/duel/challenges [post]
func (c *DuelController) CreateChallenge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ch, err := c.ChallengeService.CreateChallenge(claims.UserID, req)
	if err != nil {
		duelError(ctx, err)
		return
	}
	util.Created(ctx, ch)
}

// ListChallenges godoc
// @Summary 我的对战列表
// @Description 当前用户参与的对战（返回前逐条执行过期清扫）
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response{data=[]service.ChallengeView}
// @Router /api/duel/challenges [get]
func (c *DuelController) ListChallenges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	views, err := c.ChallengeService.ListChallenges(claims.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetChallenge godoc
// @Summary 对战详情
// @Description 读取一场对战；返回前先执行过期清扫，终态带推导出的胜负
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Success 200 {object} util.Response{data=service.ChallengeView}
// @Failure 404 {object} util.Response
// @Router /api/duel/challenges/{id} [get]
func (c *DuelController) GetChallenge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ChallengeService.GetChallenge(ctx.Param("id"), claims.UserID)
	if err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AcceptChallenge godoc
// @Summary 接受对战邀请
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Success 200 {object} util.Response{data=model.Challenge}
// @Failure 403 {object} util.Response "不是接收方"
// @Failure 409 {object} util.Response "状态不允许"
// @Router /api/duel/challenges/{id}/accept [post]
func (c *DuelController) AcceptChallenge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	ch, err := c.ChallengeService.AcceptChallenge(ctx.Param("id"), claims.UserID)
	if err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, ch)
}

// DeclineChallenge godoc
// @Summary 拒绝对战邀请
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Success 200 {object} util.Response
// @Router /api/duel/challenges/{id}/decline [post]
func (c *DuelController) DeclineChallenge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ChallengeService.DeclineChallenge(ctx.Param("id"), claims.UserID); err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"declined": true})
}

// CancelChallenge godoc
// @Summary 撤回对战邀请
// @Description 发起方在对方接受前撤回
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Success 200 {object} util.Response
// @Router /api/duel/challenges/{id}/cancel [post]
func (c *DuelController) CancelChallenge(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ChallengeService.CancelChallenge(ctx.Param("id"), claims.UserID); err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"cancelled": true})
}

// SubmitAttemptRequest 交卷请求。score/chain 客户端可以带上用于 UI 即时展示，
// 服务端一律按冻结题目重算，不采信上报值。
// swagger:model SubmitAttemptRequest
type SubmitAttemptRequest struct {
	Answers []int `json:"answers" binding:"required"`
	TimeMs  int64 `json:"timeMs"`
	Score   *int  `json:"score,omitempty"`
	Chain   *int  `json:"chain,omitempty"`
}

// SubmitAttempt godoc
// @Summary 提交作答
// @Description 提交当前用户这一方的完整作答；重复提交返回 409（此前已成功记录）
// @Tags 对战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Param body body SubmitAttemptRequest true "作答"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 409 {object} util.Response "已交过卷或对战已关闭"
// @Router /api/duel/challenges/{id}/attempt [post]
func (c *DuelController) SubmitAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	challengeID := ctx.Param("id")
	ch, err := c.ChallengeService.GetChallenge(challengeID, claims.UserID)
	if err != nil {
		duelError(ctx, err)
		return
	}
	side := ch.ViewerSide

	_, result, err := c.ChallengeService.SubmitAttempt(challengeID, side, req.Answers, req.TimeMs)
	if err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// SettleRewards godoc
// @Summary 结算对战奖励
// @Description 对 finished/expired 的对战结算当前用户的 XP 和金币；
// @Description 重复调用返回同样的结果，不会再次入账
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "对战 ID"
// @Success 200 {object} util.Response{data=service.SettlementResult}
// @Failure 409 {object} util.Response "对战尚未结束"
// @Router /api/duel/challenges/{id}/settle [post]
func (c *DuelController) SettleRewards(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.RewardService.Settle(ctx.Param("id"), claims.UserID)
	if err != nil {
		duelError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetLeaderboard godoc
// @Summary XP 排行榜
// @Tags 对战
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=[]repository.LeaderboardEntry}
// @Router /api/duel/leaderboard [get]
func (c *DuelController) GetLeaderboard(ctx *gin.Context) {
	limit := util.ParseIntDefault(ctx.Query("limit"), 10)

	entries, err := c.UserService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
