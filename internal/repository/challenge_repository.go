package repository

import (
	"errors"
	"quiz_duel_backend/internal/model"
	"quiz_duel_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeStatuses 计入"同一对之间只能有一场进行中对战"约束的状态
var activeStatuses = []model.ChallengeStatus{
	model.StatusPending,
	model.StatusAccepted,
	model.StatusChallengerDone,
	model.StatusOpponentDone,
}

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

// Create 创建对战记录。在同一个事务里先锁住同 pair_key 的进行中记录再插入，
// 防止并发创建导致一对用户之间出现两场活跃对战。
func (r *ChallengeRepository) Create(ch *model.Challenge) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Model(&model.Challenge{}).
			Where("pair_key = ? AND status IN ?", ch.PairKey, activeStatuses).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return util.ErrDuplicateActiveChallenge
		}
		return tx.Create(ch).Error
	})
}

func (r *ChallengeRepository) FindByID(id string) (*model.Challenge, error) {
	var ch model.Challenge
	err := r.DB.First(&ch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChallengeNotFound
	}
	return &ch, err
}

// Mutate 对单条对战记录做原子读-改-写：事务内 SELECT ... FOR UPDATE 读出最新状态，
// 交给 fn 修改后整行写回。双方并发交卷时，后拿到行锁的一方必然看到先提交方的
// 作答，由它驱动到 finished 的状态转移。
func (r *ChallengeRepository) Mutate(id string, fn func(*model.Challenge) error) (*model.Challenge, error) {
	var ch model.Challenge
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ch, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrChallengeNotFound
			}
			return err
		}
		if err := fn(&ch); err != nil {
			return err
		}
		return tx.Save(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListByUser 用户参与的对战，按创建时间倒序
func (r *ChallengeRepository) ListByUser(userID uint, limit int) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.
		Where("challenger_id = ? OR (opponent_id = ? AND opponent_is_bot = ?)", userID, userID, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&challenges).Error
	return challenges, err
}

// ListDueBotResponses 脚本对手计划交卷时间已到的对战（被后台巡检与重启恢复调用）
func (r *ChallengeRepository) ListDueBotResponses(now time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.
		Where("opponent_is_bot = ? AND bot_respond_at IS NOT NULL AND bot_respond_at <= ? AND status IN ?",
			true, now, activeStatuses).
		Find(&challenges).Error
	return challenges, err
}

// ListScheduledBotResponses 所有带未执行合成交卷计划的对战（进程重启后重建定时器）
func (r *ChallengeRepository) ListScheduledBotResponses() ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.
		Where("opponent_is_bot = ? AND bot_respond_at IS NOT NULL AND status IN ?", true, activeStatuses).
		Find(&challenges).Error
	return challenges, err
}

// ListOverdue 响应窗口已过但还未进入终态的对战（后台强制过期用）
func (r *ChallengeRepository) ListOverdue(now time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.
		Where("expires_at < ? AND status IN ?", now, activeStatuses).
		Find(&challenges).Error
	return challenges, err
}
