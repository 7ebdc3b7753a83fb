package repository

import (
	"context"
	"fmt"
	"quiz_duel_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const xpLeaderboardKey = "duel:leaderboard:xp"

type UserRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewUserRepository(db *gorm.DB, rdb *redis.Client) *UserRepository {
	return &UserRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).
		Error
}

// Credit 给用户账本入账 XP 和金币。结算服务保证同一场对战对同一用户至多调用一次。
func (r *UserRepository) Credit(userID uint, xp, coins int) error {
	err := r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"xp":    gorm.Expr("xp + ?", xp),
			"coins": gorm.Expr("coins + ?", coins),
		}).Error

	if err == nil {
		r.MirrorXP(userID, xp)
	}
	return err
}

// MirrorXP 把 XP 变更同步进 redis 排行榜镜像。尽力而为，失败不影响账本。
func (r *UserRepository) MirrorXP(userID uint, xp int) {
	if r.Redis == nil || xp == 0 {
		return
	}
	r.Redis.ZIncrBy(r.ctx, xpLeaderboardKey, float64(xp), fmt.Sprintf("%d", userID))
}

// RecordDuelOutcome 累加用户的对战胜负统计
func (r *UserRepository) RecordDuelOutcome(userID uint, outcome model.Outcome) error {
	column := map[model.Outcome]string{
		model.OutcomeWin:  "duel_wins",
		model.OutcomeLose: "duel_loses",
		model.OutcomeDraw: "duel_draws",
	}[outcome]
	if column == "" {
		return nil
	}
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", 1)).
		Error
}

type LeaderboardEntry struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	XP     int    `json:"xp"`
}

// TopByXP 读取 XP 排行榜。优先走 redis 有序集合镜像，缓存为空时回源数据库并回填。
func (r *UserRepository) TopByXP(limit int) ([]LeaderboardEntry, error) {
	if r.Redis != nil {
		ranked, err := r.Redis.ZRevRangeWithScores(r.ctx, xpLeaderboardKey, 0, int64(limit-1)).Result()
		if err == nil && len(ranked) > 0 {
			entries := make([]LeaderboardEntry, 0, len(ranked))
			for _, z := range ranked {
				var id uint
				fmt.Sscanf(z.Member.(string), "%d", &id)
				user, err := r.FindByID(id)
				if err != nil {
					continue
				}
				entries = append(entries, LeaderboardEntry{
					UserID: id,
					Name:   user.Name,
					Avatar: user.Avatar,
					XP:     int(z.Score),
				})
			}
			return entries, nil
		}
	}

	var users []model.User
	if err := r.DB.Where("disabled = ?", false).
		Order("xp DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, LeaderboardEntry{UserID: u.ID, Name: u.Name, Avatar: u.Avatar, XP: u.XP})
	}

	// 回填缓存
	if r.Redis != nil && len(users) > 0 {
		pipe := r.Redis.Pipeline()
		for _, u := range users {
			pipe.ZAdd(r.ctx, xpLeaderboardKey, &redis.Z{Score: float64(u.XP), Member: fmt.Sprintf("%d", u.ID)})
		}
		pipe.Expire(r.ctx, xpLeaderboardKey, 24*time.Hour)
		pipe.Exec(r.ctx)
	}
	return entries, nil
}
