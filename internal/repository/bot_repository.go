package repository

import (
	"quiz_duel_backend/internal/model"

	"gorm.io/gorm"
)

type BotRepository struct {
	DB *gorm.DB
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{DB: db}
}

func (r *BotRepository) FindByID(id uint) (*model.BotOpponent, error) {
	var bot model.BotOpponent
	err := r.DB.First(&bot, id).Error
	return &bot, err
}

func (r *BotRepository) ListEnabled() ([]model.BotOpponent, error) {
	var bots []model.BotOpponent
	err := r.DB.Where("enabled = ?", true).Order("accuracy ASC").Find(&bots).Error
	return bots, err
}
