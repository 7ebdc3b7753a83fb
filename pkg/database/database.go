package database

import (
	"fmt"
	"log"
	"quiz_duel_backend/internal/config"
	"quiz_duel_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.BotOpponent{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认的脚本对手名单
	var botCount int64
	db.Model(&model.BotOpponent{}).Count(&botCount)
	if botCount == 0 {
		defaultBots := []model.BotOpponent{
			{Name: "小新", Accuracy: 0.45, MinDelaySeconds: 60, MaxDelaySeconds: 600, Enabled: true},
			{Name: "阿码", Accuracy: 0.65, MinDelaySeconds: 120, MaxDelaySeconds: 1800, Enabled: true},
			{Name: "题霸", Accuracy: 0.85, MinDelaySeconds: 300, MaxDelaySeconds: 3600, Enabled: true},
			{Name: "满分机器", Accuracy: 0.97, MinDelaySeconds: 600, MaxDelaySeconds: 7200, Enabled: true},
		}
		for _, b := range defaultBots {
			db.Create(&b)
		}
	}

	return db, nil
}
