package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	logging "github.com/quangptt0910/SaccadeSync-sub000/internal/logging"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	gormLogger := logging.NewGormZapLogger(log)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.ScreeningSession{},
		&models.CalibrationRecord{},
		&models.FrameRecord{},
		&models.TrialResult{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// Trial lookup by session/phase is the hot query for phase aggregation.
	trialIndex := `CREATE INDEX IF NOT EXISTS idx_trials_query ON trial_results (session_id, phase, trial_number, created_at DESC);`
	if err := DB.Exec(trialIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on trial_results", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
