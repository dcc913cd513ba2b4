package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// compressionRecord строка таблицы журнала
type compressionRecord struct {
	ID                      string `gorm:"primaryKey;size:36"`
	InputPath               string
	OutputPath              string
	Tier                    string `gorm:"size:16"`
	OriginalSizeKB          float64
	CompressedSizeKB        float64
	TargetSizeKB            float64
	CompressionRatioPercent int
	Iterations              int
	RefineState             string `gorm:"size:16"`
	TargetReached           bool
	ProcessingTimeSeconds   float64
	CreatedAt               time.Time `gorm:"index"`
}

func (compressionRecord) TableName() string {
	return "compression_history"
}

func (r compressionRecord) toEntity() entities.HistoryRecord {
	return entities.HistoryRecord{
		ID:                      r.ID,
		InputPath:               r.InputPath,
		OutputPath:              r.OutputPath,
		Tier:                    entities.Tier(r.Tier),
		OriginalSizeKB:          r.OriginalSizeKB,
		CompressedSizeKB:        r.CompressedSizeKB,
		TargetSizeKB:            r.TargetSizeKB,
		CompressionRatioPercent: r.CompressionRatioPercent,
		Iterations:              r.Iterations,
		RefineState:             r.RefineState,
		TargetReached:           r.TargetReached,
		ProcessingTimeSeconds:   r.ProcessingTimeSeconds,
		CreatedAt:               r.CreatedAt,
	}
}

// SQLiteHistoryRepository журнал сжатий в SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository открывает базу и выполняет миграцию
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы %s: %w", dbPath, err)
	}

	if err := db.AutoMigrate(&compressionRecord{}); err != nil {
		return nil, fmt.Errorf("ошибка миграции журнала: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Record сохраняет результат сжатия
func (r *SQLiteHistoryRepository) Record(ctx context.Context, result *entities.CompressionResult) error {
	if result == nil {
		return nil
	}

	rec := compressionRecord{
		ID:                      uuid.NewString(),
		InputPath:               result.InputPath,
		OutputPath:              result.OutputPath,
		Tier:                    string(result.Profile.Tier),
		OriginalSizeKB:          result.OriginalSizeKB,
		CompressedSizeKB:        result.CompressedSizeKB,
		TargetSizeKB:            result.Profile.TargetSizeKB,
		CompressionRatioPercent: result.CompressionRatioPercent,
		Iterations:              result.Iterations,
		RefineState:             result.RefineStateName(),
		TargetReached:           result.TargetReached,
		ProcessingTimeSeconds:   result.ProcessingTimeSeconds,
		CreatedAt:               time.Now().UTC(),
	}

	return r.db.WithContext(ctx).Create(&rec).Error
}

// Recent возвращает последние записи, новые первыми
func (r *SQLiteHistoryRepository) Recent(ctx context.Context, limit int) ([]entities.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []compressionRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]entities.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toEntity())
	}
	return records, nil
}

// Close закрывает соединение с базой
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NopHistoryRepository используется, когда журнал выключен
type NopHistoryRepository struct{}

func (NopHistoryRepository) Record(context.Context, *entities.CompressionResult) error { return nil }

func (NopHistoryRepository) Recent(context.Context, int) ([]entities.HistoryRecord, error) {
	return []entities.HistoryRecord{}, nil
}

func (NopHistoryRepository) Close() error { return nil }

// NewHistoryRepository выбирает реализацию по конфигурации
func NewHistoryRepository(cfg entities.HistoryConfig) (repositories.HistoryRepository, error) {
	if !cfg.Enabled || cfg.DatabasePath == "" {
		return NopHistoryRepository{}, nil
	}
	return NewSQLiteHistoryRepository(cfg.DatabasePath)
}
