package game

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Score is one finished game session. TimeTaken is in seconds.
type Score struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserEmail   string    `gorm:"index;not null" json:"userEmail"`
	UserName    string    `gorm:"not null" json:"userName"`
	Score       int       `gorm:"not null" json:"score"`
	TotalRounds int       `gorm:"not null" json:"totalRounds"`
	TimeTaken   int       `gorm:"not null" json:"timeTaken"`
	PlayedAt    time.Time `gorm:"not null" json:"playedAt"`
}

func (Score) TableName() string { return "game_scores" }

// BeforeCreate stamps the play time.
func (s *Score) BeforeCreate(*gorm.DB) error {
	if s.PlayedAt.IsZero() {
		s.PlayedAt = time.Now().UTC()
	}
	return nil
}

// ScoreStore persists game sessions.
type ScoreStore interface {
	Save(ctx context.Context, s *Score) error
	All(ctx context.Context) ([]Score, error)
	// ByUser returns a user's scores, newest first.
	ByUser(ctx context.Context, email string) ([]Score, error)
}

type GormStore struct {
	db *gorm.DB
}

// Open connects to postgres. Verbose SQL logging is only enabled in development.
func Open(dsn string, development bool) (*gorm.DB, error) {
	lvl := logger.Error
	if development {
		lvl = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewGormStore migrates the score table and returns a store on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Score{}); err != nil {
		return nil, fmt.Errorf("migrate game_scores: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Save(ctx context.Context, s *Score) error {
	if err := g.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

func (g *GormStore) All(ctx context.Context) ([]Score, error) {
	var out []Score
	if err := g.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return out, nil
}

func (g *GormStore) ByUser(ctx context.Context, email string) ([]Score, error) {
	var out []Score
	err := g.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("played_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list scores for user: %w", err)
	}
	return out, nil
}
