package repository

import (
	"context"
	"fmt"

	"youth-sports-gamification/models"

	"gorm.io/gorm"
)

// GameRepository reads and writes logged game stat lines.
type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, game *models.GameRecord) error {
	game.PlayedAt = game.PlayedAt.UTC()
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// Recent returns the user's latest games, newest first.
func (r *GameRepository) Recent(ctx context.Context, userID string, limit int) ([]models.GameRecord, error) {
	var games []models.GameRecord
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&games).Error; err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	return games, nil
}
