package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository hands out gapless document numbers per prefix and year
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// GetNextNumber atomically increments and returns the sequence for a
// prefix/year, starting at 1. The row is locked with SELECT FOR UPDATE; when
// called inside a unit of work the lock is held until it commits.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, prefix string, year int) (int, error) {
	var nextSeq int

	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			seq = domain.NumberSequence{
				Prefix:       prefix,
				Year:         year,
				LastSequence: 1,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			nextSeq = 1
		case result.Error != nil:
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		default:
			nextSeq = seq.LastSequence + 1
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_sequence": nextSeq,
				"updated_at":    time.Now().UTC(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return nextSeq, nil
}

// GetCurrentSequence returns the last number handed out, or 0
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, prefix string, year int) (int, error) {
	var seq domain.NumberSequence
	result := database.Conn(ctx, r.db).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastSequence, nil
}
