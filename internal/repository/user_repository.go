package repository

import (
	"context"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := database.Conn(ctx, r.db).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs loads the given users keyed by id. Unknown ids are left out.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	result := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []domain.User
	if err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

// ListActive returns active users ordered by name
func (r *UserRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := database.Conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("display_name ASC").
		Order("email ASC").
		Find(&users).Error
	return users, err
}

// ListActiveIDsExcept returns the ids of active users other than excludeID
func (r *UserRepository) ListActiveIDsExcept(ctx context.Context, excludeID string) ([]string, error) {
	var ids []string
	err := database.Conn(ctx, r.db).
		Model(&domain.User{}).
		Where("is_active = ? AND id <> ?", true, excludeID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Upsert inserts the user or refreshes its profile and login time. The
// active flag of an existing user is left alone.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "role", "last_login_at", "updated_at"}),
		}).
		Create(user).Error
}

// SetActive enables or disables a user
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return database.Conn(ctx, r.db).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
