package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return database.Conn(ctx, r.db).Create(client).Error
}

// CreateIfAbsent inserts the client unless one with the same name exists. When
// another writer got there first, client is overwritten with the stored row
// and created is false.
func (r *ClientRepository) CreateIfAbsent(ctx context.Context, client *domain.Client) (bool, error) {
	result := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(client)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindByName(ctx, client.Name)
	if err != nil {
		return false, err
	}
	*client = *existing
	return false, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := database.Conn(ctx, r.db).First(&client, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByName looks a client up by exact, case-sensitive name
func (r *ClientRepository) FindByName(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := database.Conn(ctx, r.db).Where("name = ?", name).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}
