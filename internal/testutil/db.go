// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a team member
func CreateUser(t *testing.T, db *gorm.DB, id, displayName, email string, role domain.UserRoleType) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateOrder inserts an order with the given statuses
func CreateOrder(t *testing.T, db *gorm.DB, id, company string, statuses ...domain.StatusName) *domain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &domain.Order{
		ID:           id,
		CompanyName:  company,
		ContactName:  "Jane Contact",
		ContactEmail: "jane@example.com",
		Description:  "Website redesign",
		Price:        1000,
		Currency:     "EUR",
		Priority:     domain.PriorityMedium,
		Statuses:     domain.NewStatusSet(statuses...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// AdminContext returns a context authenticated as an admin
func AdminContext(userID string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		DisplayName: "Admin User",
		Email:       "admin@example.com",
		Roles:       []domain.UserRoleType{domain.RoleAdmin},
	})
}

// UserContext returns a context authenticated with the given role
func UserContext(userID string, role domain.UserRoleType) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		DisplayName: "Regular User",
		Email:       "user@example.com",
		Roles:       []domain.UserRoleType{role},
	})
}

// CountHistory returns the number of history entries for an order
func CountHistory(t *testing.T, db *gorm.DB, orderID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.OrderStatusHistory{}).Where("order_id = ?", orderID).Count(&count).Error)
	return count
}

// ReloadOrder reads an order straight from the database
func ReloadOrder(t *testing.T, db *gorm.DB, id string) *domain.Order {
	t.Helper()
	var order domain.Order
	require.NoError(t, db.First(&order, "id = ?", id).Error)
	return &order
}
