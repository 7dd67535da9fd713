package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// ExtractTx returns the transaction carried by ctx, or nil
func ExtractTx(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok {
		return nil
	}
	return tx
}

// Conn returns the transaction carried by ctx, falling back to db.
// Repositories use it for every query so they join an open unit of work.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := ExtractTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// TxManager runs callbacks inside a database transaction
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Do runs fn in a transaction stored in the callback's context. The
// transaction commits when fn returns nil and rolls back otherwise. Nested
// calls join the outer transaction.
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ExtractTx(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}
