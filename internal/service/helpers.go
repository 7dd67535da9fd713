package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"gorm.io/gorm"
)

// currentUser returns the authenticated caller
func currentUser(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	return userCtx, nil
}

// requireRole returns the caller if it holds one of roles
func requireRole(ctx context.Context, roles ...domain.UserRoleType) (*auth.UserContext, error) {
	userCtx, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.HasAnyRole(roles...) {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// requireAdmin guards admin-only mutations. It runs before any store access.
func requireAdmin(ctx context.Context) (*auth.UserContext, error) {
	return requireRole(ctx, domain.RoleAdmin)
}

// orderError translates store errors for an order lookup or write
func orderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrStaleOrder
	default:
		return fmt.Errorf("order store: %w", err)
	}
}

func newHistoryEntry(orderID string, actor *auth.UserContext, kind domain.HistoryKind, status *domain.StatusName, note string) *domain.OrderStatusHistory {
	return &domain.OrderStatusHistory{
		OrderID:       orderID,
		Kind:          kind,
		Status:        status,
		ChangedByID:   actor.UserID,
		ChangedByName: actor.Name(),
		Note:          note,
		ChangedAt:     time.Now().UTC(),
	}
}

// withComment appends the caller's free-text comment to a generated note
func withComment(note, comment string) string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return note
	}
	return note + ": " + comment
}

func orderActionURL(orderID string) string {
	return "/orders/" + orderID
}
