package service

import (
	"context"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"go.uber.org/zap"
)

// orderPresenter builds order DTOs with their read-time projections:
// primary status, assignee name and payment reminder flag. Lookup failures
// degrade the projection and are logged, never returned.
type orderPresenter struct {
	history   HistoryStore
	users     UserDirectory
	reminders PaymentReminderStore
	logger    *zap.Logger
}

func newOrderPresenter(history HistoryStore, users UserDirectory, reminders PaymentReminderStore, logger *zap.Logger) *orderPresenter {
	return &orderPresenter{
		history:   history,
		users:     users,
		reminders: reminders,
		logger:    logger,
	}
}

func (p *orderPresenter) one(ctx context.Context, order *domain.Order) domain.OrderDTO {
	dtos := p.many(ctx, []domain.Order{*order})
	return dtos[0]
}

func (p *orderPresenter) many(ctx context.Context, orders []domain.Order) []domain.OrderDTO {
	orderIDs := make([]string, 0, len(orders))
	assigneeIDs := make([]string, 0, len(orders))
	seen := make(map[string]bool)
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if id := o.AssigneeID(); id != "" && !seen[id] {
			seen[id] = true
			assigneeIDs = append(assigneeIDs, id)
		}
	}

	additions, err := p.history.ListStatusAdditions(ctx, orderIDs)
	if err != nil {
		p.logger.Warn("failed to load status history for orders", zap.Error(err))
		additions = nil
	}

	users, err := p.users.GetByIDs(ctx, assigneeIDs)
	if err != nil {
		p.logger.Warn("failed to resolve assignees", zap.Error(err))
		users = nil
	}

	var hasReminder map[string]bool
	if p.reminders != nil {
		hasReminder, err = p.reminders.OrderIDsWithReminder(ctx, orderIDs)
		if err != nil {
			p.logger.Warn("failed to load payment reminders for orders", zap.Error(err))
		}
	}

	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		order := &orders[i]
		primary, _ := domain.PrimaryStatus(domain.ActiveStatuses(order), additions[order.ID])

		view := mapper.OrderView{
			PrimaryStatus:      primary,
			HasPaymentReminder: hasReminder[order.ID],
		}
		if id := order.AssigneeID(); id != "" {
			view.AssigneeName = users[id].ResolvedName()
		}
		dtos[i] = mapper.ToOrderDTO(order, view)
	}
	return dtos
}
