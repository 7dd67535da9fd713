package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/logger"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService handles order creation, reads and detail edits
type OrderService struct {
	tx              Transactor
	orders          OrderStore
	history         HistoryStore
	users           UserDirectory
	publisher       events.Publisher
	notifier        TeamNotifier
	presenter       *orderPresenter
	defaultCurrency string
	logger          *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	tx Transactor,
	orders OrderStore,
	history HistoryStore,
	users UserDirectory,
	reminders PaymentReminderStore,
	publisher events.Publisher,
	notifier TeamNotifier,
	defaultCurrency string,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		tx:              tx,
		orders:          orders,
		history:         history,
		users:           users,
		publisher:       publisher,
		notifier:        notifier,
		presenter:       newOrderPresenter(history, users, reminders, logger),
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Create stores a new order with the Created status. Any authenticated user
// may create orders; assigning one at creation is admin only.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	actor, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	assigneeID := strings.TrimSpace(req.AssignedToID)
	if assigneeID == domain.UnassignedSentinel {
		assigneeID = ""
	}
	if assigneeID != "" && !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	priority := domain.OrderPriority(req.Priority)
	if req.Priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, req.Priority)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              strings.TrimSpace(req.ID),
		CompanyName:     strings.TrimSpace(req.CompanyName),
		ContactName:     strings.TrimSpace(req.ContactName),
		ContactEmail:    strings.TrimSpace(req.ContactEmail),
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		Description:     req.Description,
		Price:           req.Price,
		Currency:        currency,
		Priority:        priority,
		Statuses:        domain.NewStatusSet(domain.StatusCreated),
		IsYearlyPackage: req.YearlyPackage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var assigneeName string
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if order.ID != "" {
			if _, err := s.orders.GetByID(ctx, order.ID); err == nil {
				return fmt.Errorf("%w: %s", ErrOrderExists, order.ID)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return orderError(err)
			}
		}

		if assigneeID != "" {
			user, err := s.users.GetByID(ctx, assigneeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrInvalidAssignee, assigneeID)
				}
				return fmt.Errorf("failed to resolve assignee: %w", err)
			}
			assigneeName = user.ResolvedName()
			order.AssignedToID = &assigneeID
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := s.history.Append(ctx, newHistoryEntry(order.ID, actor, domain.HistoryKindCreated, nil, "Order created")); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
		if assigneeName != "" {
			entry := newHistoryEntry(order.ID, actor, domain.HistoryKindAssigned, nil, "Order assigned to "+assigneeName)
			if err := s.history.Append(ctx, entry); err != nil {
				return fmt.Errorf("failed to append history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithOrder(s.logger, order.ID, actor.UserID).Info("order created", zap.String("company", order.CompanyName))

	s.publisher.Publish(ctx, events.New(events.OrderCreated, order.ID, actor.UserID, map[string]interface{}{
		"companyName": order.CompanyName,
		"assigneeId":  assigneeID,
	}))
	s.notifier.NotifyTeam(ctx, TeamNotice{
		ActorID:    actor.UserID,
		Type:       domain.NotificationTypeOrderCreated,
		Title:      "New order",
		Message:    fmt.Sprintf("%s created an order for %s", actor.Name(), order.CompanyName),
		EntityType: "order",
		EntityID:   order.ID,
		ActionURL:  orderActionURL(order.ID),
	})

	dto := s.presenter.one(ctx, order)
	return &dto, nil
}

// GetByID returns one order
func (s *OrderService) GetByID(ctx context.Context, id string) (*domain.OrderDTO, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, orderError(err)
	}
	dto := s.presenter.one(ctx, order)
	return &dto, nil
}

// List returns a page of orders matching filter
func (s *OrderService) List(ctx context.Context, filter domain.OrderFilter) (*domain.PaginatedResponse, error) {
	filter.Page, filter.PageSize = repository.NormalizePagination(filter.Page, filter.PageSize)

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &domain.PaginatedResponse{
		Data:       s.presenter.many(ctx, orders),
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Counts returns per-status counts for the view selected by filter
func (s *OrderService) Counts(ctx context.Context, filter domain.OrderFilter) (*domain.StatusCountsDTO, error) {
	counts, total, err := s.orders.CountByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	dto := &domain.StatusCountsDTO{
		Total:  total,
		Counts: make(map[string]int64, len(counts)),
	}
	for status, n := range counts {
		dto.Counts[string(status)] = n
	}
	return dto, nil
}

// UpdateDetails edits the descriptive fields of an order. Admin only.
func (s *OrderService) UpdateDetails(ctx context.Context, id string, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	priority := domain.OrderPriority(req.Priority)
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, req.Priority)
	}

	var order *domain.Order
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return orderError(err)
		}

		o.CompanyName = strings.TrimSpace(req.CompanyName)
		o.ContactName = strings.TrimSpace(req.ContactName)
		o.ContactEmail = strings.TrimSpace(req.ContactEmail)
		o.ContactPhone = strings.TrimSpace(req.ContactPhone)
		o.Description = req.Description
		o.Price = req.Price
		o.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
		o.Priority = priority

		if err := s.orders.Update(ctx, o); err != nil {
			return orderError(err)
		}
		entry := newHistoryEntry(o.ID, actor, domain.HistoryKindEdited, nil, withComment("Order details edited", req.Note))
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithOrder(s.logger, order.ID, actor.UserID).Info("order details edited")
	s.publisher.Publish(ctx, events.New(events.OrderUpdated, order.ID, actor.UserID, map[string]interface{}{"fields": "details"}))

	dto := s.presenter.one(ctx, order)
	return &dto, nil
}

// SetYearlyPackage moves an order between the active orders and the yearly
// packages view. Setting the current value changes nothing. Admin only.
func (s *OrderService) SetYearlyPackage(ctx context.Context, id string, yearly bool, note string) (*domain.OrderDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	changed := false
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return orderError(err)
		}
		order = o
		if o.IsYearlyPackage == yearly {
			return nil
		}

		o.IsYearlyPackage = yearly
		if err := s.orders.Update(ctx, o); err != nil {
			return orderError(err)
		}

		text := "Moved to active orders"
		if yearly {
			text = "Moved to yearly packages"
		}
		if err := s.history.Append(ctx, newHistoryEntry(o.ID, actor, domain.HistoryKindEdited, nil, withComment(text, note))); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.Publish(ctx, events.New(events.OrderUpdated, order.ID, actor.UserID, map[string]interface{}{
			"isYearlyPackage": yearly,
		}))
	}

	dto := s.presenter.one(ctx, order)
	return &dto, nil
}

// History returns the change log of an order, newest first
func (s *OrderService) History(ctx context.Context, id string) ([]domain.OrderHistoryDTO, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, orderError(err)
	}

	history, err := s.history.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	dtos := make([]domain.OrderHistoryDTO, len(history))
	for i := range history {
		dtos[i] = mapper.ToOrderHistoryDTO(&history[i])
	}
	return dtos, nil
}

// HardDelete permanently removes an order and its history. Admin only.
// Routine removal goes through the Deleted status instead.
func (s *OrderService) HardDelete(ctx context.Context, id string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		return orderError(s.orders.Delete(ctx, id))
	})
	if err != nil {
		return err
	}

	logger.WithOrder(s.logger, id, actor.UserID).Warn("order permanently deleted")
	s.publisher.Publish(ctx, events.New(events.OrderDeleted, id, actor.UserID, map[string]interface{}{"hard": true}))
	return nil
}
