package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/domain"
)

// Transactor runs fn as one unit of work. Stores called with the context
// passed to fn take part in it.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderStore persists orders
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	CountByStatus(ctx context.Context, filter domain.OrderFilter) (map[domain.StatusName]int64, int64, error)
}

// HistoryStore is the append-only order history log
type HistoryStore interface {
	Append(ctx context.Context, entry *domain.OrderStatusHistory) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error)
	ListStatusAdditions(ctx context.Context, orderIDs []string) (map[string][]domain.OrderStatusHistory, error)
}

// ClientStore persists billed clients
type ClientStore interface {
	CreateIfAbsent(ctx context.Context, client *domain.Client) (bool, error)
	FindByName(ctx context.Context, name string) (*domain.Client, error)
}

// InvoiceStore persists invoices
type InvoiceStore interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	FindBySourceOrder(ctx context.Context, orderID string) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, invoice *domain.Invoice, status domain.InvoiceStatus) error
	LinkSourceOrder(ctx context.Context, invoice *domain.Invoice, orderID string) error
}

// SequenceStore hands out document numbers
type SequenceStore interface {
	GetNextNumber(ctx context.Context, prefix string, year int) (int, error)
}

// NumberGenerator formats invoice numbers
type NumberGenerator interface {
	GenerateInvoiceNumber(ctx context.Context) (string, error)
}

// UserDirectory resolves team members
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
	ListActiveIDsExcept(ctx context.Context, excludeID string) ([]string, error)
}

// NotificationStore persists per-user notifications
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int, unreadOnly bool, notificationType string) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// PaymentReminderStore persists payment reminders
type PaymentReminderStore interface {
	GetByOrder(ctx context.Context, orderID string) (*domain.PaymentReminder, error)
	Upsert(ctx context.Context, reminder *domain.PaymentReminder) error
	DeleteByOrder(ctx context.Context, orderID string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.PaymentReminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	OrderIDsWithReminder(ctx context.Context, orderIDs []string) (map[string]bool, error)
}

// TeamNotice is a message for every team member except the actor
type TeamNotice struct {
	ActorID    string
	Type       domain.NotificationType
	Title      string
	Message    string
	EntityType string
	EntityID   string
	ActionURL  string
}

// TeamNotifier fans a notice out to the team. Implementations never report
// delivery failures to the caller.
type TeamNotifier interface {
	NotifyTeam(ctx context.Context, notice TeamNotice)
}
