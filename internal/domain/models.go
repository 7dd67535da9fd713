package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderPriority represents how urgent an order is
type OrderPriority string

const (
	PriorityLow    OrderPriority = "Low"
	PriorityMedium OrderPriority = "Medium"
	PriorityHigh   OrderPriority = "High"
	PriorityUrgent OrderPriority = "Urgent"
)

// IsValid checks if the priority is a valid value
func (p OrderPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// UnassignedSentinel is the assignee value that clears an assignment
const UnassignedSentinel = "unassigned"

// Order is a customer order handled by the agency
type Order struct {
	ID              string        `gorm:"type:varchar(64);primaryKey"`
	CompanyName     string        `gorm:"type:varchar(200);not null;index"`
	ContactName     string        `gorm:"type:varchar(200)"`
	ContactEmail    string        `gorm:"type:varchar(255)"`
	ContactPhone    string        `gorm:"type:varchar(50)"`
	Description     string        `gorm:"type:text"`
	Price           float64       `gorm:"not null;default:0"`
	Currency        string        `gorm:"type:varchar(3);not null;default:'EUR'"`
	Priority        OrderPriority `gorm:"type:varchar(20);not null;default:'Medium'"`
	Statuses        StatusSet     `gorm:"column:status_flags;not null;default:0"`
	AssignedToID    *string       `gorm:"type:varchar(255);index"`
	IsYearlyPackage bool          `gorm:"not null;default:false;index"`
	Version         int           `gorm:"not null;default:1"`
	CreatedAt       time.Time     `gorm:"not null"`
	UpdatedAt       time.Time     `gorm:"not null"`
}

// BeforeCreate assigns an opaque id when none was given
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// AssigneeID returns the assignee id or an empty string when unassigned
func (o *Order) AssigneeID() string {
	if o.AssignedToID == nil {
		return ""
	}
	return *o.AssignedToID
}

// HistoryKind classifies a history entry
type HistoryKind string

const (
	HistoryKindCreated       HistoryKind = "created"
	HistoryKindStatusAdded   HistoryKind = "status_added"
	HistoryKindStatusRemoved HistoryKind = "status_removed"
	HistoryKindAssigned      HistoryKind = "assigned"
	HistoryKindUnassigned    HistoryKind = "unassigned"
	HistoryKindEdited        HistoryKind = "edited"
)

// OrderStatusHistory is an append-only record of one change to an order
type OrderStatusHistory struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	OrderID       string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_history_sequence,priority:1"`
	Sequence      int         `gorm:"not null;uniqueIndex:idx_order_history_sequence,priority:2"`
	Kind          HistoryKind `gorm:"type:varchar(30);not null"`
	Status        *StatusName `gorm:"type:varchar(50)"`
	ChangedByID   string      `gorm:"type:varchar(255);not null"`
	ChangedByName string      `gorm:"type:varchar(200);not null"`
	Note          string      `gorm:"type:text"`
	ChangedAt     time.Time   `gorm:"not null"`
}

// TableName overrides the default table name
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// Client is a billed customer. Clients are matched to orders by exact company name.
type Client struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Email       string    `gorm:"type:varchar(255)"`
	NeedsReview bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the invoice status is a valid value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is billed to a client, optionally created from an order
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey"`
	InvoiceNumber string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	ClientName    string        `gorm:"type:varchar(200);not null"`
	SourceOrderID *string       `gorm:"type:varchar(64);index"`
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	IssueDate     time.Time     `gorm:"not null"`
	DueDate       time.Time     `gorm:"not null"`
	Currency      string        `gorm:"type:varchar(3);not null"`
	VATRate       float64       `gorm:"not null"`
	Subtotal      float64       `gorm:"not null"`
	VATAmount     float64       `gorm:"not null"`
	Total         float64       `gorm:"not null"`
	Notes         string        `gorm:"type:text"`
	PaidAt        *time.Time
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is a single invoice line
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"type:text;not null"`
	Quantity    float64   `gorm:"not null"`
	UnitPrice   float64   `gorm:"not null"`
	Amount      float64   `gorm:"not null"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// PaymentReminder is an optional scheduled payment reminder, at most one per order
type PaymentReminder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	RemindAt    time.Time `gorm:"not null;index"`
	Note        string    `gorm:"type:text"`
	Sent        bool      `gorm:"not null;default:false"`
	SentAt      *time.Time
	CreatedByID string `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *PaymentReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// UserRoleType represents a user's role
type UserRoleType string

const (
	RoleUser  UserRoleType = "user"
	RoleAgent UserRoleType = "agent"
	RoleAdmin UserRoleType = "admin"
)

// IsValid checks if the role is a valid value
func (r UserRoleType) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is a team member known from the identity provider
type User struct {
	ID          string       `gorm:"type:varchar(255);primaryKey"`
	Email       string       `gorm:"type:varchar(255);index"`
	DisplayName string       `gorm:"type:varchar(200)"`
	Role        UserRoleType `gorm:"type:varchar(20);not null;default:'user'"`
	IsActive    bool         `gorm:"not null;default:true"`
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResolvedName returns the name shown for the user: display name, then email,
// then "Unknown User".
func (u *User) ResolvedName() string {
	if u == nil {
		return UnknownUserName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUserName
}

// UnknownUserName is shown when a user cannot be resolved
const UnknownUserName = "Unknown User"

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeOrderStatusChanged NotificationType = "order_status_changed"
	NotificationTypeOrderAssigned      NotificationType = "order_assigned"
	NotificationTypeOrderCreated       NotificationType = "order_created"
	NotificationTypeOrderUpdated       NotificationType = "order_updated"
	NotificationTypePaymentReminder    NotificationType = "payment_reminder"
)

// Notification is a persisted, per-user notification
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     string    `gorm:"type:varchar(255);not null;index"`
	Type       string    `gorm:"type:varchar(50);not null"`
	Title      string    `gorm:"type:varchar(200);not null"`
	Message    string    `gorm:"type:text;not null"`
	ActionURL  string    `gorm:"type:varchar(500)"`
	EntityID   string    `gorm:"type:varchar(64)"`
	EntityType string    `gorm:"type:varchar(50)"`
	Read       bool      `gorm:"not null;default:false"`
	ReadAt     *time.Time
	CreatedAt  time.Time
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NumberSequence tracks the last number handed out per prefix and year
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_number_sequence_prefix_year,priority:1"`
	Year         int       `gorm:"not null;uniqueIndex:idx_number_sequence_prefix_year,priority:2"`
	LastSequence int       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Statuses       []StatusName
	AssignedToID   *string // UnassignedSentinel selects unassigned orders
	YearlyPackage  bool
	IncludeDeleted bool
	Search         string
	Page           int
	PageSize       int
}
