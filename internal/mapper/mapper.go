package mapper

import (
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// FormatTime renders a timestamp in UTC the way DTOs carry it
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// OrderView carries the read-time projections of an order
type OrderView struct {
	PrimaryStatus      domain.StatusName
	AssigneeName       string
	HasPaymentReminder bool
}

// ToOrderDTO converts Order to OrderDTO
func ToOrderDTO(order *domain.Order, view OrderView) domain.OrderDTO {
	return domain.OrderDTO{
		ID:                 order.ID,
		CompanyName:        order.CompanyName,
		ContactName:        order.ContactName,
		ContactEmail:       order.ContactEmail,
		ContactPhone:       order.ContactPhone,
		Description:        order.Description,
		Price:              order.Price,
		Currency:           order.Currency,
		Priority:           string(order.Priority),
		Statuses:           domain.ActiveStatuses(order).Strings(),
		PrimaryStatus:      string(view.PrimaryStatus),
		AssignedToID:       order.AssigneeID(),
		AssignedToName:     view.AssigneeName,
		IsYearlyPackage:    order.IsYearlyPackage,
		HasPaymentReminder: view.HasPaymentReminder,
		Version:            order.Version,
		CreatedAt:          FormatTime(order.CreatedAt),
		UpdatedAt:          FormatTime(order.UpdatedAt),
	}
}

// ToOrderHistoryDTO converts OrderStatusHistory to OrderHistoryDTO
func ToOrderHistoryDTO(entry *domain.OrderStatusHistory) domain.OrderHistoryDTO {
	dto := domain.OrderHistoryDTO{
		ID:            entry.ID,
		OrderID:       entry.OrderID,
		Sequence:      entry.Sequence,
		Kind:          string(entry.Kind),
		ChangedByID:   entry.ChangedByID,
		ChangedByName: entry.ChangedByName,
		Note:          entry.Note,
		ChangedAt:     FormatTime(entry.ChangedAt),
	}
	if entry.Status != nil {
		dto.Status = string(*entry.Status)
	}
	return dto
}

// ToInvoiceDTO converts Invoice to InvoiceDTO
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	items := make([]domain.InvoiceItemDTO, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = domain.InvoiceItemDTO{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	dto := domain.InvoiceDTO{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		ClientID:      invoice.ClientID,
		ClientName:    invoice.ClientName,
		Status:        string(invoice.Status),
		IssueDate:     FormatTime(invoice.IssueDate),
		DueDate:       FormatTime(invoice.DueDate),
		Currency:      invoice.Currency,
		VATRate:       invoice.VATRate,
		Subtotal:      invoice.Subtotal,
		VATAmount:     invoice.VATAmount,
		Total:         invoice.Total,
		Notes:         invoice.Notes,
		PaidAt:        formatOptionalTime(invoice.PaidAt),
		Items:         items,
	}
	if invoice.SourceOrderID != nil {
		dto.SourceOrderID = *invoice.SourceOrderID
	}
	return dto
}

// ToPaymentReminderDTO converts PaymentReminder to PaymentReminderDTO
func ToPaymentReminderDTO(reminder *domain.PaymentReminder) domain.PaymentReminderDTO {
	return domain.PaymentReminderDTO{
		ID:        reminder.ID,
		OrderID:   reminder.OrderID,
		RemindAt:  FormatTime(reminder.RemindAt),
		Note:      reminder.Note,
		Sent:      reminder.Sent,
		SentAt:    formatOptionalTime(reminder.SentAt),
		CreatedAt: FormatTime(reminder.CreatedAt),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.ResolvedName(),
		Role:        string(user.Role),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(notification *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:         notification.ID,
		Type:       notification.Type,
		Title:      notification.Title,
		Message:    notification.Message,
		ActionURL:  notification.ActionURL,
		Read:       notification.Read,
		CreatedAt:  FormatTime(notification.CreatedAt),
		EntityID:   notification.EntityID,
		EntityType: notification.EntityType,
	}
}
