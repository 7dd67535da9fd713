package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentReminderJobName is the name of the payment reminder job
const PaymentReminderJobName = "payment_reminders"

// ReminderProcessor delivers due payment reminders
type ReminderProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

// PaymentReminderJob sends the payment reminders that have come due
type PaymentReminderJob struct {
	reminders ReminderProcessor
	now       func() time.Time
	logger    *zap.Logger
}

// NewPaymentReminderJob creates a new payment reminder job
func NewPaymentReminderJob(reminders ReminderProcessor, logger *zap.Logger) *PaymentReminderJob {
	return &PaymentReminderJob{
		reminders: reminders,
		now:       time.Now,
		logger:    logger,
	}
}

// Run processes the reminders due at the current time
func (j *PaymentReminderJob) Run(ctx context.Context) error {
	sent, err := j.reminders.ProcessDue(ctx, j.now().UTC())
	if err != nil {
		return err
	}
	if sent > 0 {
		j.logger.Info("payment reminders sent", zap.Int("count", sent))
	}
	return nil
}
