package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// NumberSequenceService generates invoice numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: INV-2025-001
type NumberSequenceService struct {
	repo   SequenceStore
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(repo SequenceStore, prefix string, logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		prefix: prefix,
		now:    time.Now,
		logger: logger,
	}
}

// GenerateInvoiceNumber returns the next invoice number of the current year.
// Inside a unit of work the number is only consumed if it commits.
func (s *NumberSequenceService) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	year := s.now().UTC().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, s.prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", s.prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}

	number := fmt.Sprintf("%s-%d-%03d", s.prefix, year, nextSeq)

	s.logger.Debug("generated invoice number", zap.String("number", number))

	return number, nil
}
