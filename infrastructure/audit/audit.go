package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"invoicer/models"
)

const (
	ActionPictureUpload = "picture.upload"
	ActionInvoiceSubmit = "invoice.submit"
)

// Service writes audit records inside the caller transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, draftID, action, entityType, entityID string, before, after any) error {
	const op = "audit.Service.Write"

	beforeJSON, err := marshal(before)
	if err != nil {
		return fmt.Errorf("%s: before: %w", op, err)
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return fmt.Errorf("%s: after: %w", op, err)
	}
	log := &models.AuditLog{
		DraftID:    draftID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	if _, err := tx.NewInsert().Model(log).Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
