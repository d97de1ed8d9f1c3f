package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// loadActor resolves the authenticated principal inside a unit of work.
// Unknown principals are unauthorized and deactivated ones may not act.
func loadActor(ctx context.Context, tx Transaction, users UserRepository, actorID string) (*domain.User, error) {
	if actorID == "" {
		return nil, domain.ErrUnauthorized
	}

	actor, err := users.GetByID(ctx, tx, actorID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := actor.EnsureActive(); err != nil {
		return nil, err
	}

	return actor, nil
}

func writeEvent(
	ctx context.Context,
	tx Transaction,
	outbox OutboxRepository,
	idGen IDGenerator,
	aggregateType, aggregateID, eventType string,
	payload any,
	now time.Time,
) error {
	if outbox == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.Payload(payload),
		CreatedAt:     now,
	}

	return outbox.Create(ctx, tx, event)
}

type auditEntry struct {
	actorID      string
	action       domain.AuditAction
	resourceType string
	resourceID   string
	before       any
	after        any
}

func writeAudit(ctx context.Context, tx Transaction, audit AuditRepository, idGen IDGenerator, entry auditEntry, now time.Time) error {
	if audit == nil {
		return nil
	}

	actorID := entry.actorID
	if actorID == "" {
		actorID = systemActor
	}

	info := domain.RequestInfoFromContext(ctx)
	log := &domain.AuditLog{
		ID:           idGen.Generate(),
		UserID:       actorID,
		Action:       string(entry.action),
		ResourceType: entry.resourceType,
		ResourceID:   entry.resourceID,
		IPAddress:    info.IPAddress,
		UserAgent:    info.UserAgent,
		RequestID:    info.RequestID,
		BeforeState:  domain.MarshalState(entry.before),
		AfterState:   domain.MarshalState(entry.after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	return audit.CreateTx(ctx, tx, log)
}

func validateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key exceeds %d characters", domain.ErrValidation, MaxIdempotencyKeyLength)
	}
	return nil
}
