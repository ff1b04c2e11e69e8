// Package audit records who changed what, with before and after snapshots.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/google/uuid"
)

// Action names an audited state change
type Action string

const (
	ActionProductRegistered       Action = "PRODUCT_REGISTERED"
	ActionScheduleChanged         Action = "SCHEDULE_CHANGED"
	ActionPurchaseCreated         Action = "PURCHASE_CREATED"
	ActionPurchaseApproved        Action = "PURCHASE_APPROVED"
	ActionPurchaseRejected        Action = "PURCHASE_REJECTED"
	ActionSaleCreated             Action = "SALE_CREATED"
	ActionReturnCreated           Action = "RETURN_CREATED"
	ActionReturnApproved          Action = "RETURN_APPROVED"
	ActionDisposalCreated         Action = "DISPOSAL_CREATED"
	ActionStockIssued             Action = "STOCK_ISSUED"
	ActionStockReturnedToSupplier Action = "STOCK_RETURNED_TO_SUPPLIER"
)

// Entry is one append-only audit record
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActorID    string    `gorm:"type:varchar(100);not null;index"`
	ActorRole  string    `gorm:"type:varchar(20);not null"`
	Action     Action    `gorm:"type:varchar(40);not null;index"`
	EntityType string    `gorm:"type:varchar(40);not null;index:idx_audit_entity,priority:1"`
	EntityID   string    `gorm:"type:varchar(100);not null;index:idx_audit_entity,priority:2"`
	Before     string    `gorm:"type:text"`
	After      string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "audit_log"
}

// NewEntry snapshots before and after as JSON. A nil snapshot is stored empty.
func NewEntry(actor identity.Actor, action Action, entityType, entityID string, before, after any, now time.Time) (*Entry, error) {
	b, err := snapshot(before)
	if err != nil {
		return nil, fmt.Errorf("audit before snapshot: %w", err)
	}
	a, err := snapshot(after)
	if err != nil {
		return nil, fmt.Errorf("audit after snapshot: %w", err)
	}
	return &Entry{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role.String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     b,
		After:      a,
		CreatedAt:  now,
	}, nil
}

func snapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Repository is the append-only audit store
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	FindByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
}
