package shared

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/identity"
	domainshared "github.com/ehr/pharmacy/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditRecorder writes audit entries on a best-effort basis. A failed write
// is logged and never fails the business operation.
type AuditRecorder struct {
	repo   audit.Repository
	clock  domainshared.Clock
	logger *zap.Logger
}

// NewAuditRecorder creates an AuditRecorder
func NewAuditRecorder(repo audit.Repository, clock domainshared.Clock, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, clock: clock, logger: logger}
}

// Record appends an audit entry. Call it after the business transaction commits.
func (r *AuditRecorder) Record(
	ctx context.Context,
	actor identity.Actor,
	action audit.Action,
	entityType, entityID string,
	before, after any,
) {
	if r == nil || r.repo == nil {
		return
	}
	entry, err := audit.NewEntry(actor, action, entityType, entityID, before, after, r.clock.Now())
	if err == nil {
		err = r.repo.Append(ctx, entry)
	}
	if err != nil {
		r.logger.Warn("audit write failed",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("actor_id", actor.ID),
			zap.Error(err),
		)
	}
}
