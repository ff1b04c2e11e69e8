package persistence

import (
	"context"

	"github.com/ehr/pharmacy/internal/domain/audit"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts an audit entry
func (r *GormAuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// FindByEntity lists the audit trail of one entity, oldest first
func (r *GormAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]audit.Entry, error) {
	var rows []audit.Entry
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
