package inventory

import (
	"context"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/disposal"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DisposalService writes off expired, damaged and recalled stock
type DisposalService struct {
	repos  appshared.Repositories
	guard  *appshared.StockGuard
	audit  *appshared.AuditRecorder
	clock  shared.Clock
	logger *zap.Logger
}

// NewDisposalService creates a new DisposalService
func NewDisposalService(
	repos appshared.Repositories,
	guard *appshared.StockGuard,
	recorder *appshared.AuditRecorder,
	clock shared.Clock,
	logger *zap.Logger,
) *DisposalService {
	return &DisposalService{
		repos:  repos,
		guard:  guard,
		audit:  recorder,
		clock:  clock,
		logger: logger,
	}
}

// CreateDisposal records the write-off with its ITC reversal and posts a
// DISPOSAL ledger entry, both under the batch lock.
func (s *DisposalService) CreateDisposal(ctx context.Context, actor identity.Actor, req CreateDisposalRequest) (*DisposalResponse, error) {
	if !actor.Role.CanDispose() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can dispose stock")
	}
	reason, err := disposal.ParseReason(req.Reason)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var created *disposal.Disposal
	err = s.guard.Run(ctx, []uuid.UUID{req.BatchID}, func(repos appshared.Repositories, batches appshared.LockedBatches) error {
		b := batches[req.BatchID]
		src, err := repos.Purchases().FindByID(ctx, b.PurchaseID)
		if err != nil {
			return err
		}
		d, err := disposal.NewDisposal(b, src, req.Qty, reason, req.Remark, actor, now)
		if err != nil {
			return err
		}
		balance, err := repos.Ledger().Balance(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := inventory.EnsureAvailable(b.BatchNo, balance, d.Qty); err != nil {
			return err
		}
		if err := repos.Disposals().Create(ctx, d); err != nil {
			return err
		}
		entry, err := inventory.NewEntry(inventory.Movement{
			Type:        inventory.TxnDisposal,
			ProductID:   b.ProductID,
			BatchID:     b.ID,
			Qty:         d.Qty,
			CostPerUnit: b.EffectiveCostPerUnit,
			MRP:         b.MRP,
			Ref:         inventory.Ref{Type: inventory.RefDisposal, ID: d.ID},
			Note:        string(d.Reason),
			ActorID:     actor.ID,
		}, now)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock disposed",
		zap.String("disposal_id", created.ID.String()),
		zap.String("batch_id", created.BatchID.String()),
		zap.Int64("qty", created.Qty),
		zap.String("reason", string(created.Reason)),
		zap.String("itc_reversal", created.ITCReversal.StringFixed(2)),
	)
	resp := ToDisposalResponse(created)
	s.audit.Record(ctx, actor, audit.ActionDisposalCreated, "disposal", created.ID.String(), nil, resp)
	return &resp, nil
}

// GetDisposal returns a disposal by ID
func (s *DisposalService) GetDisposal(ctx context.Context, id uuid.UUID) (*DisposalResponse, error) {
	d, err := s.repos.Disposals().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDisposalResponse(d)
	return &resp, nil
}

// ListDisposalsByBatch returns the disposals made against a batch
func (s *DisposalService) ListDisposalsByBatch(ctx context.Context, batchID uuid.UUID) ([]DisposalResponse, error) {
	rows, err := s.repos.Disposals().FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	out := make([]DisposalResponse, len(rows))
	for i := range rows {
		out[i] = ToDisposalResponse(&rows[i])
	}
	return out, nil
}
