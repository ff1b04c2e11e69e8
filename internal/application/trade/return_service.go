package trade

import (
	"context"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/returns"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReturnService takes patient returns back into stock
type ReturnService struct {
	repos  appshared.Repositories
	scope  appshared.TransactionScope
	guard  *appshared.StockGuard
	audit  *appshared.AuditRecorder
	clock  shared.Clock
	logger *zap.Logger
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	repos appshared.Repositories,
	scope appshared.TransactionScope,
	guard *appshared.StockGuard,
	recorder *appshared.AuditRecorder,
	clock shared.Clock,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		repos:  repos,
		scope:  scope,
		guard:  guard,
		audit:  recorder,
		clock:  clock,
		logger: logger,
	}
}

// CreateReturn reverses sale lines in proportion to the units returned and
// re-credits them to the same batches. Returns of a scheduled sale made by a
// non-privileged role are held PENDING_APPROVAL.
func (s *ReturnService) CreateReturn(ctx context.Context, actor identity.Actor, req CreateReturnRequest) (*ReturnResponse, error) {
	sl, err := s.repos.Sales().FindByID(ctx, req.SaleID)
	if err != nil {
		return nil, err
	}

	inputs := make([]returns.ItemInput, len(req.Items))
	batchIDs := make([]uuid.UUID, 0, len(req.Items))
	for i, it := range req.Items {
		inputs[i] = returns.ItemInput{SaleItemID: it.SaleItemID, BatchID: it.BatchID, QtyReturned: it.QtyReturned}
		orig, ok := sl.ItemByID(it.SaleItemID)
		if !ok {
			return nil, shared.NewNotFoundError("sale item", it.SaleItemID)
		}
		batchIDs = append(batchIDs, orig.BatchID)
	}
	now := s.clock.Now()

	var r *returns.Return
	err = s.guard.Run(ctx, batchIDs, func(repos appshared.Repositories, _ appshared.LockedBatches) error {
		already, err := repos.Returns().ReturnedQty(ctx, sl.ID)
		if err != nil {
			return err
		}
		r, err = returns.NewReturn(sl, inputs, already, req.Reason, actor, now)
		if err != nil {
			return err
		}
		if err := repos.Returns().Create(ctx, r); err != nil {
			return err
		}

		entries := make([]*inventory.StockLedgerEntry, 0, len(r.Items))
		for i := range r.Items {
			it := &r.Items[i]
			e, err := inventory.NewEntry(inventory.Movement{
				Type:        inventory.TxnReturnIn,
				ProductID:   it.ProductID,
				BatchID:     it.BatchID,
				Qty:         it.QtyReturned,
				CostPerUnit: it.CostPerUnit,
				MRP:         it.MRP,
				Ref:         inventory.Ref{Type: inventory.RefReturn, ID: r.ID},
				Note:        "return against bill " + sl.BillNo,
				ActorID:     actor.ID,
			}, now)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return repos.Ledger().Append(ctx, entries...)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return created",
		zap.String("return_id", r.ID.String()),
		zap.String("sale_id", sl.ID.String()),
		zap.String("status", string(r.Status)),
		zap.String("net", r.Totals.Net.StringFixed(2)),
	)
	resp := ToReturnResponse(r)
	s.audit.Record(ctx, actor, audit.ActionReturnCreated, "return", r.ID.String(), nil, resp)
	return &resp, nil
}

// ApproveReturn finalizes a return held for approval
func (s *ReturnService) ApproveReturn(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReturnResponse, error) {
	now := s.clock.Now()

	var r *returns.Return
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		r, err = repos.Returns().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Approve(actor, now); err != nil {
			return err
		}
		return repos.Returns().UpdateStatus(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return approved",
		zap.String("return_id", r.ID.String()),
		zap.String("approved_by", actor.ID),
	)
	resp := ToReturnResponse(r)
	s.audit.Record(ctx, actor, audit.ActionReturnApproved, "return", r.ID.String(),
		map[string]string{"status": string(returns.StatusPendingApproval)}, resp)
	return &resp, nil
}

// GetReturn retrieves a return with its items
func (s *ReturnService) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnResponse, error) {
	r, err := s.repos.Returns().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToReturnResponse(r)
	return &resp, nil
}

// ListReturnsBySale lists every return made against a sale
func (s *ReturnService) ListReturnsBySale(ctx context.Context, saleID uuid.UUID) ([]ReturnResponse, error) {
	rows, err := s.repos.Returns().FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnResponse, len(rows))
	for i := range rows {
		out[i] = ToReturnResponse(&rows[i])
	}
	return out, nil
}
