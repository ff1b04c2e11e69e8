package trade

import (
	"context"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService records supplier invoices and moves them through approval
type PurchaseService struct {
	repos    appshared.Repositories
	scope    appshared.TransactionScope
	audit    *appshared.AuditRecorder
	settings appshared.Settings
	clock    shared.Clock
	logger   *zap.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(
	repos appshared.Repositories,
	scope appshared.TransactionScope,
	recorder *appshared.AuditRecorder,
	settings appshared.Settings,
	clock shared.Clock,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		repos:    repos,
		scope:    scope,
		audit:    recorder,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// CreatePurchase records a pending purchase. Its batches are costed now but
// stay out of the stock ledger until approval.
func (s *PurchaseService) CreatePurchase(ctx context.Context, actor identity.Actor, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	typ, err := purchase.ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	header := purchase.Header{
		InvoiceNo:     req.InvoiceNo,
		SupplierID:    req.SupplierID,
		SupplierName:  req.SupplierName,
		SupplierState: req.SupplierState,
		Type:          typ,
		CreatedBy:     actor.ID,
	}
	if req.InvoiceDate != nil {
		header.InvoiceDate = *req.InvoiceDate
	}

	lines := make([]purchase.LineInput, len(req.Lines))
	productIDs := make([]uuid.UUID, 0, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = purchase.LineInput{
			ProductID:    l.ProductID,
			BatchNo:      l.BatchNo,
			Expiry:       l.Expiry,
			GSTRate:      l.GSTRate,
			MRP:          l.MRP,
			TradePriceEx: l.TradePriceEx,
			SchemePct:    l.SchemePct,
			CashPct:      l.CashPct,
			ReceivedQty:  l.ReceivedQty,
			FreeQty:      l.FreeQty,
		}
		productIDs = append(productIDs, l.ProductID)
	}

	p, err := purchase.NewPurchase(header, s.settings.HomeState, lines, now)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		if err := ensureProducts(ctx, repos, productIDs); err != nil {
			return err
		}
		exists, err := repos.Purchases().ExistsInvoice(ctx, p.SupplierID, p.InvoiceNo)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Invoice "+p.InvoiceNo+" is already recorded for this supplier")
		}
		return repos.Purchases().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase created",
		zap.String("purchase_id", p.ID.String()),
		zap.String("invoice_no", p.InvoiceNo),
		zap.Bool("intra_state", p.IsIntraState),
		zap.Int("lines", len(p.Batches)),
		zap.String("net_payable", p.Totals.NetPayable.StringFixed(2)),
	)
	resp := ToPurchaseResponse(p)
	s.audit.Record(ctx, actor, audit.ActionPurchaseCreated, "purchase", p.ID.String(), nil, resp)
	return &resp, nil
}

// ApprovePurchase approves a pending purchase and posts one PURCHASE ledger
// entry per batch, all in one transaction.
func (s *PurchaseService) ApprovePurchase(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PurchaseResponse, error) {
	if !actor.Role.CanApprove() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can approve purchases")
	}
	now := s.clock.Now()

	var p *purchase.Purchase
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		p, err = repos.Purchases().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Approve(actor.ID, now); err != nil {
			return err
		}
		if err := repos.Purchases().UpdateStatus(ctx, p); err != nil {
			return err
		}

		entries := make([]*inventory.StockLedgerEntry, 0, len(p.Batches))
		for i := range p.Batches {
			b := &p.Batches[i]
			e, err := inventory.NewEntry(inventory.Movement{
				Type:        inventory.TxnPurchase,
				ProductID:   b.ProductID,
				BatchID:     b.ID,
				Qty:         b.TotalQty(),
				CostPerUnit: b.EffectiveCostPerUnit,
				MRP:         b.MRP,
				Ref:         inventory.Ref{Type: inventory.RefPurchase, ID: p.ID},
				Note:        "invoice " + p.InvoiceNo,
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

	s.logger.Info("purchase approved",
		zap.String("purchase_id", p.ID.String()),
		zap.String("approved_by", actor.ID),
		zap.Int("batches", len(p.Batches)),
	)
	resp := ToPurchaseResponse(p)
	s.audit.Record(ctx, actor, audit.ActionPurchaseApproved, "purchase", p.ID.String(),
		map[string]string{"status": string(purchase.StatusPending)}, resp)
	return &resp, nil
}

// RejectPurchase rejects a pending purchase and discards its batches. No
// ledger entry is ever written for a rejected purchase.
func (s *PurchaseService) RejectPurchase(ctx context.Context, actor identity.Actor, id uuid.UUID, req RejectPurchaseRequest) (*PurchaseResponse, error) {
	if !actor.Role.CanApprove() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can reject purchases")
	}
	now := s.clock.Now()

	var p *purchase.Purchase
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		p, err = repos.Purchases().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Reject(actor.ID, req.Reason, now); err != nil {
			return err
		}
		return repos.Purchases().UpdateStatus(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase rejected",
		zap.String("purchase_id", p.ID.String()),
		zap.String("rejected_by", actor.ID),
		zap.String("reason", p.RejectReason),
	)
	resp := ToPurchaseResponse(p)
	s.audit.Record(ctx, actor, audit.ActionPurchaseRejected, "purchase", p.ID.String(),
		map[string]string{"status": string(purchase.StatusPending)}, resp)
	return &resp, nil
}

// GetPurchase retrieves a purchase with its batches
func (s *PurchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*PurchaseResponse, error) {
	p, err := s.repos.Purchases().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(p)
	return &resp, nil
}

// ListPurchases lists purchases, optionally by status
func (s *PurchaseService) ListPurchases(ctx context.Context, filter PurchaseListFilter) ([]PurchaseResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}

	list, total, err := s.repos.Purchases().FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PurchaseResponse, len(list))
	for i := range list {
		out[i] = ToPurchaseResponse(&list[i])
	}
	return out, total, nil
}

func ensureProducts(ctx context.Context, repos appshared.Repositories, ids []uuid.UUID) error {
	products, err := repos.Products().FindByIDs(ctx, appshared.SortedUnique(ids))
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]struct{}, len(products))
	for i := range products {
		found[products[i].ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return shared.NewNotFoundError("product", id)
		}
	}
	return nil
}
