package inventory

import (
	"context"
	"sort"
	"strings"
	"time"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService answers stock questions from the ledger and posts the
// outflows that have no document of their own: internal issues and returns
// to the supplier.
type InventoryService struct {
	repos  appshared.Repositories
	guard  *appshared.StockGuard
	audit  *appshared.AuditRecorder
	clock  shared.Clock
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	repos appshared.Repositories,
	guard *appshared.StockGuard,
	recorder *appshared.AuditRecorder,
	clock shared.Clock,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		repos:  repos,
		guard:  guard,
		audit:  recorder,
		clock:  clock,
		logger: logger,
	}
}

// CurrentStock returns the ledger balance of a batch
func (s *InventoryService) CurrentStock(ctx context.Context, batchID uuid.UUID) (*StockResponse, error) {
	b, err := s.repos.Batches().FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	balance, err := s.repos.Ledger().Balance(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := toStockResponse(b, balance)
	return &resp, nil
}

// ProductStock returns the balance of every approved batch of a product
func (s *InventoryService) ProductStock(ctx context.Context, productID uuid.UUID) ([]StockResponse, error) {
	batches, err := s.repos.Batches().FindApprovedByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	balances, err := s.repos.Ledger().Balances(ctx, batchIDs(batches))
	if err != nil {
		return nil, err
	}
	out := make([]StockResponse, len(batches))
	for i := range batches {
		out[i] = toStockResponse(&batches[i], balances[batches[i].ID])
	}
	return out, nil
}

// BatchLedger returns the movement history of a batch with running balances
func (s *InventoryService) BatchLedger(ctx context.Context, batchID uuid.UUID) (*BatchLedgerResponse, error) {
	b, err := s.repos.Batches().FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.Ledger().FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	out := make([]LedgerEntryResponse, len(entries))
	var running int64
	for i := range entries {
		running += entries[i].Delta()
		out[i] = toLedgerEntryResponse(&entries[i], running)
	}
	return &BatchLedgerResponse{Stock: toStockResponse(b, running), Entries: out}, nil
}

// StockReport values every approved batch at cost and at MRP and bands it by
// expiry as of asOf. A zero asOf means now.
func (s *InventoryService) StockReport(ctx context.Context, asOf time.Time, filter StockReportFilter) (*StockReportResponse, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	var minBand inventory.ExpiryBand
	if filter.Band != "" {
		band, ok := inventory.ParseBand(filter.Band)
		if !ok {
			return nil, shared.NewValidationError("unknown expiry band %q", filter.Band)
		}
		minBand = band
	}

	batches, err := s.repos.Batches().FindApproved(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.repos.Ledger().Balances(ctx, batchIDs(batches))
	if err != nil {
		return nil, err
	}
	products, err := s.productNames(ctx, batches)
	if err != nil {
		return nil, err
	}

	report := &StockReportResponse{
		AsOf:           asOf,
		Rows:           make([]StockReportRow, 0, len(batches)),
		TotalCostValue: decimal.Zero,
		TotalMRPValue:  decimal.Zero,
	}
	for i := range batches {
		b := &batches[i]
		balance := balances[b.ID]
		if balance == 0 && !filter.IncludeZero {
			continue
		}
		band := inventory.ClassifyExpiry(b.Expiry, asOf)
		if minBand != "" && !band.AtLeast(minBand) {
			continue
		}
		qty := decimal.NewFromInt(balance)
		row := StockReportRow{
			BatchID:     b.ID,
			BatchNo:     b.BatchNo,
			ProductID:   b.ProductID,
			Expiry:      purchase.FormatExpiry(b.Expiry),
			Band:        string(band),
			Expired:     b.IsExpired(asOf),
			Balance:     balance,
			CostPerUnit: b.EffectiveCostPerUnit,
			CostValue:   shared.RoundMoney(qty.Mul(b.EffectiveCostPerUnit)),
			MRP:         b.MRP,
			MRPValue:    shared.RoundMoney(qty.Mul(b.MRP)),
		}
		if p, ok := products[b.ProductID]; ok {
			row.ProductName = p.DisplayName()
			row.Schedule = p.ScheduleSymbol.String()
		}
		report.TotalCostValue = report.TotalCostValue.Add(row.CostValue)
		report.TotalMRPValue = report.TotalMRPValue.Add(row.MRPValue)
		report.Rows = append(report.Rows, row)
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Expiry != b.Expiry {
			return a.Expiry < b.Expiry
		}
		return a.BatchNo < b.BatchNo
	})
	return report, nil
}

// NearExpiry lists in-stock batches in the given band or a more urgent one
func (s *InventoryService) NearExpiry(ctx context.Context, band string) (*StockReportResponse, error) {
	if band == "" {
		band = string(inventory.BandRed)
	}
	return s.StockReport(ctx, time.Time{}, StockReportFilter{Band: band})
}

// IssueInternal moves stock out to a hospital department
func (s *InventoryService) IssueInternal(ctx context.Context, actor identity.Actor, req IssueInternalRequest) (*MovementResponse, error) {
	dept := strings.TrimSpace(req.Department)
	if dept == "" {
		return nil, shared.NewValidationError("department is required")
	}
	note := "issued to " + dept
	if n := strings.TrimSpace(req.Note); n != "" {
		note += ": " + n
	}
	resp, err := s.postOutflow(ctx, actor, req.BatchID, req.Qty, inventory.TxnIssueInternal, inventory.RefIssue, note)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, audit.ActionStockIssued, "batch", req.BatchID.String(), nil, resp)
	return resp, nil
}

// ReturnToSupplier sends stock back to the supplier it was bought from
func (s *InventoryService) ReturnToSupplier(ctx context.Context, actor identity.Actor, req SupplierReturnRequest) (*MovementResponse, error) {
	if !actor.Role.CanApprove() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can return stock to a supplier")
	}
	resp, err := s.postOutflow(ctx, actor, req.BatchID, req.Qty, inventory.TxnReturnOut, inventory.RefSupplierReturn, strings.TrimSpace(req.Reason))
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, audit.ActionStockReturnedToSupplier, "batch", req.BatchID.String(), nil, resp)
	return resp, nil
}

func (s *InventoryService) postOutflow(
	ctx context.Context,
	actor identity.Actor,
	batchID uuid.UUID,
	qty int64,
	txn inventory.TxnType,
	refType inventory.RefType,
	note string,
) (*MovementResponse, error) {
	if qty <= 0 {
		return nil, shared.NewValidationError("quantity must be positive")
	}
	now := s.clock.Now()
	refID := uuid.New()

	var resp *MovementResponse
	err := s.guard.Run(ctx, []uuid.UUID{batchID}, func(repos appshared.Repositories, batches appshared.LockedBatches) error {
		b := batches[batchID]
		balance, err := repos.Ledger().Balance(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := inventory.EnsureAvailable(b.BatchNo, balance, qty); err != nil {
			return err
		}
		entry, err := inventory.NewEntry(inventory.Movement{
			Type:        txn,
			ProductID:   b.ProductID,
			BatchID:     b.ID,
			Qty:         qty,
			CostPerUnit: b.EffectiveCostPerUnit,
			MRP:         b.MRP,
			Ref:         inventory.Ref{Type: refType, ID: refID},
			Note:        note,
			ActorID:     actor.ID,
		}, now)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return err
		}
		resp = &MovementResponse{
			RefID:        refID,
			BatchID:      b.ID,
			BatchNo:      b.BatchNo,
			TxnType:      txn.String(),
			Qty:          qty,
			BalanceAfter: balance - qty,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock moved out",
		zap.String("txn_type", txn.String()),
		zap.String("batch_id", batchID.String()),
		zap.Int64("qty", qty),
		zap.Int64("balance_after", resp.BalanceAfter),
	)
	return resp, nil
}

// VerifyLedger replays a batch's entries in posting order and reports
// whether the running balance ever went negative.
func (s *InventoryService) VerifyLedger(ctx context.Context, batchID uuid.UUID) (*LedgerVerificationResponse, error) {
	if _, err := s.repos.Batches().FindByID(ctx, batchID); err != nil {
		return nil, err
	}
	entries, err := s.repos.Ledger().FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	r := inventory.ReplayEntries(entries)
	resp := &LedgerVerificationResponse{
		BatchID:    batchID,
		Entries:    r.Entries,
		Balance:    r.Balance,
		Consistent: r.Consistent(),
	}
	if !r.Consistent() {
		id := entries[r.FirstNegative].ID
		resp.FirstNegativeAt = &id
		s.logger.Error("ledger went negative",
			zap.String("batch_id", batchID.String()),
			zap.String("entry_id", id.String()),
		)
	}
	return resp, nil
}

func (s *InventoryService) productNames(ctx context.Context, batches []purchase.Batch) (map[uuid.UUID]*catalog.Product, error) {
	seen := make(map[uuid.UUID]struct{}, len(batches))
	ids := make([]uuid.UUID, 0, len(batches))
	for i := range batches {
		if _, ok := seen[batches[i].ProductID]; ok {
			continue
		}
		seen[batches[i].ProductID] = struct{}{}
		ids = append(ids, batches[i].ProductID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*catalog.Product{}, nil
	}
	rows, err := s.repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*catalog.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func batchIDs(batches []purchase.Batch) []uuid.UUID {
	ids := make([]uuid.UUID, len(batches))
	for i := range batches {
		ids[i] = batches[i].ID
	}
	return ids
}

func toStockResponse(b *purchase.Batch, balance int64) StockResponse {
	return StockResponse{
		BatchID:   b.ID,
		BatchNo:   b.BatchNo,
		ProductID: b.ProductID,
		Expiry:    purchase.FormatExpiry(b.Expiry),
		Balance:   balance,
	}
}
