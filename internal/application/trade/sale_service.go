package trade

import (
	"context"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/domain/tax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService bills patients against approved batches
type SaleService struct {
	repos    appshared.Repositories
	guard    *appshared.StockGuard
	audit    *appshared.AuditRecorder
	settings appshared.Settings
	clock    shared.Clock
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	repos appshared.Repositories,
	guard *appshared.StockGuard,
	recorder *appshared.AuditRecorder,
	settings appshared.Settings,
	clock shared.Clock,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		repos:    repos,
		guard:    guard,
		audit:    recorder,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// CreateSale prices and commits a bill. With the batches locked it checks,
// in order, schedule compliance, ledger stock for every batch (lines on the
// same batch are added up) and the payment total, then writes the sale and
// one SALE ledger entry per line.
func (s *SaleService) CreateSale(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	mode, err := sale.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	lines := make([]sale.LineInput, len(req.Items))
	batchIDs := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		pm, err := sale.ParsePricingMode(it.PricingMode)
		if err != nil {
			return nil, err
		}
		lines[i] = sale.LineInput{
			ProductID:   it.ProductID,
			BatchID:     it.BatchID,
			Nos:         it.Nos,
			PricingMode: pm,
			DiscountPct: it.DiscountPct,
			RateExTax:   it.RateExTax,
		}
		batchIDs[i] = it.BatchID
	}
	payments := make([]sale.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = sale.PaymentInput{Method: p.Method, Amount: p.Amount, Reference: p.Reference}
	}
	var data *schedule.ComplianceData
	if req.Compliance != nil {
		data = &schedule.ComplianceData{RxDocs: req.Compliance.RxDocs, Fields: req.Compliance.Fields}
	}

	customerState := req.Patient.State
	if customerState == "" {
		customerState = s.settings.HomeState
	}
	isIntra := tax.IsIntraState(customerState, s.settings.HomeState)
	now := s.clock.Now()

	var created *sale.Sale
	err = s.guard.Run(ctx, batchIDs, func(repos appshared.Repositories, batches appshared.LockedBatches) error {
		products, err := productsByID(ctx, repos, batches)
		if err != nil {
			return err
		}

		items := make([]sale.SaleItem, 0, len(lines))
		for _, line := range lines {
			b := batches[line.BatchID]
			p := products[b.ProductID]
			item, err := sale.NewItem(isIntra, line, sale.BatchSnapshot{
				ProductID:   b.ProductID,
				BatchID:     b.ID,
				BatchNo:     b.BatchNo,
				MRP:         b.MRP,
				GSTRate:     b.GSTRate,
				CostPerUnit: b.EffectiveCostPerUnit,
				Symbol:      p.ScheduleSymbol,
				Expiry:      b.Expiry,
			}, now)
			if err != nil {
				return err
			}
			if item.ExpiredAtSale {
				if !s.settings.AllowExpiredSale {
					return shared.NewDomainError(shared.CodeExpiredDate, "Batch "+b.BatchNo+" has expired")
				}
				s.logger.Warn("selling expired batch",
					zap.String("batch_id", b.ID.String()),
					zap.String("batch_no", b.BatchNo),
					zap.Time("expiry", b.Expiry),
					zap.String("actor_id", actor.ID),
				)
			}
			items = append(items, *item)
		}

		record, err := sale.EvaluateCompliance(items, data, sale.Override{Requested: req.Override, Reason: req.OverrideReason}, actor)
		if err != nil {
			return err
		}

		sl, err := sale.NewSale(sale.Header{
			BillNo: req.BillNo,
			Mode:   mode,
			Patient: sale.Patient{
				ID:    req.Patient.ID,
				Name:  req.Patient.Name,
				Phone: req.Patient.Phone,
				State: req.Patient.State,
			},
			IsIntraState:  isIntra,
			CreatedBy:     actor.ID,
			CreatedByRole: actor.Role.String(),
		}, items, payments, now)
		if err != nil {
			return err
		}
		sl.Compliance = record

		requested := sl.QtyByBatch()
		ids := make([]uuid.UUID, 0, len(requested))
		for id := range requested {
			ids = append(ids, id)
		}
		balances, err := repos.Ledger().Balances(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range appshared.SortedUnique(ids) {
			if err := inventory.EnsureAvailable(batches[id].BatchNo, balances[id], requested[id]); err != nil {
				return err
			}
		}

		if err := sl.CheckPayments(s.settings.PaymentTolerance); err != nil {
			return err
		}

		exists, err := repos.Sales().ExistsBillNo(ctx, sl.BillNo)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Bill "+sl.BillNo+" already exists")
		}
		if err := repos.Sales().Create(ctx, sl); err != nil {
			return err
		}

		entries := make([]*inventory.StockLedgerEntry, 0, len(sl.Items))
		for i := range sl.Items {
			it := &sl.Items[i]
			e, err := inventory.NewEntry(inventory.Movement{
				Type:        inventory.TxnSale,
				ProductID:   it.ProductID,
				BatchID:     it.BatchID,
				Qty:         it.Nos,
				CostPerUnit: it.CostPerUnit,
				MRP:         it.MRP,
				Ref:         inventory.Ref{Type: inventory.RefSale, ID: sl.ID},
				Note:        "bill " + sl.BillNo,
				ActorID:     actor.ID,
			}, now)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		if err := repos.Ledger().Append(ctx, entries...); err != nil {
			return err
		}
		created = sl
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("sale_id", created.ID.String()),
		zap.String("bill_no", created.BillNo),
		zap.String("net", created.Totals.Net.StringFixed(2)),
		zap.Int("items", len(created.Items)),
	}
	if created.Compliance.OverriddenBy != "" {
		fields = append(fields, zap.String("compliance_overridden_by", created.Compliance.OverriddenBy))
	}
	s.logger.Info("sale created", fields...)

	resp := ToSaleResponse(created)
	s.audit.Record(ctx, actor, audit.ActionSaleCreated, "sale", created.ID.String(), nil, resp)
	return &resp, nil
}

// GetSale retrieves a sale with items and payments
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sl, err := s.repos.Sales().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sl)
	return &resp, nil
}

// ListSales lists sale headers, newest first. Items and payments are not loaded.
func (s *SaleService) ListSales(ctx context.Context, filter SaleListFilter) ([]SaleResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search
	if filter.Mode != "" {
		f.Filters["mode"] = filter.Mode
	}
	if filter.PatientID != "" {
		f.Filters["patient_id"] = filter.PatientID
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		// the day named by To is included
		f.Filters["to"] = filter.To.AddDate(0, 0, 1)
	}

	list, total, err := s.repos.Sales().FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SaleResponse, len(list))
	for i := range list {
		out[i] = ToSaleResponse(&list[i])
	}
	return out, total, nil
}

func productsByID(ctx context.Context, repos appshared.Repositories, batches appshared.LockedBatches) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(batches))
	for _, b := range batches {
		ids = append(ids, b.ProductID)
	}
	list, err := repos.Products().FindByIDs(ctx, appshared.SortedUnique(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*catalog.Product, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, shared.NewNotFoundError("product", id)
		}
	}
	return out, nil
}
