package trade

import (
	"context"
	"testing"

	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin      = identity.NewActor("u-admin", "Asha", "admin")
	pharmacist = identity.NewActor("u-pharm", "Meera", "pharmacist")
	assistant  = identity.NewActor("u-asst", "Binu", "assistant")
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func newTestPurchaseService(t *testing.T) (*PurchaseService, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	return NewPurchaseService(env.Repos, env.Scope, env.Audit, env.Settings, env.Clock, env.Logger), env
}

func purchaseRequest(product *catalog.Product, supplierID uuid.UUID, state string) CreatePurchaseRequest {
	return CreatePurchaseRequest{
		InvoiceNo:     "INV-1001",
		SupplierID:    supplierID,
		SupplierName:  "Medline Distributors",
		SupplierState: state,
		Lines: []PurchaseLineRequest{{
			ProductID:    product.ID,
			BatchNo:      "b1",
			Expiry:       "2027-06",
			GSTRate:      d("12"),
			MRP:          d("25"),
			TradePriceEx: d("18"),
			SchemePct:    d("5"),
			CashPct:      d("2"),
			ReceivedQty:  100,
			FreeQty:      10,
		}},
	}
}

func TestPurchaseService_CreatePurchase_Costing(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		intra      bool
		cgst, igst string
	}{
		{"intra-state", " kerala ", true, "102.60", "0"},
		{"inter-state", "Tamil Nadu", false, "0", "205.20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := newTestPurchaseService(t)
			ctx := context.Background()
			product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

			resp, err := svc.CreatePurchase(ctx, admin, purchaseRequest(product, uuid.New(), tt.state))
			require.NoError(t, err)

			assert.Equal(t, "PENDING", resp.Status)
			assert.Equal(t, "CREDIT", resp.Type)
			assert.Equal(t, tt.intra, resp.IsIntraState)
			assertMoney(t, "1710.00", resp.Totals.Taxable, "taxable")
			assertMoney(t, tt.cgst, resp.Totals.CGST, "cgst")
			assertMoney(t, tt.cgst, resp.Totals.SGST, "sgst")
			assertMoney(t, tt.igst, resp.Totals.IGST, "igst")
			assertMoney(t, "38.30", resp.Totals.PostTaxDiscount, "post tax discount")
			assertMoney(t, "1876.90", resp.Totals.NetPayable, "net payable")

			require.Len(t, resp.Batches, 1)
			b := resp.Batches[0]
			assert.Equal(t, "B1", b.BatchNo)
			assert.Equal(t, "2027-06", b.Expiry)
			assert.Equal(t, "PENDING", b.Status)
			assertMoney(t, "17.0627", b.EffectiveCostPerUnit, "effective cost")

			// pending batches are not stock
			assert.Zero(t, env.Balance(t, b.ID))
		})
	}
}

func TestPurchaseService_CreatePurchase_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *CreatePurchaseRequest)
		wantErr error
	}{
		{"invalid gst rate", func(r *CreatePurchaseRequest) { r.Lines[0].GSTRate = d("10") }, shared.ErrInvalidRate},
		{"past expiry", func(r *CreatePurchaseRequest) { r.Lines[0].Expiry = "2026-10" }, shared.ErrExpiredDate},
		{"unparseable expiry", func(r *CreatePurchaseRequest) { r.Lines[0].Expiry = "June 27" }, shared.ErrExpiredDate},
		{"unknown product", func(r *CreatePurchaseRequest) { r.Lines[0].ProductID = uuid.New() }, shared.ErrNotFound},
		{"unknown type", func(r *CreatePurchaseRequest) { r.Type = "BARTER" }, shared.ErrValidation},
		{"no quantity", func(r *CreatePurchaseRequest) {
			r.Lines[0].ReceivedQty = 0
			r.Lines[0].FreeQty = 0
		}, shared.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := newTestPurchaseService(t)
			product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

			req := purchaseRequest(product, uuid.New(), "Kerala")
			tt.mutate(&req)
			resp, err := svc.CreatePurchase(context.Background(), admin, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
		})
	}
}

func TestPurchaseService_CreatePurchase_DuplicateInvoice(t *testing.T) {
	svc, env := newTestPurchaseService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)
	supplier := uuid.New()

	first, err := svc.CreatePurchase(ctx, admin, purchaseRequest(product, supplier, "Kerala"))
	require.NoError(t, err)

	_, err = svc.CreatePurchase(ctx, admin, purchaseRequest(product, supplier, "Kerala"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// another supplier may reuse the number
	_, err = svc.CreatePurchase(ctx, admin, purchaseRequest(product, uuid.New(), "Kerala"))
	assert.NoError(t, err)

	// a rejected invoice can be entered again
	_, err = svc.RejectPurchase(ctx, admin, first.ID, RejectPurchaseRequest{Reason: "wrong rates"})
	require.NoError(t, err)
	_, err = svc.CreatePurchase(ctx, admin, purchaseRequest(product, supplier, "Kerala"))
	assert.NoError(t, err)
}

func TestPurchaseService_ApprovePurchase_PostsLedger(t *testing.T) {
	svc, env := newTestPurchaseService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

	req := purchaseRequest(product, uuid.New(), "Kerala")
	second := req.Lines[0]
	second.BatchNo = "B2"
	second.ReceivedQty = 50
	second.FreeQty = 0
	req.Lines = append(req.Lines, second)

	created, err := svc.CreatePurchase(ctx, admin, req)
	require.NoError(t, err)

	approved, err := svc.ApprovePurchase(ctx, pharmacist, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, "u-pharm", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	entries, err := env.Repos.Ledger().FindByRef(ctx, inventory.Ref{Type: inventory.RefPurchase, ID: created.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, inventory.TxnPurchase, e.TxnType)
		assert.Zero(t, e.QtyOut)
	}

	got, err := svc.GetPurchase(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Batches, 2)
	for _, b := range got.Batches {
		assert.Equal(t, "APPROVED", b.Status)
		assert.Equal(t, b.ReceivedQty+b.FreeQty, env.Balance(t, b.ID))
	}

	_, err = svc.ApprovePurchase(ctx, admin, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotPending)

	logs, err := env.Repos.Audit().FindByEntity(ctx, "purchase", created.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, audit.ActionPurchaseCreated, logs[0].Action)
	assert.Equal(t, audit.ActionPurchaseApproved, logs[1].Action)
}

func TestPurchaseService_RejectPurchase_DiscardsBatches(t *testing.T) {
	svc, env := newTestPurchaseService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

	created, err := svc.CreatePurchase(ctx, admin, purchaseRequest(product, uuid.New(), "Kerala"))
	require.NoError(t, err)
	batchID := created.Batches[0].ID

	rejected, err := svc.RejectPurchase(ctx, admin, created.ID, RejectPurchaseRequest{Reason: " damaged consignment "})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "damaged consignment", rejected.RejectReason)
	assert.Empty(t, rejected.Batches)

	got, err := svc.GetPurchase(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Batches)

	_, err = env.Repos.Batches().FindByID(ctx, batchID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	entries, err := env.Repos.Ledger().FindByRef(ctx, inventory.Ref{Type: inventory.RefPurchase, ID: created.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.ApprovePurchase(ctx, admin, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotPending)
}

func TestPurchaseService_Decisions_RequirePrivilege(t *testing.T) {
	svc, env := newTestPurchaseService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

	created, err := svc.CreatePurchase(ctx, assistant, purchaseRequest(product, uuid.New(), "Kerala"))
	require.NoError(t, err)
	assert.Equal(t, "u-asst", created.CreatedBy)

	_, err = svc.ApprovePurchase(ctx, assistant, created.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.RejectPurchase(ctx, assistant, created.ID, RejectPurchaseRequest{Reason: "no"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ApprovePurchase(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPurchaseService_ListPurchases(t *testing.T) {
	svc, env := newTestPurchaseService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "amoxicillin", "Mox", schedule.SymbolH)

	for i := 0; i < 3; i++ {
		created, err := svc.CreatePurchase(ctx, admin, purchaseRequest(product, uuid.New(), "Kerala"))
		require.NoError(t, err)
		if i == 0 {
			_, err = svc.ApprovePurchase(ctx, admin, created.ID)
			require.NoError(t, err)
		}
	}

	all, total, err := svc.ListPurchases(ctx, PurchaseListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	pending, total, err := svc.ListPurchases(ctx, PurchaseListFilter{Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range pending {
		assert.Equal(t, "PENDING", p.Status)
	}
}
