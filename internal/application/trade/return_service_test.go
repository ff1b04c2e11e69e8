package trade

import (
	"context"
	"testing"

	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type returnFixture struct {
	svc   *ReturnService
	env   *testutil.Env
	batch *purchase.Batch
	sale  *SaleResponse
}

// newReturnFixture sells 3 units at MRP 25 (12% GST) out of a batch of 10
func newReturnFixture(t *testing.T, symbol schedule.Symbol, seller identity.Actor) *returnFixture {
	t.Helper()
	env := testutil.NewEnv(t)
	product := env.SeedProduct(t, "cetirizine", "Okacet", symbol)
	batch := env.SeedBatch(t, product, "C1", 10)

	sales := NewSaleService(env.Repos, env.Guard, env.Audit, env.Settings, env.Clock, env.Logger)
	req := saleRequest(batch, 3, "75.00")
	if symbol != schedule.SymbolNone {
		req.Compliance = fullRx()
	}
	sl, err := sales.CreateSale(context.Background(), seller, req)
	require.NoError(t, err)
	require.Equal(t, int64(7), env.Balance(t, batch.ID))

	return &returnFixture{
		svc:   NewReturnService(env.Repos, env.Scope, env.Guard, env.Audit, env.Clock, env.Logger),
		env:   env,
		batch: batch,
		sale:  sl,
	}
}

func (f *returnFixture) request(qty int64) CreateReturnRequest {
	return CreateReturnRequest{
		SaleID: f.sale.ID,
		Items: []ReturnItemRequest{{
			SaleItemID:  f.sale.Items[0].ID,
			BatchID:     f.batch.ID,
			QtyReturned: qty,
		}},
		Reason: "patient discharged",
	}
}

func TestReturnService_CreateReturn_Proportional(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolNone, pharmacist)
	ctx := context.Background()

	assertMoney(t, "66.96", f.sale.Items[0].BaseExTax, "sale base")
	assertMoney(t, "4.02", f.sale.Items[0].CGST, "sale cgst")

	resp, err := f.svc.CreateReturn(ctx, assistant, f.request(1))
	require.NoError(t, err)

	assert.Equal(t, "APPROVED", resp.Status)
	assert.Equal(t, f.sale.BillNo, resp.BillNo)
	require.Len(t, resp.Items, 1)
	assertMoney(t, "22.32", resp.Items[0].BaseExTax, "base")
	assertMoney(t, "1.34", resp.Items[0].CGST, "cgst")
	assertMoney(t, "1.34", resp.Items[0].SGST, "sgst")
	assertMoney(t, "0", resp.Items[0].IGST, "igst")
	assertMoney(t, "25.00", resp.Net, "net")

	assert.Equal(t, int64(8), f.env.Balance(t, f.batch.ID))

	entries, err := f.env.Repos.Ledger().FindByRef(ctx, inventory.Ref{Type: inventory.RefReturn, ID: resp.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.TxnReturnIn, entries[0].TxnType)
	assert.Equal(t, int64(1), entries[0].QtyIn)
	assert.Equal(t, f.batch.ID, entries[0].BatchID)

	logs, err := f.env.Repos.Audit().FindByEntity(ctx, "return", resp.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionReturnCreated, logs[0].Action)
}

func TestReturnService_CreateReturn_OverReturn(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolNone, pharmacist)
	ctx := context.Background()

	_, err := f.svc.CreateReturn(ctx, pharmacist, f.request(4))
	assert.ErrorIs(t, err, shared.ErrOverReturn)

	second, err := f.svc.CreateReturn(ctx, pharmacist, f.request(2))
	require.NoError(t, err)
	assertMoney(t, "44.64", second.BaseExTax, "base")
	assertMoney(t, "50.00", second.Net, "net")

	// the running total counts earlier returns
	_, err = f.svc.CreateReturn(ctx, pharmacist, f.request(2))
	assert.ErrorIs(t, err, shared.ErrOverReturn)

	_, err = f.svc.CreateReturn(ctx, pharmacist, f.request(1))
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.env.Balance(t, f.batch.ID))

	_, err = f.svc.CreateReturn(ctx, pharmacist, f.request(1))
	assert.ErrorIs(t, err, shared.ErrOverReturn)
}

func TestReturnService_CreateReturn_InvalidItems(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolNone, pharmacist)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(req *CreateReturnRequest)
		wantErr error
	}{
		{"unknown sale", func(r *CreateReturnRequest) { r.SaleID = uuid.New() }, shared.ErrNotFound},
		{"unknown sale item", func(r *CreateReturnRequest) { r.Items[0].SaleItemID = uuid.New() }, shared.ErrNotFound},
		{"wrong batch", func(r *CreateReturnRequest) { r.Items[0].BatchID = uuid.New() }, shared.ErrValidation},
		{"no items", func(r *CreateReturnRequest) { r.Items = nil }, shared.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(1)
			tt.mutate(&req)
			resp, err := f.svc.CreateReturn(ctx, pharmacist, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
		})
	}

	assert.Equal(t, int64(7), f.env.Balance(t, f.batch.ID))
}

func TestReturnService_ScheduledReturn_NeedsApproval(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolH, pharmacist)
	ctx := context.Background()

	pending, err := f.svc.CreateReturn(ctx, assistant, f.request(1))
	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", pending.Status)
	assert.Empty(t, pending.ApprovedBy)
	assert.Nil(t, pending.ApprovedAt)

	_, err = f.svc.ApproveReturn(ctx, assistant, pending.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	approved, err := f.svc.ApproveReturn(ctx, pharmacist, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, "u-pharm", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.ApproveReturn(ctx, pharmacist, pending.ID)
	assert.ErrorIs(t, err, shared.ErrNotPending)

	got, err := f.svc.GetReturn(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Status)
	require.Len(t, got.Items, 1)

	logs, err := f.env.Repos.Audit().FindByEntity(ctx, "return", pending.ID.String())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, audit.ActionReturnApproved, logs[1].Action)
}

func TestReturnService_ScheduledReturn_PrivilegedIsImmediate(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolH, pharmacist)

	resp, err := f.svc.CreateReturn(context.Background(), admin, f.request(1))
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Equal(t, "u-admin", resp.ApprovedBy)
}

func TestReturnService_ListReturnsBySale(t *testing.T) {
	f := newReturnFixture(t, schedule.SymbolNone, pharmacist)
	ctx := context.Background()

	none, err := f.svc.ListReturnsBySale(ctx, f.sale.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreateReturn(ctx, pharmacist, f.request(1))
		require.NoError(t, err)
	}

	list, err := f.svc.ListReturnsBySale(ctx, f.sale.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, r := range list {
		assert.Equal(t, f.sale.ID, r.SaleID)
		require.Len(t, r.Items, 1)
	}
}
