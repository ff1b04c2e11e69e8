package trade

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ehr/pharmacy/internal/domain/inventory"
	"github.com/ehr/pharmacy/internal/domain/purchase"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSaleService(t *testing.T) (*SaleService, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	return NewSaleService(env.Repos, env.Guard, env.Audit, env.Settings, env.Clock, env.Logger), env
}

func cash(amount string) []PaymentRequest {
	return []PaymentRequest{{Method: "CASH", Amount: d(amount)}}
}

func saleRequest(batch *purchase.Batch, nos int64, paid string) CreateSaleRequest {
	return CreateSaleRequest{
		Items:    []SaleItemRequest{{BatchID: batch.ID, Nos: nos}},
		Payments: cash(paid),
	}
}

func fullRx() *ComplianceRequest {
	return &ComplianceRequest{
		RxDocs: []string{"rx/2026/1001.pdf"},
		Fields: map[string]string{
			"rx_number":         "RX-1001",
			"prescriber_reg_no": "TCMC-4411",
			"patient_id_proof":  "AADHAAR-XXXX",
		},
	}
}

func TestSaleService_CreateSale_Pricing(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		item     SaleItemRequest
		paid     string
		mrpTotal string
		discount string
		taxable  string
		cgst     string
		igst     string
		net      string
	}{
		{
			name:     "mrp inclusive with discount",
			item:     SaleItemRequest{Nos: 2, DiscountPct: d("10")},
			paid:     "45.00",
			mrpTotal: "50.00", discount: "5.00", taxable: "40.18", cgst: "2.41", igst: "0", net: "45.00",
		},
		{
			name:     "mrp inclusive inter-state",
			state:    "Karnataka",
			item:     SaleItemRequest{Nos: 2, DiscountPct: d("10")},
			paid:     "45.00",
			mrpTotal: "50.00", discount: "5.00", taxable: "40.18", cgst: "0", igst: "4.82", net: "45.00",
		},
		{
			name:     "rate exclusive",
			item:     SaleItemRequest{Nos: 3, PricingMode: "RATE_EX", RateExTax: d("20")},
			paid:     "67.20",
			mrpTotal: "75.00", discount: "0", taxable: "60.00", cgst: "3.60", igst: "0", net: "67.20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, env := newTestSaleService(t)
			ctx := context.Background()
			product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
			batch := env.SeedBatch(t, product, "P1", 100)

			item := tt.item
			item.BatchID = batch.ID
			resp, err := svc.CreateSale(ctx, pharmacist, CreateSaleRequest{
				Patient:  PatientRequest{ID: "MRN-1", Name: "Ravi", State: tt.state},
				Items:    []SaleItemRequest{item},
				Payments: cash(tt.paid),
			})
			require.NoError(t, err)

			assertMoney(t, tt.mrpTotal, resp.Totals.MRPTotal, "mrp total")
			assertMoney(t, tt.discount, resp.Totals.DiscountOnMRP, "discount")
			assertMoney(t, tt.taxable, resp.Totals.Taxable, "taxable")
			assertMoney(t, tt.cgst, resp.Totals.CGST, "cgst")
			assertMoney(t, tt.cgst, resp.Totals.SGST, "sgst")
			assertMoney(t, tt.igst, resp.Totals.IGST, "igst")
			assertMoney(t, tt.net, resp.Totals.Net, "net")
			assert.Equal(t, tt.state == "", resp.Intra)

			assert.True(t, strings.HasPrefix(resp.BillNo, "PH-20261017-"), resp.BillNo)
			assert.Equal(t, "OPD", resp.Mode)
			assert.Equal(t, "NONE", resp.Items[0].ScheduleSymbol)
			assert.Equal(t, 100-item.Nos, env.Balance(t, batch.ID))

			entries, err := env.Repos.Ledger().FindByRef(ctx, inventory.Ref{Type: inventory.RefSale, ID: resp.ID})
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, inventory.TxnSale, entries[0].TxnType)
			assert.Equal(t, item.Nos, entries[0].QtyOut)
			assert.True(t, batch.EffectiveCostPerUnit.Equal(entries[0].CostPerUnit))
		})
	}
}

func TestSaleService_CreateSale_Compliance(t *testing.T) {
	t.Run("missing prescription is rejected", func(t *testing.T) {
		svc, env := newTestSaleService(t)
		product := env.SeedProduct(t, "tramadol", "Tramazac", schedule.SymbolH1)
		batch := env.SeedBatch(t, product, "T1", 10)

		_, err := svc.CreateSale(context.Background(), assistant, saleRequest(batch, 1, "25.00"))
		require.ErrorIs(t, err, shared.ErrCompliance)

		var ce *shared.ComplianceError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{
			"Prescription scan/document required",
			"Rx Number is required",
			"Prescriber Reg No is required",
		}, ce.Missing)
		assert.Equal(t, int64(10), env.Balance(t, batch.ID))
	})

	t.Run("complete evidence is recorded", func(t *testing.T) {
		svc, env := newTestSaleService(t)
		product := env.SeedProduct(t, "alprazolam", "Restyl", schedule.SymbolX)
		batch := env.SeedBatch(t, product, "X1", 10)

		req := saleRequest(batch, 1, "25.00")
		req.Compliance = fullRx()
		resp, err := svc.CreateSale(context.Background(), assistant, req)
		require.NoError(t, err)

		assert.True(t, resp.Compliance.Required)
		assert.Equal(t, schedule.SymbolX, resp.Compliance.Symbol)
		assert.Empty(t, resp.Compliance.Missing)
		assert.Equal(t, "RX-1001", resp.Compliance.Fields["rx_number"])
		assert.Equal(t, "X", resp.Items[0].ScheduleSymbol)

		stored, err := svc.GetSale(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "TCMC-4411", stored.Compliance.Fields["prescriber_reg_no"])
	})

	t.Run("override needs authority", func(t *testing.T) {
		svc, env := newTestSaleService(t)
		product := env.SeedProduct(t, "codeine", "Codistar", schedule.SymbolH)
		batch := env.SeedBatch(t, product, "C1", 10)

		req := saleRequest(batch, 1, "25.00")
		req.Override = true
		req.OverrideReason = " emergency ward request "

		_, err := svc.CreateSale(context.Background(), assistant, req)
		assert.ErrorIs(t, err, shared.ErrCompliance)

		resp, err := svc.CreateSale(context.Background(), pharmacist, req)
		require.NoError(t, err)
		assert.Equal(t, "u-pharm", resp.Compliance.OverriddenBy)
		assert.Equal(t, "emergency ward request", resp.Compliance.OverrideReason)
		assert.NotEmpty(t, resp.Compliance.Missing)
		assert.Equal(t, int64(9), env.Balance(t, batch.ID))
	})
}

func TestSaleService_CreateSale_InsufficientStock(t *testing.T) {
	svc, env := newTestSaleService(t)
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	batch := env.SeedBatch(t, product, "P1", 5)

	// two lines on one batch are checked together
	req := CreateSaleRequest{
		Items: []SaleItemRequest{
			{BatchID: batch.ID, Nos: 3},
			{BatchID: batch.ID, Nos: 3},
		},
		Payments: cash("150.00"),
	}
	_, err := svc.CreateSale(context.Background(), pharmacist, req)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, int64(5), env.Balance(t, batch.ID))

	req.Items[1].Nos = 2
	req.Payments = cash("125.00")
	_, err = svc.CreateSale(context.Background(), pharmacist, req)
	require.NoError(t, err)
	assert.Zero(t, env.Balance(t, batch.ID))
}

func TestSaleService_CreateSale_CheckOrder(t *testing.T) {
	svc, env := newTestSaleService(t)
	ctx := context.Background()
	scheduled := env.SeedProduct(t, "tramadol", "Tramazac", schedule.SymbolH1)
	plain := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	hBatch := env.SeedBatch(t, scheduled, "T1", 1)
	pBatch := env.SeedBatch(t, plain, "P1", 1)

	// compliance is reported before stock
	_, err := svc.CreateSale(ctx, assistant, saleRequest(hBatch, 5, "1.00"))
	assert.ErrorIs(t, err, shared.ErrCompliance)

	// stock is reported before payment
	_, err = svc.CreateSale(ctx, assistant, saleRequest(pBatch, 5, "1.00"))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = svc.CreateSale(ctx, assistant, saleRequest(pBatch, 1, "1.00"))
	assert.ErrorIs(t, err, shared.ErrPaymentMismatch)
}

func TestSaleService_CreateSale_PaymentTolerance(t *testing.T) {
	tests := []struct {
		paid    string
		wantErr bool
	}{
		{"25.00", false},
		{"25.01", false},
		{"24.99", false},
		{"25.02", true},
		{"24.98", true},
	}

	for _, tt := range tests {
		t.Run(tt.paid, func(t *testing.T) {
			svc, env := newTestSaleService(t)
			product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
			batch := env.SeedBatch(t, product, "P1", 10)

			_, err := svc.CreateSale(context.Background(), pharmacist, saleRequest(batch, 1, tt.paid))
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrPaymentMismatch)
				assert.Equal(t, int64(10), env.Balance(t, batch.ID))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSaleService_CreateSale_SplitPayments(t *testing.T) {
	svc, env := newTestSaleService(t)
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	batch := env.SeedBatch(t, product, "P1", 10)

	req := saleRequest(batch, 2, "0")
	req.Payments = []PaymentRequest{
		{Method: "CASH", Amount: d("20.00")},
		{Method: "UPI", Amount: d("30.00"), Reference: "UTR-88"},
	}
	resp, err := svc.CreateSale(context.Background(), pharmacist, req)
	require.NoError(t, err)
	require.Len(t, resp.Payments, 2)
	assert.Equal(t, "UTR-88", resp.Payments[1].Reference)
}

func TestSaleService_CreateSale_DuplicateBillNo(t *testing.T) {
	svc, env := newTestSaleService(t)
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	batch := env.SeedBatch(t, product, "P1", 10)

	req := saleRequest(batch, 1, "25.00")
	req.BillNo = "OP-77"
	_, err := svc.CreateSale(context.Background(), pharmacist, req)
	require.NoError(t, err)

	_, err = svc.CreateSale(context.Background(), pharmacist, req)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Equal(t, int64(9), env.Balance(t, batch.ID))
}

func TestSaleService_CreateSale_BatchMustBeApproved(t *testing.T) {
	svc, env := newTestSaleService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)

	p, err := purchase.NewPurchase(purchase.Header{InvoiceNo: "PEND-1", SupplierID: uuid.New()},
		testutil.HomeState, []purchase.LineInput{testutil.StockLine(product, "PB1", 10)}, env.Clock.Now())
	require.NoError(t, err)
	require.NoError(t, env.Repos.Purchases().Create(ctx, p))

	_, err = svc.CreateSale(ctx, pharmacist, saleRequest(&p.Batches[0], 1, "25.00"))
	assert.ErrorIs(t, err, shared.ErrValidation)

	missing := &purchase.Batch{}
	missing.ID = uuid.New()
	_, err = svc.CreateSale(ctx, pharmacist, saleRequest(missing, 1, "25.00"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSaleService_CreateSale_ExpiredBatch(t *testing.T) {
	t.Run("allowed and flagged", func(t *testing.T) {
		svc, env := newTestSaleService(t)
		product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
		batch := env.SeedBatch(t, product, "P1", 10)
		env.Clock.Advance(2 * 365 * 24 * time.Hour)

		resp, err := svc.CreateSale(context.Background(), pharmacist, saleRequest(batch, 1, "25.00"))
		require.NoError(t, err)
		assert.True(t, resp.Items[0].ExpiredAtSale)
	})

	t.Run("refused when configured", func(t *testing.T) {
		env := testutil.NewEnv(t)
		env.Settings.AllowExpiredSale = false
		svc := NewSaleService(env.Repos, env.Guard, env.Audit, env.Settings, env.Clock, env.Logger)
		product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
		batch := env.SeedBatch(t, product, "P1", 10)
		env.Clock.Advance(2 * 365 * 24 * time.Hour)

		_, err := svc.CreateSale(context.Background(), pharmacist, saleRequest(batch, 1, "25.00"))
		assert.ErrorIs(t, err, shared.ErrExpiredDate)
		assert.Equal(t, int64(10), env.Balance(t, batch.ID))
	})
}

func TestSaleService_CreateSale_ConcurrentSalesNeverOverdraw(t *testing.T) {
	svc, env := newTestSaleService(t)
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	batch := env.SeedBatch(t, product, "P1", 5)

	const buyers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
		other     []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(context.Background(), pharmacist, saleRequest(batch, 1, "25.00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInsufficientStock):
				refused++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, buyers-5, refused)
	assert.Zero(t, env.Balance(t, batch.ID))

	entries, err := env.Repos.Ledger().FindByBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	replay := inventory.ReplayEntries(entries)
	assert.True(t, replay.Consistent())
	assert.Equal(t, 6, replay.Entries)
}

func TestSaleService_ListSales(t *testing.T) {
	svc, env := newTestSaleService(t)
	ctx := context.Background()
	product := env.SeedProduct(t, "paracetamol", "Dolo", schedule.SymbolNone)
	batch := env.SeedBatch(t, product, "P1", 10)

	for i, mode := range []string{"OPD", "IP", "IP"} {
		req := saleRequest(batch, 1, "25.00")
		req.Mode = mode
		req.Patient = PatientRequest{ID: "MRN-" + mode, Name: "Patient"}
		if i == 0 {
			req.BillNo = "OP-1"
		}
		_, err := svc.CreateSale(ctx, pharmacist, req)
		require.NoError(t, err)
	}

	all, total, err := svc.ListSales(ctx, SaleListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	ip, total, err := svc.ListSales(ctx, SaleListFilter{Mode: "IP"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, s := range ip {
		assert.Equal(t, "IP", s.Mode)
	}

	found, total, err := svc.ListSales(ctx, SaleListFilter{Search: "OP-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "OP-1", found[0].BillNo)
}
