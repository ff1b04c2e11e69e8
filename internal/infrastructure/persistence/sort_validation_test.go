package persistence

import (
	"strings"
	"testing"

	"github.com/ehr/pharmacy/internal/domain/sale"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC ", "ASC"},
		{"desc", "DESC"},
		{"ascending", "DESC"},
		{"ASC; DROP TABLE stock_ledger;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		allowed map[string]bool
		want    string
	}{
		{"empty uses default", "", SaleSortFields, "created_at"},
		{"whitelisted", "bill_no", SaleSortFields, "bill_no"},
		{"trimmed", " brand_name ", ProductSortFields, "brand_name"},
		{"case sensitive", "BILL_NO", SaleSortFields, "created_at"},
		{"column of another table", "bill_no", PurchaseSortFields, "created_at"},
		{"injection", "invoice_no; DROP TABLE batches;--", PurchaseSortFields, "created_at"},
		{"subquery", "id, (SELECT rx_number FROM sales)", SaleSortFields, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}

func TestApplyPaging(t *testing.T) {
	gormDB, _, mockDB := newMockDB(t)
	defer mockDB.Close()

	build := func(f shared.Filter) *gorm.Statement {
		return applyPaging(gormDB.Session(&gorm.Session{DryRun: true}).Table("sales"), f, SaleSortFields, "created_at").
			Find(&[]sale.Sale{}).Statement
	}

	paged := build(shared.Filter{Page: 3, PageSize: 20, OrderBy: "bill_no", OrderDir: "asc"})
	sql := paged.SQL.String()
	assert.Contains(t, sql, "ORDER BY bill_no ASC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
	assert.Contains(t, paged.Vars, 20)
	assert.Contains(t, paged.Vars, 40)

	unpaged := build(shared.Filter{OrderBy: "rx_number"}).SQL.String()
	assert.Contains(t, unpaged, "ORDER BY created_at DESC")
	assert.False(t, strings.Contains(unpaged, "LIMIT"), unpaged)
}
