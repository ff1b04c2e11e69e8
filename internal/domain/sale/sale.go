package sale

import (
	"strings"
	"time"

	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode is the hospital context a sale is billed under
type Mode string

const (
	ModeOPD Mode = "OPD"
	ModeOP  Mode = "OP"
	ModeIP  Mode = "IP"
)

// ParseMode parses a sale mode, defaulting to OPD
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return ModeOPD, nil
	case ModeOPD, ModeOP, ModeIP:
		return m, nil
	}
	return "", shared.NewValidationError("sale mode must be OPD, OP or IP")
}

// Patient is the patient snapshot printed on the bill
type Patient struct {
	ID    string `gorm:"type:varchar(64)"`
	Name  string `gorm:"type:varchar(200)"`
	Phone string `gorm:"type:varchar(30)"`
	State string `gorm:"type:varchar(100)"`
}

// Totals aggregate the rounded line amounts of a sale
type Totals struct {
	MRPTotal      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountOnMRP decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Taxable       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CGST          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SGST          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IGST          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Net           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// SumItems totals items, summing each already-rounded field and re-rounding
func SumItems(items []SaleItem) Totals {
	var t Totals
	for i := range items {
		it := &items[i]
		t.MRPTotal = t.MRPTotal.Add(it.MRPTotal)
		t.DiscountOnMRP = t.DiscountOnMRP.Add(it.DiscountAmount)
		t.Taxable = t.Taxable.Add(it.BaseExTax)
		t.CGST = t.CGST.Add(it.CGST)
		t.SGST = t.SGST.Add(it.SGST)
		t.IGST = t.IGST.Add(it.IGST)
		t.Net = t.Net.Add(it.Net)
	}
	return Totals{
		MRPTotal:      shared.RoundMoney(t.MRPTotal),
		DiscountOnMRP: shared.RoundMoney(t.DiscountOnMRP),
		Taxable:       shared.RoundMoney(t.Taxable),
		CGST:          shared.RoundMoney(t.CGST),
		SGST:          shared.RoundMoney(t.SGST),
		IGST:          shared.RoundMoney(t.IGST),
		Net:           shared.RoundMoney(t.Net),
	}
}

// Sale is a pharmacy bill
type Sale struct {
	shared.BaseEntity
	BillNo        string           `gorm:"type:varchar(40);not null;uniqueIndex"`
	Mode          Mode             `gorm:"type:varchar(5);not null"`
	Patient       Patient          `gorm:"embedded;embeddedPrefix:patient_"`
	IsIntraState  bool             `gorm:"not null"`
	Compliance    ComplianceRecord `gorm:"type:text;serializer:json"`
	Totals        Totals           `gorm:"embedded;embeddedPrefix:total_"`
	CreatedBy     string           `gorm:"type:varchar(100)"`
	CreatedByRole string           `gorm:"type:varchar(20)"`
	Items         []SaleItem       `gorm:"foreignKey:SaleID"`
	Payments      []Payment        `gorm:"foreignKey:SaleID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// Header is the bill-level input to a sale
type Header struct {
	BillNo        string
	Mode          Mode
	Patient       Patient
	IsIntraState  bool
	CreatedBy     string
	CreatedByRole string
}

// GenerateBillNo returns a bill number of the form PH-YYYYMMDD-XXXXXXXX
func GenerateBillNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "PH-" + now.Format("20060102") + "-" + suffix
}

// NewSale assembles a sale from priced items and payments
func NewSale(h Header, items []SaleItem, payments []PaymentInput, now time.Time) (*Sale, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError("sale must have at least one item")
	}
	if h.Mode == "" {
		h.Mode = ModeOPD
	}
	billNo := strings.TrimSpace(h.BillNo)
	if billNo == "" {
		billNo = GenerateBillNo(now)
	}

	s := &Sale{
		BaseEntity:    shared.NewBaseEntity(now),
		BillNo:        billNo,
		Mode:          h.Mode,
		Patient:       h.Patient,
		IsIntraState:  h.IsIntraState,
		CreatedBy:     h.CreatedBy,
		CreatedByRole: h.CreatedByRole,
		Items:         items,
	}
	for i := range s.Items {
		s.Items[i].SaleID = s.ID
	}
	s.Totals = SumItems(s.Items)

	for _, in := range payments {
		p, err := newPayment(s.ID, in, now)
		if err != nil {
			return nil, err
		}
		s.Payments = append(s.Payments, *p)
	}
	return s, nil
}

// ItemByID finds a line on the sale
func (s *Sale) ItemByID(id uuid.UUID) (*SaleItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// QtyByBatch sums requested units per batch across all lines
func (s *Sale) QtyByBatch() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(s.Items))
	for i := range s.Items {
		out[s.Items[i].BatchID] += s.Items[i].Nos
	}
	return out
}

// HasExpiredItems returns true if any line sold an expired batch
func (s *Sale) HasExpiredItems() bool {
	for i := range s.Items {
		if s.Items[i].ExpiredAtSale {
			return true
		}
	}
	return false
}
