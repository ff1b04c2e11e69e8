package sale

import (
	"strings"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
)

// ComplianceRecord is stored with the sale as evidence of the scheduled-drug checks
type ComplianceRecord struct {
	Required       bool              `json:"required"`
	Symbol         schedule.Symbol   `json:"symbol"`
	RxDocs         []string          `json:"rx_docs,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	Missing        []string          `json:"missing,omitempty"`
	OverriddenBy   string            `json:"overridden_by,omitempty"`
	OverrideReason string            `json:"override_reason,omitempty"`
}

// Override is a request to sell despite missing compliance items
type Override struct {
	Requested bool
	Reason    string
}

// EvaluateCompliance validates every scheduled line. Missing items are the
// union over all lines, in first-seen order. Without missing items the sale
// may proceed; otherwise only a permitted override lets it through.
func EvaluateCompliance(items []SaleItem, data *schedule.ComplianceData, override Override, actor identity.Actor) (ComplianceRecord, error) {
	symbols := make([]schedule.Symbol, 0, len(items))
	var missing []string
	seen := make(map[string]struct{})

	for i := range items {
		sym := items[i].ScheduleSymbol
		symbols = append(symbols, sym)
		if !sym.IsScheduled() {
			continue
		}
		for _, m := range schedule.ValidateCompliance(sym, data) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			missing = append(missing, m)
		}
	}

	strictest := schedule.Strictest(symbols...)
	rec := ComplianceRecord{
		Required: schedule.GetPolicy(strictest).RequiresRx,
		Symbol:   strictest,
		Missing:  missing,
	}
	if data != nil {
		rec.RxDocs = data.RxDocs
		rec.Fields = data.Fields
	}
	if len(missing) == 0 {
		return rec, nil
	}

	if override.Requested && actor.Role.CanOverrideSchedule() {
		rec.OverriddenBy = actor.ID
		rec.OverrideReason = strings.TrimSpace(override.Reason)
		return rec, nil
	}
	return rec, shared.NewComplianceError(missing)
}
