package schedule

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Compliance field names captured at sale time
const (
	FieldRxNumber        = "rx_number"
	FieldPrescriberRegNo = "prescriber_reg_no"
	FieldPatientIDProof  = "patient_id_proof"
)

// MsgPrescriptionRequired is reported when a prescription scan is missing
const MsgPrescriptionRequired = "Prescription scan/document required"

// Policy is the dispensing policy of a schedule
type Policy struct {
	RequiresRx    bool     `json:"requires_rx"`
	RetentionDays int      `json:"retention_days"`
	ExtraFields   []string `json:"extra_fields"`
}

// GetPolicy returns the dispensing policy for symbol
func GetPolicy(symbol Symbol) Policy {
	switch symbol {
	case SymbolX:
		return Policy{
			RequiresRx:    true,
			RetentionDays: 730,
			ExtraFields:   []string{FieldRxNumber, FieldPrescriberRegNo, FieldPatientIDProof},
		}
	case SymbolH1:
		return Policy{
			RequiresRx:    true,
			RetentionDays: 1095,
			ExtraFields:   []string{FieldRxNumber, FieldPrescriberRegNo},
		}
	case SymbolH, SymbolN:
		return Policy{
			RequiresRx:    true,
			RetentionDays: 730,
			ExtraFields:   []string{FieldRxNumber, FieldPrescriberRegNo},
		}
	}
	return Policy{ExtraFields: []string{}}
}

// ComplianceData is what the dispenser captured for a scheduled sale
type ComplianceData struct {
	RxDocs []string          `json:"rx_docs,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Field returns a trimmed compliance field value
func (c *ComplianceData) Field(name string) string {
	if c == nil || c.Fields == nil {
		return ""
	}
	return strings.TrimSpace(c.Fields[name])
}

func (c *ComplianceData) hasRxDocs() bool {
	if c == nil {
		return false
	}
	for _, doc := range c.RxDocs {
		if strings.TrimSpace(doc) != "" {
			return true
		}
	}
	return false
}

// Humanize turns a field key into a label: "rx_number" -> "Rx Number"
func Humanize(field string) string {
	// Casers carry state and are not safe to share between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}

// ValidateCompliance returns the missing requirements for a sale of symbol.
// An empty result means the sale may proceed.
func ValidateCompliance(symbol Symbol, data *ComplianceData) []string {
	missing := []string{}
	if !symbol.IsScheduled() {
		return missing
	}
	policy := GetPolicy(symbol)
	if policy.RequiresRx && !data.hasRxDocs() {
		missing = append(missing, MsgPrescriptionRequired)
	}
	for _, f := range policy.ExtraFields {
		if data.Field(f) == "" {
			missing = append(missing, Humanize(f)+" is required")
		}
	}
	return missing
}
