package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPolicy(t *testing.T) {
	x := GetPolicy(SymbolX)
	assert.True(t, x.RequiresRx)
	assert.Equal(t, []string{FieldRxNumber, FieldPrescriberRegNo, FieldPatientIDProof}, x.ExtraFields)

	for _, s := range []Symbol{SymbolH, SymbolH1, SymbolN} {
		p := GetPolicy(s)
		assert.True(t, p.RequiresRx, s)
		assert.Equal(t, []string{FieldRxNumber, FieldPrescriberRegNo}, p.ExtraFields, s)
		assert.Positive(t, p.RetentionDays, s)
	}

	for _, s := range []Symbol{SymbolG, SymbolK, SymbolNone} {
		p := GetPolicy(s)
		assert.False(t, p.RequiresRx, s)
		assert.Empty(t, p.ExtraFields, s)
		assert.Zero(t, p.RetentionDays, s)
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Rx Number", Humanize("rx_number"))
	assert.Equal(t, "Prescriber Reg No", Humanize("prescriber_reg_no"))
	assert.Equal(t, "Patient Id Proof", Humanize("patient_id_proof"))
}

func TestValidateCompliance_ScheduleX(t *testing.T) {
	missing := ValidateCompliance(SymbolX, nil)
	assert.Equal(t, []string{
		"Prescription scan/document required",
		"Rx Number is required",
		"Prescriber Reg No is required",
		"Patient Id Proof is required",
	}, missing)

	full := &ComplianceData{
		RxDocs: []string{"rx/2026/0001.pdf"},
		Fields: map[string]string{
			FieldRxNumber:        "RX-1",
			FieldPrescriberRegNo: "KMC-4411",
			FieldPatientIDProof:  "AADHAAR-XXXX",
		},
	}
	assert.Empty(t, ValidateCompliance(SymbolX, full))
}

func TestValidateCompliance_BlankValuesCountAsMissing(t *testing.T) {
	data := &ComplianceData{
		RxDocs: []string{"  "},
		Fields: map[string]string{FieldRxNumber: " ", FieldPrescriberRegNo: "KMC-1"},
	}
	assert.Equal(t, []string{
		"Prescription scan/document required",
		"Rx Number is required",
	}, ValidateCompliance(SymbolH, data))
}

func TestValidateCompliance_Unscheduled(t *testing.T) {
	assert.Empty(t, ValidateCompliance(SymbolNone, nil))
	assert.Empty(t, ValidateCompliance(Symbol(""), nil))
	assert.Empty(t, ValidateCompliance(SymbolG, nil))
	assert.Empty(t, ValidateCompliance(SymbolK, &ComplianceData{}))
}
