package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ehr/pharmacy/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineBody struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Expiry    string          `json:"expiry" binding:"required,expiry_month"`
	GSTRate   decimal.Decimal `json:"gst_rate" binding:"gst_rate"`
	Schedule  string          `json:"schedule" binding:"omitempty,schedule_symbol"`
	Qty       int64           `json:"qty" binding:"required,min=1"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/lines", func(c *gin.Context) {
		var req lineBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.GSTRate.String()))
	})
	return router
}

func postLine(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/lines", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestCustomValidators(t *testing.T) {
	router := newValidationRouter()
	id := uuid.NewString()

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"valid line", `{"product_id":"` + id + `","expiry":"2027-03","gst_rate":"12","schedule":"h1","qty":5}`, http.StatusOK, ""},
		{"slash expiry", `{"product_id":"` + id + `","expiry":"03/2027","gst_rate":"5","qty":5}`, http.StatusOK, ""},
		{"bad gst slab", `{"product_id":"` + id + `","expiry":"2027-03","gst_rate":"7","qty":5}`, http.StatusBadRequest, "gst_rate"},
		{"bad expiry", `{"product_id":"` + id + `","expiry":"March 2027","gst_rate":"12","qty":5}`, http.StatusBadRequest, "expiry"},
		{"bad schedule", `{"product_id":"` + id + `","expiry":"2027-03","gst_rate":"12","schedule":"Z","qty":5}`, http.StatusBadRequest, "schedule"},
		{"missing product", `{"expiry":"2027-03","gst_rate":"12","qty":5}`, http.StatusBadRequest, "product_id"},
		{"zero qty", `{"product_id":"` + id + `","expiry":"2027-03","gst_rate":"12","qty":0}`, http.StatusBadRequest, "qty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postLine(router, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantField == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			fields := make([]string, 0, len(resp.Error.Details))
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestFormatValidationErrors_MalformedJSON(t *testing.T) {
	router := newValidationRouter()
	w, resp := postLine(router, `{"qty": "many"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
