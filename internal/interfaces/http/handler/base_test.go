package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/ehr/pharmacy/internal/interfaces/http/dto"
	"github.com/ehr/pharmacy/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(err error) (*httptest.ResponseRecorder, dto.Response) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		c.Set("request_id", "req-7")
		h.HandleError(c, err)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", shared.NewValidationError("qty must be positive"), http.StatusBadRequest, shared.CodeValidation},
		{"invalid rate", shared.ErrInvalidRate, http.StatusBadRequest, shared.CodeInvalidRate},
		{"expired", shared.ErrExpiredDate, http.StatusBadRequest, shared.CodeExpiredDate},
		{"not found", shared.NewNotFoundError("sale", "s-1"), http.StatusNotFound, shared.CodeNotFound},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, shared.CodeForbidden},
		{"duplicate invoice", shared.ErrAlreadyExists, http.StatusConflict, shared.CodeAlreadyExists},
		{"stock", shared.NewInsufficientStockError("B1", 2, 5), http.StatusUnprocessableEntity, shared.CodeInsufficientStock},
		{"payment", shared.ErrPaymentMismatch, http.StatusUnprocessableEntity, shared.CodePaymentMismatch},
		{"over return", shared.ErrOverReturn, http.StatusUnprocessableEntity, shared.CodeOverReturn},
		{"not pending", shared.NewNotPendingError("return", "APPROVED"), http.StatusUnprocessableEntity, shared.CodeNotPending},
		{"wrapped", fmt.Errorf("approve: %w", shared.ErrForbidden), http.StatusForbidden, shared.CodeForbidden},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serveError(tt.err)
			assert.Equal(t, tt.wantCode, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.Equal(t, "req-7", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_ComplianceListsMissing(t *testing.T) {
	w, resp := serveError(shared.NewComplianceError([]string{"rx_number", "prescriber_reg_no"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeCompliance, resp.Error.Code)
	assert.Equal(t, []string{"rx_number", "prescriber_reg_no"}, resp.Error.Missing)
}

func TestBaseHandler_HandleError_UnknownHidesDetail(t *testing.T) {
	w, _ := serveError(errors.New("pq: password authentication failed"))
	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandler_ActorAndPathID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/batches/:id", func(c *gin.Context) {
		if c.GetHeader("X-Test-Actor") != "" {
			c.Set(middleware.ActorKey, identity.NewActor("u-1", "", "assistant"))
		}
		if _, ok := h.actor(c); !ok {
			return
		}
		if _, ok := h.pathID(c, "id"); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		path     string
		withUser bool
		wantCode int
	}{
		{"no actor", "/batches/0b6a6f53-3e0c-4d3b-9a56-8d2f0c7c1e11", false, http.StatusUnauthorized},
		{"bad id", "/batches/not-a-uuid", true, http.StatusBadRequest},
		{"ok", "/batches/0b6a6f53-3e0c-4d3b-9a56-8d2f0c7c1e11", true, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.withUser {
				req.Header.Set("X-Test-Actor", "1")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
