package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/checks"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/auth"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/memory"
)

func newTestRouter(t *testing.T, validator middleware.TokenValidator) *gin.Engine {
	t.Helper()

	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.LedgerRepo(), store)
	areaSvc := storagearea.NewService(store.AreaRepo(), ledgerSvc)
	itemSvc := item.NewService(store.ItemRepo(), ledgerSvc)

	receiptSvc := receipts.NewService(receipts.Config{
		Repo:      store.ReceiptRepo(),
		Ledger:    ledgerSvc,
		TxManager: store,
		Areas:     areaSvc,
		Items:     itemSvc,
	})
	checkSvc := checks.NewService(checks.Config{
		Repo:      store.CheckRepo(),
		Ledger:    ledgerSvc,
		TxManager: store,
		Areas:     areaSvc,
	})

	return v1.NewRouter(v1.RouterConfig{
		TokenValidator: validator,
		Ledger:         ledgerSvc,
		Receipts:       receiptSvc,
		Checks:         checkSvc,
		Areas:          areaSvc,
		Items:          itemSvc,
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type idResponse struct {
	ID      id.ID  `json:"id"`
	Status  string `json:"status"`
	Number  string `json:"number"`
	Version int    `json:"version"`
}

// Full happy path over HTTP: create catalogs, post a receipt, approve it,
// read the balance back.
func TestReceiptFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/storage-areas", gin.H{
		"code": "WH-MAIN",
		"name": "Main warehouse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	area := decode[idResponse](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/items", gin.H{
		"kind": "product",
		"code": "SKU-1",
		"name": "Widget",
		"unit": "pcs",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	widget := decode[idResponse](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/receipts", gin.H{
		"direction": "import",
		"lines": []gin.H{{
			"itemKind": "product",
			"itemId":   widget.ID,
			"areaId":   area.ID,
			"quantity": 7,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[idResponse](t, w)
	assert.Equal(t, "pending", doc.Status)
	assert.Contains(t, doc.Number, "IMP-")

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/receipts/%s/approve", doc.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", decode[idResponse](t, w).Status)

	w = doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/api/v1/stock/balance?itemKind=product&itemId=%s&areaId=%s", widget.ID, area.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	balance := decode[struct {
		Quantity types.Quantity `json:"quantity"`
	}](t, w)
	assert.Equal(t, types.NewQuantityFromInt(7), balance.Quantity)
}

func TestValidationErrorsRenderAppErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	// Malformed body.
	w := doJSON(t, r, http.MethodPost, "/api/v1/storage-areas", gin.H{"code": "WH-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Code string `json:"code"`
	}](t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	// Unknown document.
	w = doJSON(t, r, http.MethodGet, "/api/v1/receipts/"+id.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad UUID in the path.
	w = doJSON(t, r, http.MethodGet, "/api/v1/receipts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthGuardsAPI(t *testing.T) {
	validator := auth.NewJWTValidator("test-secret", "stockledger")
	r := newTestRouter(t, validator)

	w := doJSON(t, r, http.MethodGet, "/api/v1/items", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health endpoints stay open.
	w = doJSON(t, r, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := validator.IssueToken(actor.Actor{ID: "user-1", Name: "Test User"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodGet, "/health/live", nil)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}
