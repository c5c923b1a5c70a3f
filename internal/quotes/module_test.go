package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"devis_backend/internal/assistant"
	"devis_backend/internal/events"
	apphttp "devis_backend/internal/http"
	"devis_backend/internal/http/router"
	"devis_backend/internal/pdf"
	"devis_backend/internal/quotes/domain"
	"devis_backend/internal/quotes/repository"
	"devis_backend/platform/apperr"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return true }
func (testConfig) GetCORSOrigins() []string   { return nil }
func (testConfig) GetCORSAllowCreds() bool    { return false }
func (testConfig) GetJWTAccessSecret() string { return testSecret }

type stubRepo struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]*domain.Quote
	seq    int
}

func (r *stubRepo) Create(_ context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	q.Number = domain.FormatNumber(q.IssueDate.Year(), r.seq)
	r.quotes[q.ID] = q
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, companyID, id uuid.UUID) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.CompanyID != companyID {
		return nil, apperr.NotFound("Devis non trouvé")
	}
	return q, nil
}

func (r *stubRepo) Save(context.Context, *domain.Quote, bool) error { return nil }

func (r *stubRepo) List(context.Context, repository.ListParams) ([]*domain.Quote, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (r *stubRepo) MarkSent(context.Context, uuid.UUID, uuid.UUID, string, time.Time) error {
	return nil
}

type issuer struct{}

func (issuer) GetIssuer(context.Context, uuid.UUID) (pdf.Company, error) {
	return pdf.Company{Name: "Martin BTP"}, nil
}

func newTestEngine(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mod := newModule(&stubRepo{quotes: map[uuid.UUID]*domain.Quote{}}, assistant.Unconfigured{},
		pdf.NewRenderer(pdf.DefaultThemes()), validator.New(pdf.DefaultThemes().Names()...), logger.Discard())
	mod.Service().SetIssuerReader(issuer{})
	engine := router.New(&apphttp.App{
		Config:   testConfig{},
		Logger:   logger.Discard(),
		EventBus: events.NewInMemoryBus(logger.Discard()),
		Modules:  []apphttp.Module{mod},
	})
	token, _, err := httpkit.NewAccessToken(testSecret, uuid.New(), "Martin BTP", time.Hour, time.Now())
	require.NoError(t, err)
	return engine, token
}

func do(engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestChatStartThenDownloadPDF(t *testing.T) {
	engine, token := newTestEngine(t)

	rec := do(engine, http.MethodPost, "/api/v1/chat/start", token, map[string]any{"theme": "bold"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var started struct {
		SessionID string   `json:"sessionId"`
		Chips     []string `json:"chips"`
		Quote     struct {
			Number string `json:"number"`
		} `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.Empty(t, started.Chips)

	rec = do(engine, http.MethodGet, "/api/v1/quotes/"+started.SessionID+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="devis-`+started.Quote.Number+`.pdf"`, rec.Header().Get("Content-Disposition"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(engine, http.MethodGet, "/api/v1/quotes/"+uuid.NewString()+"/pdf", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatTurnWithoutModelReturnsFallback(t *testing.T) {
	engine, token := newTestEngine(t)
	rec := do(engine, http.MethodPost, "/api/v1/chat/start", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	rec = do(engine, http.MethodPost, "/api/v1/chat/turn", token, map[string]any{"sessionId": started.SessionID, "message": "Salle de bain"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Structure invalide")

	rec = do(engine, http.MethodPost, "/api/v1/chat/turn", token, map[string]any{"sessionId": started.SessionID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewTotalsEndpoint(t *testing.T) {
	engine, token := newTestEngine(t)

	rec := do(engine, http.MethodPost, "/api/v1/quotes/preview-totals", token, map[string]any{
		"lines": []map[string]any{
			{"label": "Pose", "quantity": 2, "unitPriceExclTax": 45.5, "taxRate": 0.1},
			{"label": "Option", "quantity": 1, "unitPriceExclTax": nil},
		},
		"discount": map[string]any{"value": 10, "mode": "amount"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Totals struct {
			SubtotalExclTax json.Number `json:"subtotalExclTax"`
			TotalExclTax    json.Number `json:"totalExclTax"`
			TotalInclTax    json.Number `json:"totalInclTax"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "91.00", got.Totals.SubtotalExclTax.String())
	require.Equal(t, "81.00", got.Totals.TotalExclTax.String())
	require.Equal(t, "90.10", got.Totals.TotalInclTax.String())

	rec = do(engine, http.MethodPost, "/api/v1/quotes/preview-totals", token, map[string]any{
		"discount": map[string]any{"value": 10, "mode": "fixed"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(engine, http.MethodPost, "/api/v1/quotes/preview-totals", "", map[string]any{})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
