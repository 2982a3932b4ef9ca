package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/http/middleware"
	"github.com/safereport/backend/internal/identifier"
	"github.com/safereport/backend/internal/intake"
	"github.com/safereport/backend/internal/lifecycle"
	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/store"
	"github.com/safereport/backend/internal/triage"
)

const testGatewayKey = "gw-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	kw, err := triage.DefaultKeywords()
	require.NoError(t, err)
	st := store.NewMemStore()
	mgr := &lifecycle.Manager{
		Store:      st,
		Registry:   reg,
		Classifier: triage.New(reg, kw),
		IDs:        identifier.New(false),
		Logger:     zerolog.Nop(),
	}
	svc := &intake.Service{
		Orchestrator: intake.Orchestrator{Registry: reg},
		Drafts:       intake.NewDraftStore(time.Hour, nil),
		Submitter:    mgr,
		Logger:       zerolog.Nop(),
	}
	cfg := config.Config{
		GatewayKey:       testGatewayKey,
		CORSAllowed:      "*",
		RequestTimeout:   5 * time.Second,
		LookupRatePerMin: 60,
		LookupBurst:      20,
	}
	return Router(cfg, Deps{Registry: reg, Intake: svc, Lifecycle: mgr, Store: st}, zerolog.Nop())
}

type apiError struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, r *gin.Engine, method, path string, body any, actor *models.Actor) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set(middleware.ActorRoleHeader, string(actor.Role))
		req.Header.Set(middleware.ActorIDHeader, actor.UserID)
		req.Header.Set(middleware.GatewayKeyHeader, testGatewayKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func submitGBV(t *testing.T, r *gin.Engine) map[string]any {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/drafts", map[string]any{"sector": "gbv"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[models.Draft](t, w)

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/steps", map[string]any{"step": "category", "category": "rape_sexual_assault"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/steps", map[string]any{
		"step":   "details",
		"fields": map[string]any{"description": "I was attacked last night", "survivorAgeGroup": "adult"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/submit", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)
}

func TestSectorsEndpoints(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/sectors", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/sectors/education/categories/teacher_absence/fields", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fields := decode[[]registry.FieldSpec](t, w)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "stakeholder")

	w = do(t, r, http.MethodGet, "/api/sectors/roads/categories", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitScenarioAOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	resp := submitGBV(t, r)
	assert.Regexp(t, `^SR-[A-Z0-9]{6}$`, resp["case_id"])
	assert.Regexp(t, `^[1-9][0-9]{3}$`, resp["pin"])
	report := resp["report"].(map[string]any)
	assert.Equal(t, "critical", report["urgency"])
	assert.Equal(t, float64(10), report["risk_score"])
	assert.Equal(t, true, report["flagged"])
	_, leaked := report["pin"]
	assert.False(t, leaked, "pin is only returned at top level")
}

func TestAdvanceValidationFailed(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/drafts", map[string]any{"sector": "water"}, nil)
	draft := decode[models.Draft](t, w)
	do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/steps", map[string]any{"step": "category", "category": "water_shortage"}, nil)

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/steps", map[string]any{
		"step":   "details",
		"fields": map[string]any{"description": "pump broken two weeks"},
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	e := decode[apiError](t, w)
	assert.Equal(t, "VALIDATION_FAILED", e.Error.Code)
	assert.Equal(t, []any{"communityName"}, e.Error.Details["missing"])

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/submit", nil, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INCOMPLETE_DRAFT", decode[apiError](t, w).Error.Code)

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/steps", map[string]any{"step": "review"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDraftBackAndAbandon(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/drafts", nil, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[models.Draft](t, w)
	assert.Equal(t, models.StepSector, draft.Step)

	w = do(t, r, http.MethodPost, "/api/drafts/"+draft.ID+"/back", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodDelete, "/api/drafts/"+draft.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, "/api/drafts/"+draft.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaseLookupUniformNotFound(t *testing.T) {
	r := newTestRouter(t)
	resp := submitGBV(t, r)
	caseID := resp["case_id"].(string)
	pin := resp["pin"].(string)

	w := do(t, r, http.MethodGet, "/api/cases/"+caseID+"?pin="+pin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.StatusView](t, w)
	assert.Equal(t, models.StatusNew, view.Status)
	body := decode[map[string]any](t, w)
	for _, staffOnly := range []string{"urgency", "risk_score", "flagged", "description"} {
		assert.NotContains(t, body, staffOnly)
	}

	wrong := do(t, r, http.MethodGet, "/api/cases/"+caseID+"?pin=0000", nil, nil)
	missing := do(t, r, http.MethodGet, "/api/cases/SR-ZZZZZZ?pin="+pin, nil, nil)
	assert.Equal(t, http.StatusNotFound, wrong.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, missing.Body.String(), wrong.Body.String())
}

func TestStatusUpdateOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	resp := submitGBV(t, r)
	id := resp["report"].(map[string]any)["id"].(string)
	path := "/api/reports/" + id + "/status"

	w := do(t, r, http.MethodPatch, path, map[string]any{"status": "under-review"}, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[apiError](t, w).Error.Code)

	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "under-review"}, &models.Actor{Role: models.RoleUser, UserID: "u-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "closed"}, &models.Actor{Role: models.RoleUser, UserID: "u-1"})
	assert.Equal(t, http.StatusForbidden, w.Code, "role is checked before the status value")
	w = do(t, r, http.MethodPatch, path, map[string]any{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	worker := &models.Actor{Role: models.RoleCaseWorker, UserID: "cw-1"}
	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "under-review"}, worker)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "resolved"}, worker)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[models.Report](t, w)
	assert.Equal(t, models.StatusResolved, report.Status)
	assert.NotNil(t, report.ResolvedAt)

	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "under-review"}, worker)
	require.Equal(t, http.StatusConflict, w.Code)
	e := decode[apiError](t, w)
	assert.Equal(t, "INVALID_TRANSITION", e.Error.Code)
	assert.Equal(t, "resolved", e.Error.Details["from"])
	assert.Equal(t, "under-review", e.Error.Details["to"])
	assert.Empty(t, e.Error.Details["allowed"])

	w = do(t, r, http.MethodPatch, "/api/reports/missing/status", map[string]any{"status": "resolved"}, worker)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPatch, path, map[string]any{"status": "closed"}, worker)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTriageAndListOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	submitGBV(t, r)
	admin := &models.Actor{Role: models.RoleAdmin, UserID: "a-1"}

	w := do(t, r, http.MethodGet, "/api/reports?flagged=true&urgency=critical", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[struct {
		Items []models.Report `json:"items"`
		Limit int             `json:"limit"`
	}](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, store.DefaultListLimit, list.Limit)

	w = do(t, r, http.MethodGet, "/api/reports", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := list.Items[0].ID
	w = do(t, r, http.MethodPatch, "/api/reports/"+id+"/triage", map[string]any{"risk_score": 4}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "flagged reports keep risk 10")

	w = do(t, r, http.MethodPatch, "/api/reports/"+id+"/triage", map[string]any{"admin_notes": "referred to clinic"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "referred to clinic", decode[models.Report](t, w).AdminNotes)

	w = do(t, r, http.MethodPatch, "/api/reports/"+id+"/triage", map[string]any{"risk_score": 42}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGatewayKeyRequiredForIdentity(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set(middleware.ActorRoleHeader, "admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
