package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsafe/internal/events"
	"fieldsafe/internal/ledger"
	ledgerhandler "fieldsafe/internal/ledger/handler"
	httptransport "fieldsafe/internal/transport/http"
	"fieldsafe/internal/visit"
	visithandler "fieldsafe/internal/visit/handler"
	"fieldsafe/internal/worksite"
	worksitehandler "fieldsafe/internal/worksite/handler"
	"fieldsafe/pkg/domain"
	txcontext "fieldsafe/pkg/platform/tx"
)

// newTestRouter wires the full HTTP surface against in-memory stores,
// the same shape cmd/server builds in memory mode.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMemoryPublisher()
	runner := txcontext.NewMemoryRunner()

	ledgerSvc := ledger.NewService(ledger.NewInMemory(),
		ledger.WithLogger(logger),
		ledger.WithPublisher(publisher),
	)
	worksiteSvc := worksite.NewService(worksite.NewInMemory(), ledgerSvc, runner,
		worksite.WithLogger(logger),
	)

	hub := visit.NewHub()
	visitSvc := visit.NewService(visit.NewInMemory(), worksiteSvc,
		visit.WithLogger(logger),
		visit.WithPublisher(publisher),
		visit.WithBroadcaster(visit.NewLocalBroadcaster(hub)),
	)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:    logger,
		Persons:   ledgerhandler.New(ledgerSvc, logger),
		Worksites: worksitehandler.New(worksiteSvc, logger),
		Visits:    visithandler.New(visitSvc, hub, logger),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	res := rr.Result()
	t.Cleanup(func() { res.Body.Close() })

	var decoded map[string]any
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	// Array-shaped bodies (the eligibility preview) are left undecoded;
	// callers there assert on the status code only.
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return res, decoded
}

func TestAssignmentWorkflow_EndToEnd(t *testing.T) {
	router := newTestRouter(t)

	// Grant a field expert 1000 minutes.
	res, person := doJSON(t, router, http.MethodPost, "/api/v1/persons", map[string]any{
		"role":             "field_expert",
		"name":             "Vera Lindgren",
		"assigned_minutes": 1000,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	personID := person["id"].(string)

	// Open a dangerous worksite with 15 employees.
	res, site := doJSON(t, router, http.MethodPost, "/api/v1/worksites", map[string]any{
		"name":           "Norrland Sawmill",
		"risk_tier":      "dangerous",
		"employee_count": 15,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "pending_assignment", site["status"])
	siteID := site["id"].(string)

	// The preview prices the field expert slot at 20 min/employee.
	res, _ = doJSON(t, router, http.MethodGet, "/api/v1/worksites/"+siteID+"/assignments/preview", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Fill the slot and verify the hold landed on both aggregates.
	res, site = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/worksites/%s/assignments/field_expert", siteID),
		map[string]any{"person_id": personID},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)
	slot := site["assignments"].(map[string]any)["field_expert"].(map[string]any)
	assert.Equal(t, personID, slot["person_id"])
	assert.Equal(t, float64(300), slot["minutes"])

	res, person = doJSON(t, router, http.MethodGet, "/api/v1/persons/"+personID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(300), person["used_minutes"])
	assert.Equal(t, float64(700), person["remaining_minutes"])

	// Approve and record a visit.
	res, site = doJSON(t, router, http.MethodPut, "/api/v1/worksites/"+siteID+"/status",
		map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "approved", site["status"])

	res, record := doJSON(t, router, http.MethodPut,
		"/api/v1/worksites/"+siteID+"/visits/2026-03",
		map[string]any{"visited": true},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, record["visited"])

	res, view := doJSON(t, router, http.MethodGet,
		"/api/v1/worksites/"+siteID+"/visits?year=2026", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	months := view["months"].([]any)
	require.Len(t, months, 12)
	march := months[2].(map[string]any)
	assert.Equal(t, "2026-03", march["month"])
	assert.Equal(t, true, march["visited"])
	january := months[0].(map[string]any)
	assert.Equal(t, false, january["visited"])
}

func TestAssignmentWorkflow_RejectionsOnTheWire(t *testing.T) {
	router := newTestRouter(t)

	_, person := doJSON(t, router, http.MethodPost, "/api/v1/persons", map[string]any{
		"role":             "field_expert",
		"name":             "Vera Lindgren",
		"assigned_minutes": 700,
	})
	personID := person["id"].(string)

	_, site := doJSON(t, router, http.MethodPost, "/api/v1/worksites", map[string]any{
		"name":           "Harbor Depot",
		"risk_tier":      "dangerous",
		"employee_count": 15,
	})
	siteID := site["id"].(string)

	// A field expert cannot fill the physician slot.
	res, body := doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/worksites/%s/assignments/physician", siteID),
		map[string]any{"person_id": personID},
	)
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body["error_description"], "cannot fill the \"physician\" slot")

	// Safety support needs very_dangerous and more than ten employees.
	res, body = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/worksites/%s/assignments/safety_support", siteID),
		map[string]any{"person_id": personID},
	)
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "role not applicable for this worksite profile", body["error_description"])

	// A worksite too large for the remaining grant reports exact numbers.
	_, big := doJSON(t, router, http.MethodPost, "/api/v1/worksites", map[string]any{
		"name":           "Steelworks",
		"risk_tier":      "dangerous",
		"employee_count": 40,
	})
	res, body = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/worksites/%s/assignments/field_expert", big["id"]),
		map[string]any{"person_id": personID},
	)
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "insufficient capacity: required 800, available 700", body["error_description"])

	// The failed reservation left the ledger untouched.
	res, person = doJSON(t, router, http.MethodGet, "/api/v1/persons/"+personID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(0), person["used_minutes"])

	// Visit writes are rejected until the worksite is approved.
	res, body = doJSON(t, router, http.MethodPut,
		"/api/v1/worksites/"+siteID+"/visits/2026-01",
		map[string]any{"visited": true},
	)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "worksite is not approved for visit tracking", body["error_description"])
}

func TestAssignmentWorkflow_MalformedEnumsOnTheWire(t *testing.T) {
	router := newTestRouter(t)

	res, body := doJSON(t, router, http.MethodPost, "/api/v1/worksites", map[string]any{
		"name":           "Harbor Depot",
		"risk_tier":      "bogus",
		"employee_count": 15,
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, `unknown risk tier: "bogus"`, body["error_description"])

	res, body = doJSON(t, router, http.MethodPost, "/api/v1/persons", map[string]any{
		"role":             "janitor",
		"name":             "Vera Lindgren",
		"assigned_minutes": 100,
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, `unknown role: "janitor"`, body["error_description"])

	_, site := doJSON(t, router, http.MethodPost, "/api/v1/worksites", map[string]any{
		"name":           "Steelworks",
		"risk_tier":      "low",
		"employee_count": 5,
	})
	res, body = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/worksites/%s/assignments/janitor", site["id"]),
		map[string]any{"person_id": domain.NewPersonID().String()},
	)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, `unknown role: "janitor"`, body["error_description"])
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	res, body := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
