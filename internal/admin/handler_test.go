package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/internal/lookup"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
	"github.com/odyssey-erp/entityadmin/internal/state"
)

type stubLookups struct {
	err     error
	country string
}

func (s *stubLookups) Currencies(ctx context.Context) ([]lookup.Option, error) {
	return []lookup.Option{{ID: "EUR", Name: "Euro"}}, s.err
}

func (s *stubLookups) Countries(ctx context.Context) ([]lookup.Option, error) {
	return []lookup.Option{{ID: "BR", Name: "Brazil"}}, s.err
}

func (s *stubLookups) States(ctx context.Context, countryID string) ([]lookup.Option, error) {
	s.country = countryID
	return nil, s.err
}

func newTestRouter(t *testing.T, svc EntityService, lookups LookupService) (http.Handler, *Controller) {
	t.Helper()
	store := state.NewStore(state.State{})
	t.Cleanup(store.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	controller := NewController(svc, store, logger)
	r := chi.NewRouter()
	r.Route("/api", NewHandler(logger, controller, lookups).MountRoutes)
	return r, controller
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListEntitiesEndpoint(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodGet, "/api/entities?page=1&pageSize=1&search=acme&includeDeleted=true", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Items, 2)
	assert.Equal(t, 2, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNext)
	assert.Equal(t, "acme", svc.filters[0].Search)
	assert.True(t, svc.filters[0].IncludeDeleted)
}

func TestListEntitiesRejectsBadQuery(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{}, nil)

	rr := do(t, h, http.MethodGet, "/api/entities?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/entities?pageSize=1000", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListEntitiesUpstreamFailure(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{listErr: &sqlapi.StatusError{Code: 503}}, nil)

	rr := do(t, h, http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgFetchEntitiesFailed)
}

func TestGetEntityEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{items: sampleEntities()}, nil)

	rr := do(t, h, http.MethodGet, "/api/entities/e-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body entityResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Acme", body.Entity.DisplayName)

	rr = do(t, h, http.MethodGet, "/api/entities/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHierarchyEndpointEmpty(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{}, nil)

	rr := do(t, h, http.MethodGet, "/api/entities/hierarchy", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCreateEntityEndpoint(t *testing.T) {
	svc := &stubService{}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodPost, "/api/entities", `{"displayName":"Initech","defaultCurrency":"USD","modules":["finance"]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, svc.created, 1)
	assert.Equal(t, "USD", svc.created[0].Currencies.Default)
	assert.Equal(t, []string{"finance"}, svc.created[0].Modules)

	var body messageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, RouteList, body.Route)
}

func TestMutationRoutesBelongToTheirRequest(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	const rounds = 25
	routes := make(chan [2]string, 2*rounds)
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rr := do(t, h, http.MethodPost, "/api/entities", `{"displayName":"Initech"}`)
			var body messageResponse
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			routes <- [2]string{RouteList, body.Route}
		}()
		go func() {
			defer wg.Done()
			rr := do(t, h, http.MethodPut, "/api/entities/e-1", `{"displayName":"Acme Corp"}`)
			var body messageResponse
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			routes <- [2]string{EntityRoute("e-1"), body.Route}
		}()
	}
	wg.Wait()
	close(routes)
	for got := range routes {
		assert.Equal(t, got[0], got[1])
	}
}

func TestCreateEntityValidation(t *testing.T) {
	svc := &stubService{}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodPost, "/api/entities", `{"displayName":"x","modules":[""]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/entities", `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, svc.created)
}

func TestCreateEntityServerError(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{createErr: &sqlapi.ServerError{Message: "Duplicate key"}}, nil)

	rr := do(t, h, http.MethodPost, "/api/entities", `{"displayName":"Initech"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Duplicate key")
}

func TestUpdateEntityUsesPathID(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodPut, "/api/entities/e-1", `{"id":"other","displayName":"Acme Corp"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, svc.updated, 1)
	assert.Equal(t, "e-1", svc.updated[0].ID)
}

func TestDeleteEntityEndpoint(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodDelete, "/api/entities/e-2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"e-2"}, svc.deleted)
}

func TestPatchEntityEndpoint(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodPatch, "/api/entities/e-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPatch, "/api/entities/e-1", `{"isConfigured":true,"progressPercentage":"100"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, svc.patches, 1)
	assert.Equal(t, "e-1", svc.patches[0].ID)
	require.NotNil(t, svc.patches[0].IsConfigured)
	assert.True(t, *svc.patches[0].IsConfigured)
}

func TestToggleEndpointRevertsOnFailure(t *testing.T) {
	svc := &stubService{items: sampleEntities(), patchErr: errors.New("boom")}
	h, controller := newTestRouter(t, svc, nil)
	_, _, err := controller.LoadEntities(context.Background(), entity.ListFilters{})
	require.NoError(t, err)

	rr := do(t, h, http.MethodPost, "/api/entities/e-1/toggle", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), MsgStatusUpdateFailed)

	e, _ := controller.Snapshot().Find("e-1")
	assert.True(t, e.IsEnabled)
}

func TestToggleEndpoint(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, _ := newTestRouter(t, svc, nil)

	rr := do(t, h, http.MethodPost, "/api/entities/e-2/toggle", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"e-2","isEnabled":true}`, rr.Body.String())
}

func TestStateEndpoint(t *testing.T) {
	svc := &stubService{items: sampleEntities()}
	h, controller := newTestRouter(t, svc, nil)
	_, _, err := controller.LoadEntities(context.Background(), entity.ListFilters{})
	require.NoError(t, err)

	rr := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap state.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Len(t, snap.Entities.Items, 2)
}

func TestLookupEndpoints(t *testing.T) {
	lookups := &stubLookups{}
	h, _ := newTestRouter(t, &stubService{}, lookups)

	rr := do(t, h, http.MethodGet, "/api/lookups/currencies", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"EUR","name":"Euro"}]`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/api/lookups/countries/BR/states", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	assert.Equal(t, "BR", lookups.country)

	lookups.err = errors.New("down")
	rr = do(t, h, http.MethodGet, "/api/lookups/countries", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestLookupRoutesAbsentWithoutService(t *testing.T) {
	h, _ := newTestRouter(t, &stubService{}, nil)
	rr := do(t, h, http.MethodGet, "/api/lookups/currencies", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
