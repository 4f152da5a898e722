package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seemyown/StockController/internal/capacity"
	"github.com/seemyown/StockController/internal/cities"
	"github.com/seemyown/StockController/internal/items"
	"github.com/seemyown/StockController/internal/stocks"
	"github.com/seemyown/StockController/pkg/db/dbtest"
	"github.com/seemyown/StockController/pkg/enums"
	pkgerrors "github.com/seemyown/StockController/pkg/errors"
	"github.com/seemyown/StockController/pkg/idgen"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type testCityService struct {
	listFn   func(ctx context.Context, extended bool) ([]cities.CityDTO, error)
	searchFn func(ctx context.Context, prefix string) ([]cities.CityDTO, error)
}

func (s *testCityService) ListCities(ctx context.Context, extended bool) ([]cities.CityDTO, error) {
	return s.listFn(ctx, extended)
}

func (s *testCityService) SearchCities(ctx context.Context, prefix string) ([]cities.CityDTO, error) {
	return s.searchFn(ctx, prefix)
}

func (s *testCityService) GetCityByName(context.Context, string) (*cities.CityDTO, error) {
	return nil, nil
}

type testStockService struct {
	createFn func(ctx context.Context, input stocks.CreateStockInput) (int64, error)
	getFn    func(ctx context.Context, id int64) (*stocks.StockDetailDTO, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *testStockService) CreateStock(ctx context.Context, input stocks.CreateStockInput) (int64, error) {
	return s.createFn(ctx, input)
}

func (s *testStockService) GetStock(ctx context.Context, id int64) (*stocks.StockDetailDTO, error) {
	return s.getFn(ctx, id)
}

func (s *testStockService) ListStocks(context.Context) ([]stocks.StockDTO, error) {
	return []stocks.StockDTO{{ID: 1, Name: "North"}}, nil
}

func (s *testStockService) DeleteStock(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type testItemService struct {
	createFn func(ctx context.Context, inputs []items.CreateItemInput) ([]items.ImportResult, error)
	updateFn func(ctx context.Context, updates []items.AllocationUpdate) error
	deleteFn func(ctx context.Context, refs []items.AllocationRef) error
	removeFn func(ctx context.Context, refs []items.AllocationRef) error
}

func (s *testItemService) CreateItem(ctx context.Context, input items.CreateItemInput) (items.ImportResult, error) {
	res, err := s.createFn(ctx, []items.CreateItemInput{input})
	if err != nil {
		return items.ImportResult{}, err
	}
	return res[0], nil
}

func (s *testItemService) CreateManyItems(ctx context.Context, inputs []items.CreateItemInput) ([]items.ImportResult, error) {
	return s.createFn(ctx, inputs)
}

func (s *testItemService) UpdateItems(ctx context.Context, updates []items.AllocationUpdate) error {
	return s.updateFn(ctx, updates)
}

func (s *testItemService) DeleteItems(ctx context.Context, refs []items.AllocationRef) error {
	return s.deleteFn(ctx, refs)
}

func (s *testItemService) RemoveAllocations(ctx context.Context, refs []items.AllocationRef) error {
	return s.removeFn(ctx, refs)
}

func (s *testItemService) GetItems(context.Context) ([]items.ItemDTO, error) {
	return nil, nil
}

func (s *testItemService) GetItem(_ context.Context, id int64) (*items.ItemDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
}

type testCapacityService struct {
	report capacity.Report
	last   *capacity.Report
	err    error
}

func (s *testCapacityService) Reconcile(context.Context) (capacity.Report, error) {
	return s.report, s.err
}

func (s *testCapacityService) LastReport(context.Context) (*capacity.Report, error) {
	if s.last == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no reconciliation recorded yet")
	}
	return s.last, nil
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthReady("dev", testLogger(), stubPinger{}, stubPinger{err: errors.New("redis down")})(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady("dev", testLogger(), stubPinger{}, nil)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestCityListPassesExtendFlag(t *testing.T) {
	var gotExtended bool
	svc := &testCityService{listFn: func(_ context.Context, extended bool) ([]cities.CityDTO, error) {
		gotExtended = extended
		return []cities.CityDTO{{ID: 1, Name: "Paris"}}, nil
	}}

	resp := httptest.NewRecorder()
	CityList(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cities?extend=true", nil))
	if resp.Code != http.StatusOK || !gotExtended {
		t.Fatalf("unexpected status %d extended=%v", resp.Code, gotExtended)
	}

	resp = httptest.NewRecorder()
	CityList(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cities?extend=nope", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad flag, got %d", resp.Code)
	}
}

func TestCitySearchForwardsQuery(t *testing.T) {
	var got string
	svc := &testCityService{searchFn: func(_ context.Context, prefix string) ([]cities.CityDTO, error) {
		got = prefix
		return nil, nil
	}}
	resp := httptest.NewRecorder()
	CitySearch(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cities/search?query=+par+", nil))
	if resp.Code != http.StatusOK || got != "par" {
		t.Fatalf("unexpected status %d query %q", resp.Code, got)
	}
}

func TestStockCreate(t *testing.T) {
	var got stocks.CreateStockInput
	svc := &testStockService{createFn: func(_ context.Context, input stocks.CreateStockInput) (int64, error) {
		got = input
		return 1000000000001, nil
	}}

	body := `{"name":"North","city":"Moscow","capability":500}`
	resp := httptest.NewRecorder()
	StockCreate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/stocks", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.CityName != "Moscow" || got.Capacity != 500 || got.Name != "North" {
		t.Fatalf("unexpected input %+v", got)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["id"] != 1000000000001 {
		t.Fatalf("unexpected id %v", envelope.Data)
	}
}

func TestStockCreateValidation(t *testing.T) {
	svc := &testStockService{createFn: func(context.Context, stocks.CreateStockInput) (int64, error) {
		t.Fatal("service must not be called")
		return 0, nil
	}}
	for _, body := range []string{
		`{"name":"North","capability":5}`,
		`{"name":"North","city":"Moscow"}`,
		`{"name":"North","city":"Moscow","capability":-1}`,
		`{"city":"Moscow","capability":1}`,
	} {
		resp := httptest.NewRecorder()
		StockCreate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/stocks", strings.NewReader(body)))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.Code)
		}
	}
}

func TestStockListWrapsItemsWithTotal(t *testing.T) {
	resp := httptest.NewRecorder()
	StockList(&testStockService{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/stocks", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var body struct {
		Data types.ListPayload[stocks.StockDTO] `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 1 || len(body.Data.Items) != 1 || body.Data.Items[0].Name != "North" {
		t.Fatalf("unexpected payload %+v", body.Data)
	}
}

func TestStockDetailNotFound(t *testing.T) {
	svc := &testStockService{getFn: func(context.Context, int64) (*stocks.StockDetailDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/stocks/5", nil), "stockId", "5")
	resp := httptest.NewRecorder()
	StockDetail(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Message != "stock not found" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestStockDeleteAccepted(t *testing.T) {
	var deleted int64
	svc := &testStockService{deleteFn: func(_ context.Context, id int64) error {
		deleted = id
		return nil
	}}
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/stocks/77", nil), "stockId", "77")
	resp := httptest.NewRecorder()
	StockDelete(svc, testLogger())(resp, req)
	if resp.Code != http.StatusAccepted || deleted != 77 {
		t.Fatalf("unexpected status %d deleted %d", resp.Code, deleted)
	}
}

func TestItemCreateReturnsPerItemResults(t *testing.T) {
	svc := &testItemService{createFn: func(_ context.Context, inputs []items.CreateItemInput) ([]items.ImportResult, error) {
		if len(inputs) != 2 || inputs[0].Allocations[0].StockID != 10 || !inputs[0].Price.IsPositive() {
			t.Fatalf("unexpected inputs %+v", inputs)
		}
		return []items.ImportResult{
			{ID: 1, Article: "A", Status: enums.ImportStatusImported},
			{Article: "B", Status: enums.ImportStatusDeclined, Err: "UNIQUE constraint failed: items.article"},
		}, nil
	}}
	body := `{"items":[{"article":"A","name":"Apple","price":"9.99","stocks":[{"stock_id":10,"remains":3}]},{"article":"B","name":"Bean","price":1}]}`
	resp := httptest.NewRecorder()
	ItemCreate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []items.ImportResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[1].Status != enums.ImportStatusDeclined || envelope.Data[1].Err == "" {
		t.Fatalf("unexpected results %+v", envelope.Data)
	}
}

type failingReconciler struct{ err error }

func (f failingReconciler) Reconcile(context.Context) (capacity.Report, error) {
	return capacity.Report{}, f.err
}

func TestItemCreateKeepsResultsWhenReconcileFails(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := items.NewService(items.ServiceParams{
		DB:         client,
		Repo:       items.NewRepository(client.DB()),
		Reconciler: failingReconciler{err: errors.New("reconcile down")},
		IDs:        idgen.NewSequence(10_000),
		Logger:     logger.Nop(),
	})
	if err != nil {
		t.Fatalf("new item service: %v", err)
	}
	handler := ItemCreate(svc, testLogger())
	body := `{"items":[{"article":"A","name":"Apple","price":"1.50"}]}`

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a committed batch, got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []items.ImportResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || !envelope.Data[0].Imported() || envelope.Data[0].ID == 0 {
		t.Fatalf("expected the stored item id and status, got %+v", envelope.Data)
	}

	resp = httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status on retry %d", resp.Code)
	}
	envelope.Data = nil
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode retry: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Status != enums.ImportStatusDeclined {
		t.Fatalf("expected retry to be declined as duplicate, got %+v", envelope.Data)
	}
}

func TestItemCreateBatchFailureIsAnError(t *testing.T) {
	svc := &testItemService{createFn: func(context.Context, []items.CreateItemInput) ([]items.ImportResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db: import item")
	}}
	resp := httptest.NewRecorder()
	ItemCreate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"items":[{"article":"A","name":"Apple"}]}`)))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestItemUpdateNoContentAndValidation(t *testing.T) {
	var got []items.AllocationUpdate
	svc := &testItemService{updateFn: func(_ context.Context, updates []items.AllocationUpdate) error {
		got = updates
		return nil
	}}

	resp := httptest.NewRecorder()
	ItemUpdate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPatch, "/api/v1/items", strings.NewReader(`{"items":[{"item_id":1,"stock_id":2,"remains":7}]}`)))
	if resp.Code != http.StatusNoContent || len(got) != 1 || got[0].Remains != 7 {
		t.Fatalf("unexpected status %d updates %+v", resp.Code, got)
	}

	resp = httptest.NewRecorder()
	ItemUpdate(svc, testLogger())(resp, httptest.NewRequest(http.MethodPatch, "/api/v1/items", strings.NewReader(`{"items":[]}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", resp.Code)
	}
}

func TestItemDeleteAndRemoveRouteToDifferentOperations(t *testing.T) {
	var deleted, removed int
	svc := &testItemService{
		deleteFn: func(_ context.Context, refs []items.AllocationRef) error { deleted += len(refs); return nil },
		removeFn: func(_ context.Context, refs []items.AllocationRef) error { removed += len(refs); return nil },
	}
	body := `{"items":[{"item_id":1,"stock_id":2}]}`

	resp := httptest.NewRecorder()
	ItemDelete(svc, testLogger())(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/items", strings.NewReader(body)))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("unexpected delete status %d", resp.Code)
	}
	resp = httptest.NewRecorder()
	ItemRemoveAllocations(svc, testLogger())(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/items/allocations", strings.NewReader(body)))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("unexpected remove status %d", resp.Code)
	}
	if deleted != 1 || removed != 1 {
		t.Fatalf("expected one call each, got delete=%d remove=%d", deleted, removed)
	}
}

func TestItemDetailRejectsBadID(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/items/abc", nil), "itemId", "abc")
	resp := httptest.NewRecorder()
	ItemDetail(&testItemService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCapacityEndpoints(t *testing.T) {
	svc := &testCapacityService{report: capacity.Report{StocksVisited: 3, LinksScanned: 9, FinishedAt: time.Unix(0, 0).UTC()}}

	resp := httptest.NewRecorder()
	CapacityReconcile(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/capacities/reconcile", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data capacity.Report `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.StocksVisited != 3 || envelope.Data.LinksScanned != 9 {
		t.Fatalf("unexpected report %+v", envelope.Data)
	}

	resp = httptest.NewRecorder()
	CapacityLastReport(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/capacities/last", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any pass, got %d", resp.Code)
	}

	svc.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "reconcile capacities")
	resp = httptest.NewRecorder()
	CapacityReconcile(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/capacities/reconcile", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
