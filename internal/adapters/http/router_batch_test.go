package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/usecase"
	"github.com/kirillkom/tariff-resolver/internal/infrastructure/repository/memory"
	"github.com/kirillkom/tariff-resolver/internal/observability/metrics"
)

const sampleCatalog = "../../../configs/catalog.sample.yaml"

func newCatalogServices(t *testing.T) Services {
	t.Helper()
	catalog, err := memory.LoadFile(sampleCatalog)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	resolver := usecase.NewResolveUseCase(catalog)
	return Services{
		Resolver:  resolver,
		Batch:     usecase.NewBatchUseCase(resolver, 10),
		Comparer:  usecase.NewCompareUseCase(resolver, 10),
		Countries: usecase.NewCountryQueryUseCase(catalog),
		Exporter:  &exporterFake{},
		Metrics:   metrics.NewHTTPServerMetrics(serviceName),
	}
}

type batchResponse struct {
	Items []domain.BatchItem `json:"items"`
}

func scrapeMetrics(t *testing.T, handler http.Handler) string {
	t.Helper()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestBatchReportsInvalidItemsInPlace(t *testing.T) {
	handler := newTestHandler(t, config.Config{APIValidateRequests: true}, newCatalogServices(t))

	res := postJSON(handler, "/v1/tariffs/batch", `{"items":[
		{"code":"0702000000","cifValue":1000,"country":"MA"},
		{"code":"8","cifValue":1},
		{"code":"0702000000","cifValue":-1},
		{"code":"0702000000"},
		{"code":"8471300000","cifValue":500}
	]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload batchResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(payload.Items))
	}
	for i, item := range payload.Items {
		if item.Index != i {
			t.Fatalf("item %d carries index %d", i, item.Index)
		}
	}

	for _, i := range []int{0, 4} {
		item := payload.Items[i]
		if item.Error != nil || item.Resolution == nil || item.Resolution.Status != domain.StatusComplete {
			t.Fatalf("item %d: expected complete resolution, got %+v", i, item)
		}
	}
	wantKinds := map[int]string{1: "invalid_code", 2: "invalid_input", 3: "invalid_input"}
	for i, kind := range wantKinds {
		item := payload.Items[i]
		if item.Error == nil || item.Error.Kind != kind {
			t.Fatalf("item %d: expected %s error, got %+v", i, kind, item)
		}
	}
	if msg := payload.Items[3].Error.Message; msg != "invalid input: cifValue is required" {
		t.Fatalf("unexpected message for missing cifValue: %q", msg)
	}
	if code := payload.Items[3].Request.Code; code != "0702000000" {
		t.Fatalf("expected failed item to echo its code, got %q", code)
	}
}

func TestBatchOfOnlyInvalidItemsStillAnswers(t *testing.T) {
	services := newTestServices()
	batch := &batchFake{err: domain.ErrDataStore}
	services.Batch = batch
	handler := newTestHandler(t, config.Config{}, services)

	res := postJSON(handler, "/v1/tariffs/batch", `{"items":[{"code":"0702"},{"code":"8471"}]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var payload batchResponse
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 || payload.Items[1].Index != 1 || payload.Items[1].Error.Kind != "invalid_input" {
		t.Fatalf("unexpected items: %+v", payload.Items)
	}
}

func TestBatchEnforcesItemLimitBeforeConversion(t *testing.T) {
	handler := newTestHandler(t, config.Config{BatchMaxItems: 2}, newTestServices())

	res := postJSON(handler, "/v1/tariffs/batch", `{"items":[{"code":"0702"},{"code":"0702"},{"code":"0702"}]}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if msg := decodeError(t, res); msg != "invalid input: batch has 3 items, limit is 2" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestShortCodeSurfacesEngineError(t *testing.T) {
	handler := newTestHandler(t, config.Config{APIValidateRequests: true}, newCatalogServices(t))

	res := postJSON(handler, "/v1/tariffs/resolve", `{"code":"8","cifValue":1}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
	}
	if msg := decodeError(t, res); msg != `invalid classification code: "8" must contain at least 2 digits` {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBatchAndCompareRecordResolutions(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, newCatalogServices(t))

	res := postJSON(handler, "/v1/tariffs/batch", `{"items":[
		{"code":"0702000000","cifValue":1000,"country":"MA"},
		{"code":"84A1","cifValue":1}
	]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("batch: expected 200, got %d: %s", res.Code, res.Body.String())
	}
	res = postJSON(handler, "/v1/tariffs/compare", `{"code":"0702000000","cifValue":1000,"countries":["MA","CN"]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("compare: expected 200, got %d: %s", res.Code, res.Body.String())
	}

	exposition := scrapeMetrics(t, handler)
	for _, line := range []string{
		`tariff_resolutions_total{outcome="complete",service="tariff-api"} 3`,
		`tariff_resolutions_total{outcome="invalid_code",service="tariff-api"} 1`,
		`tariff_duty_treatment_total{service="tariff-api",treatment="preferential"} 2`,
	} {
		if !strings.Contains(exposition, line) {
			t.Fatalf("expected %q in exposition:\n%s", line, exposition)
		}
	}
}
