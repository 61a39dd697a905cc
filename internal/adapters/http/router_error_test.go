package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
)

type resolverFake struct {
	resolution *domain.Resolution
	err        error
	last       domain.ResolveRequest
}

func (f *resolverFake) Resolve(_ context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resolution, nil
}

type batchFake struct {
	items []domain.BatchItem
	err   error
}

func (f *batchFake) ResolveBatch(_ context.Context, reqs []domain.ResolveRequest) ([]domain.BatchItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.items != nil {
		return f.items, nil
	}
	items := make([]domain.BatchItem, 0, len(reqs))
	for i, req := range reqs {
		items = append(items, domain.BatchItem{Index: i, Request: req, Error: &domain.BatchError{Kind: "no_tariff", Message: "no tariff found for this code"}})
	}
	return items, nil
}

type comparerFake struct {
	countries []string
	err       error
}

func (f *comparerFake) CompareOrigins(_ context.Context, code string, _ decimal.Decimal, countries []string) (*domain.Comparison, error) {
	f.countries = countries
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Comparison{Code: code, Status: domain.StatusComplete}, nil
}

type countriesFake struct {
	err error
}

func (f countriesFake) ListCountries(context.Context) ([]domain.Country, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Country{{Code: "MA", Name: "Morocco"}}, nil
}

type exporterFake struct {
	rows int
	err  error
}

func (f *exporterFake) ExportBatch(w io.Writer, items []domain.BatchItem) error {
	f.rows = len(items)
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func newTestServices() Services {
	return Services{
		Resolver: &resolverFake{resolution: domain.Complete(&domain.CalculationResult{
			MatchedCode: "8471300000",
			Total:       decimal.RequireFromString("1210"),
		})},
		Batch:     &batchFake{},
		Comparer:  &comparerFake{},
		Countries: countriesFake{},
		Exporter:  &exporterFake{},
	}
}

func newTestHandler(t *testing.T, cfg config.Config, services Services) http.Handler {
	t.Helper()
	handler, err := NewRouter(cfg, services).Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return handler
}

func postJSON(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(bytes.NewReader(res.Body.Bytes())).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func TestResolveMapsDomainErrorsToStatus(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "invalid code",
			err:     fmt.Errorf("%w: %q must contain at least 2 digits", domain.ErrInvalidCode, "8"),
			status:  http.StatusBadRequest,
			message: `invalid classification code: "8" must contain at least 2 digits`,
		},
		{
			name:    "no tariff",
			err:     fmt.Errorf("%w: %s", domain.ErrNoTariffFound, "9999999999"),
			status:  http.StatusNotFound,
			message: "no tariff found for this code",
		},
		{
			name:    "data store",
			err:     domain.WrapError(domain.ErrDataStore, "find standard duty", errors.New("pq: password authentication failed")),
			status:  http.StatusInternalServerError,
			message: "calculation failed",
		},
		{
			name:    "temporary",
			err:     domain.WrapError(domain.ErrDataStore, "find vat", domain.WrapError(domain.ErrTemporary, "catalog", errors.New("circuit open"))),
			status:  http.StatusServiceUnavailable,
			message: "tariff catalog temporarily unavailable",
		},
	}
	for _, tc := range cases {
		services := newTestServices()
		services.Resolver = &resolverFake{err: tc.err}
		handler := newTestHandler(t, config.Config{}, services)

		res := postJSON(handler, "/v1/tariffs/resolve", `{"code":"8","cifValue":100}`)
		if res.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, res.Code)
		}
		if got := decodeError(t, res); got != tc.message {
			t.Fatalf("%s: expected message %q, got %q", tc.name, tc.message, got)
		}
	}
}

func TestResolveReturnsResolutionEnvelope(t *testing.T) {
	services := newTestServices()
	resolver := services.Resolver.(*resolverFake)
	handler := newTestHandler(t, config.Config{}, services)

	res := postJSON(handler, "/v1/tariffs/resolve", `{"code":"847130","cifValue":"1000.50","country":"ma"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !resolver.last.CIFValue.Equal(decimal.RequireFromString("1000.50")) || resolver.last.Country != "ma" {
		t.Fatalf("unexpected request forwarded: %+v", resolver.last)
	}

	var payload struct {
		Status string `json:"status"`
		Result struct {
			MatchedCode string `json:"matchedCode"`
			Total       string `json:"total"`
		} `json:"result"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "complete" || payload.Result.MatchedCode != "8471300000" || payload.Result.Total != "1210" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestResolveRequiresCIFValue(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, newTestServices())

	res := postJSON(handler, "/v1/tariffs/resolve", `{"code":"847130"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	res = postJSON(handler, "/v1/tariffs/resolve", `{"code":`)
	if res.Code != http.StatusBadRequest || decodeError(t, res) != "invalid json" {
		t.Fatalf("expected invalid json 400, got %d", res.Code)
	}
}

func TestBatchExportStreamsSpreadsheet(t *testing.T) {
	services := newTestServices()
	exporter := services.Exporter.(*exporterFake)
	handler := newTestHandler(t, config.Config{}, services)

	res := postJSON(handler, "/v1/tariffs/batch/export", `{"items":[{"code":"0702","cifValue":1},{"code":"8471","cifValue":2}]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get("Content-Type") != xlsxMimeType {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if exporter.rows != 2 {
		t.Fatalf("expected 2 exported rows, got %d", exporter.rows)
	}
	if res.Body.String() != "PK-xlsx" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestBatchRejectsOversizedInput(t *testing.T) {
	services := newTestServices()
	services.Batch = &batchFake{err: fmt.Errorf("%w: batch has 3 items, limit is 2", domain.ErrInvalidInput)}
	handler := newTestHandler(t, config.Config{}, services)

	res := postJSON(handler, "/v1/tariffs/batch", `{"items":[{"code":"0702","cifValue":1}]}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCompareForwardsCountries(t *testing.T) {
	services := newTestServices()
	comparer := services.Comparer.(*comparerFake)
	handler := newTestHandler(t, config.Config{}, services)

	res := postJSON(handler, "/v1/tariffs/compare", `{"code":"0702000000","cifValue":1000,"countries":["MA","RU"]}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(comparer.countries) != 2 || comparer.countries[1] != "RU" {
		t.Fatalf("unexpected countries forwarded: %v", comparer.countries)
	}
}

func TestCountriesStoreFailureIsGeneric(t *testing.T) {
	services := newTestServices()
	services.Countries = countriesFake{err: domain.WrapError(domain.ErrDataStore, "list countries", errors.New("dial tcp: refused"))}
	handler := newTestHandler(t, config.Config{}, services)

	req := httptest.NewRequest(http.MethodGet, "/v1/countries", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusInternalServerError || decodeError(t, res) != "calculation failed" {
		t.Fatalf("expected generic 500, got %d %s", res.Code, res.Body.String())
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, newTestServices())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/unknown", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/tariffs/resolve", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, newTestServices())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}
