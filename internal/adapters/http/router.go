package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/core/domain"
	"github.com/kirillkom/tariff-resolver/internal/core/ports"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
	"github.com/kirillkom/tariff-resolver/internal/observability/metrics"
)

const (
	serviceName  = "tariff-api"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Services are the inbound ports the router exposes. Metrics is optional.
type Services struct {
	Resolver  ports.TariffResolver
	Batch     ports.BatchResolver
	Comparer  ports.OriginComparer
	Countries ports.CountryReader
	Exporter  ports.BatchExporter
	Metrics   *metrics.HTTPServerMetrics
}

type Router struct {
	cfg      config.Config
	services Services
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{cfg: cfg, services: services}
}

func (rt *Router) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware)
	if m := rt.services.Metrics; m != nil {
		r.Use(func(next http.Handler) http.Handler { return m.Middleware(serviceName, next) })
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	if m := rt.services.Metrics; m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/healthz", rt.healthz)

	var validator *requestValidator
	if rt.cfg.APIValidateRequests {
		v, err := newRequestValidator()
		if err != nil {
			return nil, err
		}
		validator = v
	}

	r.Group(func(api chi.Router) {
		if rt.cfg.APIRateLimitRPS > 0 {
			api.Use(rateLimitMiddleware(rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejected("rate_limit")))
		}
		if rt.cfg.APIMaxInFlight > 0 {
			api.Use(func(next http.Handler) http.Handler {
				return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, rt.rejected("backpressure"))
			})
		}
		if validator != nil {
			api.Use(validator.Middleware)
		}

		api.Post("/v1/tariffs/resolve", rt.resolve)
		api.Post("/v1/tariffs/batch", rt.resolveBatch)
		api.Post("/v1/tariffs/batch/export", rt.exportBatch)
		api.Post("/v1/tariffs/compare", rt.compare)
		api.Get("/v1/countries", rt.listCountries)
	})
	return r, nil
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.services.Metrics != nil {
			rt.services.Metrics.RecordRejected(serviceName, reason)
		}
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type resolveRequest struct {
	Code     string           `json:"code"`
	CIFValue *decimal.Decimal `json:"cifValue"`
	Country  string           `json:"country"`
}

func (req resolveRequest) toDomain() (domain.ResolveRequest, error) {
	if req.CIFValue == nil {
		return domain.ResolveRequest{}, fmt.Errorf("%w: cifValue is required", domain.ErrInvalidInput)
	}
	return domain.ResolveRequest{Code: req.Code, CIFValue: *req.CIFValue, Country: req.Country}, nil
}

type batchRequest struct {
	Items []resolveRequest `json:"items"`
}

// toDomain converts every item it can. Items that fail conversion come back
// as ready-made BatchItem errors keyed by their position in the request.
func (req batchRequest) toDomain() ([]domain.ResolveRequest, []int, map[int]domain.BatchItem) {
	reqs := make([]domain.ResolveRequest, 0, len(req.Items))
	positions := make([]int, 0, len(req.Items))
	var failed map[int]domain.BatchItem
	for i, item := range req.Items {
		converted, err := item.toDomain()
		if err != nil {
			if failed == nil {
				failed = make(map[int]domain.BatchItem)
			}
			failed[i] = domain.BatchItem{
				Index:   i,
				Request: domain.ResolveRequest{Code: item.Code, Country: item.Country},
				Error: &domain.BatchError{
					Kind:    domain.KindName(domain.ErrInvalidInput),
					Message: domain.PublicMessage(err),
				},
			}
			continue
		}
		reqs = append(reqs, converted)
		positions = append(positions, i)
	}
	return reqs, positions, failed
}

type compareRequest struct {
	Code      string           `json:"code"`
	CIFValue  *decimal.Decimal `json:"cifValue"`
	Countries []string         `json:"countries"`
}

func (rt *Router) resolve(w http.ResponseWriter, r *http.Request) {
	var body resolveRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	resolution, err := rt.services.Resolver.Resolve(r.Context(), req)
	if rt.services.Metrics != nil {
		rt.services.Metrics.RecordResolution(serviceName, resolution, err)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (rt *Router) runBatch(w http.ResponseWriter, r *http.Request, endpoint string) ([]domain.BatchItem, bool) {
	var body batchRequest
	if !decodeJSON(w, r, &body) {
		return nil, false
	}
	if limit := rt.cfg.BatchMaxItems; limit > 0 && len(body.Items) > limit {
		writeError(w, r, fmt.Errorf("%w: batch has %d items, limit is %d", domain.ErrInvalidInput, len(body.Items), limit))
		return nil, false
	}

	reqs, positions, failed := body.toDomain()
	var resolved []domain.BatchItem
	if len(reqs) > 0 || len(failed) == 0 {
		var err error
		resolved, err = rt.services.Batch.ResolveBatch(r.Context(), reqs)
		if err != nil {
			writeError(w, r, err)
			return nil, false
		}
	}

	items := make([]domain.BatchItem, len(body.Items))
	for i, item := range resolved {
		if i >= len(positions) {
			break
		}
		item.Index = positions[i]
		items[item.Index] = item
	}
	for i, item := range failed {
		items[i] = item
	}

	if m := rt.services.Metrics; m != nil {
		m.RecordBatchSize(serviceName, endpoint, len(items))
		for _, item := range items {
			m.RecordResolution(serviceName, item.Resolution, batchItemError(item))
		}
	}
	return items, true
}

func batchItemError(item domain.BatchItem) error {
	if item.Error == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.KindByName(item.Error.Kind), item.Error.Message)
}

func (rt *Router) resolveBatch(w http.ResponseWriter, r *http.Request) {
	items, ok := rt.runBatch(w, r, "batch")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (rt *Router) exportBatch(w http.ResponseWriter, r *http.Request) {
	items, ok := rt.runBatch(w, r, "batch_export")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := rt.services.Exporter.ExportBatch(&buf, items); err != nil {
		logging.FromContext(r.Context()).Error("batch_export_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	w.Header().Set("Content-Type", xlsxMimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="tariff-batch.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	var body compareRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CIFValue == nil {
		writeError(w, r, fmt.Errorf("%w: cifValue is required", domain.ErrInvalidInput))
		return
	}

	comparison, err := rt.services.Comparer.CompareOrigins(r.Context(), body.Code, *body.CIFValue, body.Countries)
	rt.recordComparison(comparison, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (rt *Router) recordComparison(comparison *domain.Comparison, err error) {
	m := rt.services.Metrics
	if m == nil {
		return
	}
	if err != nil || comparison == nil {
		m.RecordResolution(serviceName, nil, err)
		return
	}
	if comparison.Status == domain.StatusIncomplete {
		m.RecordResolution(serviceName, domain.Incomplete(comparison.Incomplete), nil)
		return
	}
	for _, origin := range comparison.Origins {
		m.RecordResolution(serviceName, domain.Complete(&domain.CalculationResult{
			MatchedCode: comparison.Code,
			Country:     origin.Country,
			Duty:        origin.Duty,
			VAT:         origin.VAT,
			Total:       origin.Total,
		}), nil)
	}
}

func (rt *Router) listCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := rt.services.Countries.ListCountries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": countries})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
