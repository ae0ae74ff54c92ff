package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gestorapp/gestor/internal/httpx"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/services"
)

type ReportHandler struct {
	Svc *services.ReportService
}

func NewReportHandler(svc *services.ReportService) *ReportHandler { return &ReportHandler{Svc: svc} }

// dateRange parses optional from/to query params; zero values mean the
// caller's side of the range is open. Writes the 400 itself on bad input.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"from": "invalid_date"})
			return from, to, false
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"to": "invalid_date"})
			return from, to, false
		}
		// Inclusive end of day.
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, true
}

// Summary: GET /reports/summary?from=2026-01-01&to=2026-01-31
// Defaults to the last 30 days, like the original dashboard.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	sum, err := h.Svc.Summarize(from, to)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_summarize", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// Monthly: GET /reports/monthly?kind=sale&year=2026
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	kind := models.KindSale
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := models.ParseOrderKind(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"kind": "invalid_choice"})
			return
		}
		kind = k
	}
	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 2000 || y > 2100 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"year": "invalid"})
			return
		}
		year = y
	}
	series, err := h.Svc.MonthlySeries(kind, year)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_series", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"kind": kind, "year": year, "months": series})
}

// TopProducts: GET /reports/top-products?from=&to=&limit=5
func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.TopProducts(from, to, limitParam(r))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_rank_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// TopClients: GET /reports/top-clients?from=&to=&limit=5
func (h *ReportHandler) TopClients(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.TopClients(from, to, limitParam(r))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_rank_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// TopSuppliers: GET /reports/top-suppliers?from=&to=&limit=5
func (h *ReportHandler) TopSuppliers(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.TopSuppliers(from, to, limitParam(r))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_rank_suppliers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			return n
		}
	}
	return 5
}
