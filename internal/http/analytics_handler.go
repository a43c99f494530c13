package http

import (
	"context"
	"net/http"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/fjod/go_storefront/internal/service"
)

type AnalyticsHandler struct {
	analytics AnalyticsAPI
	timeout   time.Duration
}

func NewAnalyticsHandler(a AnalyticsAPI, timeout time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, timeout: timeout}
}

// reportParams reshape the report; any of them forces a fresh, uncached pass.
var reportParams = []string{"from", "to", "tz", "days", "max_days", "top", "exclude_cancelled"}

// GET /api/v1/admin/analytics?fresh=true
// GET /api/v1/admin/analytics?from=2026-03-01&to=2026-04-01&tz=America/Mexico_City&top=5
//
// from/to bound the current window as [from, to); date-only values are midnight in tz.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query()
	fresh := false
	if v := query.Get("fresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_fresh", "fresh must be a boolean")
			return
		}
		fresh = b
	}

	custom := false
	for _, name := range reportParams {
		if query.Has(name) {
			custom = true
			break
		}
	}
	if !custom {
		rep, err := h.analytics.Report(ctx, principalFrom(r.Context()), fresh)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
		return
	}

	q, code, msg := parseReportQuery(r)
	if code != "" {
		respondError(w, http.StatusBadRequest, code, msg)
		return
	}
	rep, err := h.analytics.ReportFor(ctx, principalFrom(r.Context()), q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func parseReportQuery(r *http.Request) (service.ReportQuery, string, string) {
	var q service.ReportQuery
	query := r.URL.Query()

	loc := time.UTC
	if tz := query.Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return q, "invalid_tz", "tz must be an IANA time zone name"
		}
		loc = l
		q.Location = l
	}

	var err error
	if q.From, err = parseTimeIn(query.Get("from"), loc); err != nil {
		return q, "invalid_from", "from must be RFC3339 or YYYY-MM-DD"
	}
	if q.To, err = parseTimeIn(query.Get("to"), loc); err != nil {
		return q, "invalid_to", "to must be RFC3339 or YYYY-MM-DD"
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"days", &q.Days},
		{"max_days", &q.MaxDays},
		{"top", &q.TopCategories},
	}
	for _, p := range ints {
		v := query.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, "invalid_" + p.name, p.name + " must be a non-negative integer"
		}
		*p.dst = n
	}

	if v := query.Get("exclude_cancelled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, "invalid_exclude_cancelled", "exclude_cancelled must be a boolean"
		}
		q.ExcludeCancelled = b
	}
	return q, "", ""
}

func parseTimeIn(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, v, loc)
}
