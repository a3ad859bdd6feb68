package handlers

import (
	"net/http"
	"time"

	"downtime/store"

	"github.com/rs/zerolog"
)

type ReportHandler struct {
	reports *store.ReportStore
	log     zerolog.Logger
}

func NewReportHandler(reports *store.ReportStore, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		log:     log.With().Str("handler", "reports").Logger(),
	}
}

// Summary groups downtime statistics over a date window. The window
// defaults to the trailing 30 days; group_by defaults to category.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := parseDateParam(raw, false)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid datetime format"})
			return
		}
		start = t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := parseDateParam(raw, true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid datetime format"})
			return
		}
		end = t
	}

	groupBy := r.URL.Query().Get("group_by")
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.reports.GetSummary(start, end, groupBy)})
}

func (h *ReportHandler) TopIssues(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30, 1, 365)
	limit := queryInt(r, "limit", 10, 1, 100)
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.reports.GetTopIssues(days, limit)})
}

func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30, 1, 365)
	facilityID := queryUint(r, "facility_id")
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.reports.GetStatistics(facilityID, days)})
}
