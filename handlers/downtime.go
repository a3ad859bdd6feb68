package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"downtime/middleware"
	"downtime/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// downtimesTable is the table name reported to the audit logger.
const downtimesTable = "downtimes"

type DowntimeHandler struct {
	downtimes *store.DowntimeStore
	audit     *store.AuditStore
	log       zerolog.Logger
}

func NewDowntimeHandler(downtimes *store.DowntimeStore, audit *store.AuditStore, log zerolog.Logger) *DowntimeHandler {
	return &DowntimeHandler{
		downtimes: downtimes,
		audit:     audit,
		log:       log.With().Str("handler", "downtime").Logger(),
	}
}

type createRequest struct {
	LineID      uint   `json:"line_id"`
	CategoryID  uint   `json:"category_id"`
	ShiftID     *uint  `json:"shift_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	CrewSize    int    `json:"crew_size"`
	ReasonNotes string `json:"reason_notes"`
}

func (h *DowntimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	id, msg, ok := h.downtimes.Create(store.CreateParams{
		LineID:      req.LineID,
		CategoryID:  req.CategoryID,
		ShiftID:     req.ShiftID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CrewSize:    req.CrewSize,
		ReasonNotes: req.ReasonNotes,
		EnteredBy:   user.Username,
	})
	if !ok {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: msg})
		return
	}

	h.audit.Record(downtimesTable, id, store.ActionInsert, user.Username, nil, "")
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: msg, Data: map[string]uint{"id": id}})
}

func (h *DowntimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid entry ID"})
		return
	}

	entry := h.downtimes.GetByID(id)
	if entry == nil {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "Downtime entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: entry})
}

// List serves the read paths over the query string: an explicit start/end
// range when both are present, a facility scope, or the recent window.
func (h *DowntimeHandler) List(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7, 1, 365)
	limit := queryInt(r, "limit", 100, 1, 1000)
	lineID := queryUint(r, "line_id")
	facilityID := queryUint(r, "facility_id")

	startRaw := r.URL.Query().Get("start")
	endRaw := r.URL.Query().Get("end")
	if startRaw != "" && endRaw != "" {
		start, err := parseDateParam(startRaw, false)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid datetime format"})
			return
		}
		end, err := parseDateParam(endRaw, true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid datetime format"})
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Data: h.downtimes.GetByDateRange(start, end, facilityID, lineID)})
		return
	}

	if facilityID != nil {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: h.downtimes.GetByFacility(*facilityID, days, limit)})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.downtimes.GetRecent(days, lineID, limit)})
}

func (h *DowntimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid entry ID"})
		return
	}

	var patch store.UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	diff, msg, ok := h.downtimes.Update(id, patch, user.Username)
	if !ok {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: msg})
		return
	}

	if len(diff) > 0 {
		h.audit.Record(downtimesTable, id, store.ActionUpdate, user.Username, diff, "")
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msg, Data: diff})
}

func (h *DowntimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.toggleDeleted(w, r, true)
}

func (h *DowntimeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.toggleDeleted(w, r, false)
}

func (h *DowntimeHandler) toggleDeleted(w http.ResponseWriter, r *http.Request, deleted bool) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid entry ID"})
		return
	}

	var msg string
	var ok bool
	action := store.ActionRestore
	if deleted {
		action = store.ActionDelete
		msg, ok = h.downtimes.Delete(id, user.Username)
	} else {
		msg, ok = h.downtimes.Restore(id, user.Username)
	}
	if !ok {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: msg})
		return
	}

	h.audit.Record(downtimesTable, id, action, user.Username, nil, "")
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msg})
}

func (h *DowntimeHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid entry ID"})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.audit.GetByRecord(downtimesTable, id)})
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

// parseDateParam accepts a full timestamp or a bare date. A bare end date
// is pushed to the end of its day so the range is inclusive.
func parseDateParam(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: s}
}
