package handlers

import (
	"net/http"

	"downtime/store"

	"github.com/rs/zerolog"
)

type ReferenceHandler struct {
	refs *store.ReferenceStore
	log  zerolog.Logger
}

func NewReferenceHandler(refs *store.ReferenceStore, log zerolog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		refs: refs,
		log:  log.With().Str("handler", "reference").Logger(),
	}
}

// activeOnly defaults to true; pass include_inactive=true to see
// deactivated reference rows.
func activeOnly(r *http.Request) bool {
	return r.URL.Query().Get("include_inactive") != "true"
}

func (h *ReferenceHandler) Facilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.refs.GetFacilities(activeOnly(r))})
}

func (h *ReferenceHandler) Lines(w http.ResponseWriter, r *http.Request) {
	facilityID := queryUint(r, "facility_id")
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.refs.GetLines(facilityID, activeOnly(r))})
}

func (h *ReferenceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.refs.GetCategories(activeOnly(r))})
}

func (h *ReferenceHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.refs.GetShifts(activeOnly(r))})
}
