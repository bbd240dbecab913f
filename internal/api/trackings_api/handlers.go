package trackings_api

import (
	"net/http"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/go-chi/chi/v5"
)

func (a *TrackingsAPI) getTracking(w http.ResponseWriter, r *http.Request) {
	t, ok, err := a.svc.GetByTrackingNumber(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeInternal(w, r, err, "Failed to fetch tracking information")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Tracking number not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *TrackingsAPI) listTrackings(w http.ResponseWriter, r *http.Request) {
	ts, err := a.svc.ListTrackings(r.Context())
	if err != nil {
		writeInternal(w, r, err, "Failed to fetch tracking numbers")
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (a *TrackingsAPI) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Stats(r.Context())
	if err != nil {
		writeInternal(w, r, err, "Failed to fetch statistics")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *TrackingsAPI) createTracking(w http.ResponseWriter, r *http.Request) {
	var in models.TrackingCreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := a.svc.CreateTracking(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create tracking number")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *TrackingsAPI) updateTracking(w http.ResponseWriter, r *http.Request) {
	var patch models.TrackingPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	t, ok, err := a.svc.UpdateTracking(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update tracking number")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Tracking number not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *TrackingsAPI) deleteTracking(w http.ResponseWriter, r *http.Request) {
	ok, err := a.svc.DeleteTracking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err, "Failed to delete tracking number")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Tracking number not found")
		return
	}
	writeMessage(w, http.StatusOK, "Tracking number deleted successfully")
}

func (a *TrackingsAPI) listTrackingEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := a.svc.ListTrackingEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err, "Failed to fetch tracking events")
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (a *TrackingsAPI) addTrackingEvent(w http.ResponseWriter, r *http.Request) {
	var in models.TrackingEventInput
	if !decodeBody(w, r, &in) {
		return
	}
	// владелец всегда берётся из пути
	in.TrackingNumberID = chi.URLParam(r, "id")

	ev, err := a.svc.AddTrackingEvent(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to add tracking event")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (a *TrackingsAPI) updateTrackingEvent(w http.ResponseWriter, r *http.Request) {
	var patch models.TrackingEventPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ev, ok, err := a.svc.UpdateTrackingEvent(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update tracking event")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Tracking event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *TrackingsAPI) deleteTrackingEvent(w http.ResponseWriter, r *http.Request) {
	ok, err := a.svc.DeleteTrackingEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeInternal(w, r, err, "Failed to delete tracking event")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "Tracking event not found")
		return
	}
	writeMessage(w, http.StatusOK, "Tracking event deleted successfully")
}
