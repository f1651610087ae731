package httpapi

import (
	"net/http"
	"strconv"

	"github.com/seams-estates/seams/internal/service"
)

func (a *API) listMaintenance(w http.ResponseWriter, r *http.Request) {
	reqs, err := a.Maintenance.List(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (a *API) reportMaintenance(w http.ResponseWriter, r *http.Request) {
	var in service.ReportIssueInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	req, err := a.Maintenance.Report(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (a *API) maintenanceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Maintenance.Stats(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) getMaintenance(w http.ResponseWriter, r *http.Request) {
	req, err := a.Maintenance.Get(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type assignRequest struct {
	TechnicianID string `json:"technician_id"`
}

func (a *API) assignMaintenance(w http.ResponseWriter, r *http.Request) {
	var in assignRequest
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	req, err := a.Maintenance.Assign(r.Context(), principal(r), r.PathValue("id"), in.TechnicianID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) updateMaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	var in service.StatusUpdateInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	req, err := a.Maintenance.UpdateStatus(r.Context(), principal(r), r.PathValue("id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	notes, err := a.Notifications.List(r.Context(), principal(r), unread)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (a *API) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := a.Notifications.MarkRead(r.Context(), principal(r), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
