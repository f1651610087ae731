package httpapi

import (
	"net/http"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/service"
)

func (a *API) listHouses(w http.ResponseWriter, r *http.Request) {
	status := models.HouseStatus(r.URL.Query().Get("status"))
	houses, err := a.Estate.ListHouses(r.Context(), principal(r), status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

func (a *API) vacantHouses(w http.ResponseWriter, r *http.Request) {
	houses, err := a.Estate.ListHouses(r.Context(), principal(r), models.HouseVacant)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

func (a *API) createHouse(w http.ResponseWriter, r *http.Request) {
	var in service.HouseInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	house, err := a.Estate.CreateHouse(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, house)
}

func (a *API) houseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Estate.HouseStats(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) getHouse(w http.ResponseWriter, r *http.Request) {
	house, err := a.Estate.GetHouse(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (a *API) updateHouse(w http.ResponseWriter, r *http.Request) {
	var in service.HouseInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	house, err := a.Estate.UpdateHouse(r.Context(), principal(r), r.PathValue("id"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (a *API) deleteHouse(w http.ResponseWriter, r *http.Request) {
	if err := a.Estate.DeleteHouse(r.Context(), principal(r), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.Estate.ListTenants(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (a *API) createTenant(w http.ResponseWriter, r *http.Request) {
	var in service.TenantInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	tenant, err := a.Estate.CreateTenant(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (a *API) expiringTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := a.Estate.ExpiringTenants(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (a *API) getTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.Estate.GetTenant(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *API) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := a.Estate.DeleteTenant(r.Context(), principal(r), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) syncStatuses(w http.ResponseWriter, r *http.Request) {
	report, err := a.Estate.Sync(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
