package httpapi

import (
	"net/http"

	"github.com/seams-estates/seams/internal/service"
)

func (a *API) listContracts(w http.ResponseWriter, r *http.Request) {
	query := service.ContractQuery{
		TenantID: r.URL.Query().Get("tenant"),
		HouseID:  r.URL.Query().Get("house"),
	}
	contracts, err := a.Estate.ListContracts(r.Context(), principal(r), query)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

func (a *API) createContract(w http.ResponseWriter, r *http.Request) {
	var in service.ContractInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	contract, err := a.Estate.CreateContract(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

func (a *API) getContract(w http.ResponseWriter, r *http.Request) {
	contract, err := a.Estate.GetContract(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

func (a *API) deleteContract(w http.ResponseWriter, r *http.Request) {
	if err := a.Estate.DeleteContract(r.Context(), principal(r), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
