package httpapi

import "net/http"

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.Reports.Dashboard(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) trends(w http.ResponseWriter, r *http.Request) {
	tr, err := a.Reports.Trends(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (a *API) debtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := a.Reports.Debtors(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debtors)
}

func (a *API) pingDebtor(w http.ResponseWriter, r *http.Request) {
	msg, err := a.Reports.PingDebtor(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (a *API) occupancy(w http.ResponseWriter, r *http.Request) {
	occ, err := a.Reports.Occupancy(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}
