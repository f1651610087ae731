package httpapi

import (
	"net/http"

	"github.com/seams-estates/seams/internal/service"
)

func (a *API) listBills(w http.ResponseWriter, r *http.Request) {
	bills, err := a.Ledger.ListBills(r.Context(), principal(r), r.URL.Query().Get("tenant"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bills))
}

func (a *API) postBill(w http.ResponseWriter, r *http.Request) {
	var in service.PostBillInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	bill, err := a.Ledger.PostBill(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.Ledger.ListPayments(r.Context(), principal(r), r.URL.Query().Get("tenant"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(payments))
}

func (a *API) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in service.RecordPaymentInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	payment, err := a.Ledger.RecordPayment(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (a *API) verifyPayment(w http.ResponseWriter, r *http.Request) {
	result, err := a.Ledger.VerifyPayment(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) tenantBalance(w http.ResponseWriter, r *http.Request) {
	st, err := a.Ledger.Statement(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
