package httpapi

import (
	"net/http"
	"strings"

	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	result, err := a.Auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterTenantInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.Auth.RegisterTenant(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "Registration received. An administrator will review your account.",
	})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.Auth.Me(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	var role models.Role
	if s := r.URL.Query().Get("role"); s != "" {
		parsed, err := models.ParseRole(s)
		if err != nil {
			a.writeError(w, r, service.Invalid("role", err.Error()))
			return
		}
		role = parsed
	}
	users, err := a.Auth.ListUsers(r.Context(), principal(r), role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	created, err := a.Auth.CreateUser(r.Context(), principal(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listPending(w http.ResponseWriter, r *http.Request) {
	users, err := a.Auth.ListPending(r.Context(), principal(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) approveUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.Auth.Approve(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (a *API) rejectUser(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.Auth.Reject(r.Context(), principal(r), r.PathValue("id"), req.Reason)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
