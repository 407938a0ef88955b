package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
)

// AdminHandler serves the staff-facing account endpoints.
type AdminHandler struct {
	Repo *Repo
}

// List returns all accounts for the back office.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user repo not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count users", nil)
		return
	}
	users, err := h.Repo.List(r.Context(), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list users", nil)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": users,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// UpdateRoles replaces the role set of an account. Used to grant or revoke
// staff access.
func (h *AdminHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user repo not configured", nil)
		return
	}
	var payload struct {
		Roles []string `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	for _, role := range payload.Roles {
		if role != RoleAdmin {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown role", map[string]any{"role": role})
			return
		}
	}
	updated, err := h.Repo.UpdateRoles(r.Context(), chi.URLParam(r, "id"), payload.Roles)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update roles", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}
