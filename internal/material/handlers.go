package material

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/wallaby-factory/ec-site-sub001/internal/common"
)

// Store is the persistence surface the handlers need. *Repo satisfies it.
type Store interface {
	Insert(ctx context.Context, m Material) (Material, error)
	Update(ctx context.Context, id string, m Material) (Material, error)
	Get(ctx context.Context, id string) (Material, error)
	List(ctx context.Context, activeOnly bool) ([]Material, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Input is the admin payload for creating or updating a material.
type Input struct {
	Kind      string `json:"kind" validate:"required,oneof=fabric cord"`
	Name      string `json:"name" validate:"required,min=1,max=100"`
	ColorCode string `json:"colorCode" validate:"omitempty,hexcolor"`
	Stock     int    `json:"stock" validate:"gte=0"`
	Active    bool   `json:"active"`
}

// Handler serves the public material list and the admin CRUD.
type Handler struct {
	Store    Store
	Validate *validator.Validate
}

func (h *Handler) validate(in Input) error {
	v := h.Validate
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	if err := v.Struct(in); err != nil {
		details := map[string]any{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		return common.NewAppError("VALIDATION_ERROR", "invalid material payload", http.StatusBadRequest, err).
			WithDetails(details)
	}
	return nil
}

// List handles GET /materials. Customers only see active inventory; the
// admin console passes ?all=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material store not configured", nil)
		return
	}
	activeOnly := r.URL.Query().Get("all") != "true"
	materials, err := h.Store.List(r.Context(), activeOnly)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list materials", nil)
		return
	}
	if materials == nil {
		materials = []Material{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": materials})
}

// Create handles POST /admin/materials.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material store not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.validate(in); err != nil {
		common.RenderError(w, err)
		return
	}
	created, err := h.Store.Insert(r.Context(), Material{
		Kind:      in.Kind,
		Name:      strings.TrimSpace(in.Name),
		ColorCode: in.ColorCode,
		Stock:     in.Stock,
		Active:    in.Active,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create material", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /admin/materials/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material store not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if err := h.validate(in); err != nil {
		common.RenderError(w, err)
		return
	}
	updated, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), Material{
		Kind:      in.Kind,
		Name:      strings.TrimSpace(in.Name),
		ColorCode: in.ColorCode,
		Stock:     in.Stock,
		Active:    in.Active,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "material not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update material", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Get handles GET /admin/materials/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material store not configured", nil)
		return
	}
	m, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "material not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material lookup failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": m})
}

// Delete handles DELETE /admin/materials/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "material store not configured", nil)
		return
	}
	deleted, err := h.Store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete material", nil)
		return
	}
	if !deleted {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "material not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
