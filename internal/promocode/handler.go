package promocode

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Activate(ctx context.Context, userID int64, dto ActivateDTO) (*ActivationResult, error)
	CreatePromoCode(ctx context.Context, operator *auth.Principal, dto CreatePromoCodeDTO) (*PromoCode, error)
	GetPromoCode(ctx context.Context, code string) (*PromoCode, []core.CourseID, error)
	ListPromoCodes(ctx context.Context, limit, offset int) ([]*PromoCode, error)
	UpdatePromoCode(ctx context.Context, operator *auth.Principal, code string, dto UpdatePromoCodeDTO) (*PromoCode, error)
	DeactivatePromoCode(ctx context.Context, operator *auth.Principal, code string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     service,
	}
}

// Activate handles POST /promocodes/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ActivateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Activate(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Warn("Activate: rejected", "error", err, "user_id", principal.ID, "code", dto.Code)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	operator, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreatePromoCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	promo, err := h.Service.CreatePromoCode(r.Context(), operator, dto)
	if err != nil {
		h.Logger.Error("CreatePromoCode: service error", "error", err, "operator_id", operator.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, promo)
}

func (h *Handler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	promo, courses, err := h.Service.GetPromoCode(r.Context(), code)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"promo_code": promo,
		"course_ids": courses,
	})
}

func (h *Handler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	codes, err := h.Service.ListPromoCodes(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"promo_codes": codes})
}

func (h *Handler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	operator, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdatePromoCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	promo, err := h.Service.UpdatePromoCode(r.Context(), operator, chi.URLParam(r, "code"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, promo)
}

func (h *Handler) DeactivatePromoCode(w http.ResponseWriter, r *http.Request) {
	operator, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.DeactivatePromoCode(r.Context(), operator, chi.URLParam(r, "code")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
