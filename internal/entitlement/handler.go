package entitlement

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/transport"
	"github.com/go-chi/chi"
)

// OverrideTokenHeader carries the optional bypass credential on access checks.
const OverrideTokenHeader = "X-Override-Token"

type Handler struct {
	*transport.BaseHandler
	Resolver *Resolver
	Grants   *Grants
}

func NewHandler(resolver *Resolver, grants *Grants) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Resolver:    resolver,
		Grants:      grants,
	}
}

// CheckAccess handles GET /courses/{id}/access.
func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	courseID, err := core.ParseCourseID(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	result, err := h.Resolver.CheckAccess(r.Context(), principal, courseID, r.Header.Get(OverrideTokenHeader))
	if err != nil {
		h.Logger.Error("CheckAccess: resolver error", "error", err, "user_id", principal.ID, "course_id", courseID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

type grantDirectDTO struct {
	UserID     int64  `json:"user_id"`
	CourseID   string `json:"course_id"`
	IssueToken bool   `json:"issue_token"`
}

// GrantDirect handles POST /admin/grants.
func (h *Handler) GrantDirect(w http.ResponseWriter, r *http.Request) {
	operator, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto grantDirectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if dto.UserID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	courseID, err := core.ParseCourseID(dto.CourseID)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	result, err := h.Grants.GrantDirect(r.Context(), operator, dto.UserID, courseID, dto.IssueToken)
	if err != nil {
		h.Logger.Error("GrantDirect: service error",
			"error", err,
			"operator_id", operator.ID,
			"user_id", dto.UserID,
			"course_id", courseID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
