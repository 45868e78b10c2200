package favorite

import (
	"net/http"

	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Add(userID int64, courseID core.CourseID) error
	Remove(userID int64, courseID core.CourseID) error
	ListByUser(userID int64) ([]core.CourseID, error)
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

func (h *Handler) principalAndCourse(w http.ResponseWriter, r *http.Request) (*auth.Principal, core.CourseID, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, 0, false
	}

	courseID, err := core.ParseCourseID(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid course ID")
		return nil, 0, false
	}
	return principal, courseID, true
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	principal, courseID, ok := h.principalAndCourse(w, r)
	if !ok {
		return
	}

	if err := h.Service.Add(principal.ID, courseID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	principal, courseID, ok := h.principalAndCourse(w, r)
	if !ok {
		return
	}

	if err := h.Service.Remove(principal.ID, courseID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	favorites, err := h.Service.ListByUser(principal.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"course_ids": favorites})
}
