package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateCourse(dto CreateCourseDTO) (*Course, error)
	GetCourse(id core.CourseID) (*Course, error)
	ListCourses(publishedOnly bool, limit, offset int) ([]*Course, error)
	UpdateCourse(id core.CourseID, dto UpdateCourseDTO) (*Course, error)
	DeleteCourse(id core.CourseID) error
	AddVideo(courseID core.CourseID, dto CreateVideoDTO) (*Video, error)
	ListVideos(courseID core.CourseID) ([]*Video, error)
	DeleteVideo(id int64) error
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

// courseIDFromURL is the one place the catalog converts the URL string into
// the canonical course id.
func (h *Handler) courseIDFromURL(w http.ResponseWriter, r *http.Request) (core.CourseID, bool) {
	id, err := core.ParseCourseID(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid course ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
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

	courses, err := h.Service.ListCourses(true, limit, offset)
	if err != nil {
		h.Logger.Error("ListCourses: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.courseIDFromURL(w, r)
	if !ok {
		return
	}

	course, err := h.Service.GetCourse(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, course)
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	id, ok := h.courseIDFromURL(w, r)
	if !ok {
		return
	}

	videos, err := h.Service.ListVideos(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var dto CreateCourseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.Service.CreateCourse(dto)
	if err != nil {
		h.Logger.Error("CreateCourse: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, course)
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.courseIDFromURL(w, r)
	if !ok {
		return
	}

	var dto UpdateCourseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.Service.UpdateCourse(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, course)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.courseIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteCourse(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.courseIDFromURL(w, r)
	if !ok {
		return
	}

	var dto CreateVideoDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Service.AddVideo(id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, video)
}

func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := strconv.ParseInt(chi.URLParam(r, "videoID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid video ID")
		return
	}

	if err := h.Service.DeleteVideo(videoID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
