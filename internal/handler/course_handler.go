package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/degree-pathway-api/internal/dto"
	"github.com/noah-isme/degree-pathway-api/internal/models"
	"github.com/noah-isme/degree-pathway-api/internal/service"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
	"github.com/noah-isme/degree-pathway-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	Get(ctx context.Context, code string) (*models.Course, error)
	SetStatus(ctx context.Context, code string, req service.SetStatusRequest) (*models.Course, error)
	ApplyAction(ctx context.Context, code string, action models.CourseAction) (*models.Course, error)
	Recommend(ctx context.Context, req service.RecommendRequest) (*dto.RecommendationResponse, error)
}

// CourseHandler exposes course record endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Substring of code or title"
// @Param category query []string false "Category (repeatable or comma separated)"
// @Param day query []string false "Meeting day"
// @Param time query []string false "Time slot"
// @Param status query []string false "Course status"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:     c.Query("search"),
		Categories: queryList(c, "category"),
		Days:       queryList(c, "day"),
		Times:      queryList(c, "time"),
	}
	for _, raw := range queryList(c, "status") {
		status, err := models.ParseCourseStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status filter"))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	courses, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}

// Get godoc
// @Summary Get a course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// SetStatus godoc
// @Summary Set a course status
// @Description Moves the course to any status without checking its current one.
// @Tags Courses
// @Accept json
// @Produce json
// @Param code path string true "Course code"
// @Param payload body service.SetStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/status [patch]
func (h *CourseHandler) SetStatus(c *gin.Context) {
	var req service.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	course, err := h.service.SetStatus(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// ApplyAction godoc
// @Summary Enroll, plan, unenroll or remove a course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Param action path string true "Action" Enums(enroll, plan, unenroll, remove)
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{code}/{action} [post]
func (h *CourseHandler) ApplyAction(c *gin.Context) {
	action := models.CourseAction(strings.ToLower(c.Param("action")))
	course, err := h.service.ApplyAction(c.Request.Context(), c.Param("code"), action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Recommend godoc
// @Summary Recommend and enroll courses
// @Description Picks eligible recommended courses at random and moves them to In-progress.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body service.RecommendRequest false "Recommendation options"
// @Success 200 {object} response.Envelope
// @Router /recommendations [post]
func (h *CourseHandler) Recommend(c *gin.Context) {
	var req service.RecommendRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recommendation payload"))
			return
		}
	}
	result, err := h.service.Recommend(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// queryList accepts both repeated keys and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
