package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/degree-pathway-api/internal/dto"
	"github.com/noah-isme/degree-pathway-api/internal/middleware"
	"github.com/noah-isme/degree-pathway-api/internal/service"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
	"github.com/noah-isme/degree-pathway-api/pkg/response"
)

type summaryService interface {
	Summary(ctx context.Context, req service.GraduationRequest) (*dto.AuditSummaryResponse, bool, error)
}

type auditExporter interface {
	Export(ctx context.Context, format service.AuditFormat, req service.GraduationRequest, persist bool) (*service.AuditExport, error)
}

// AuditHandler exposes the degree audit endpoints.
type AuditHandler struct {
	summary summaryService
	export  auditExporter
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(summary summaryService, export auditExporter) *AuditHandler {
	return &AuditHandler{summary: summary, export: export}
}

// Summary godoc
// @Summary Credit totals and graduation estimate
// @Tags Audit
// @Produce json
// @Param credits_per_semester query number false "Credits taken per semester (default 12)"
// @Param months_per_semester query int false "Months per semester (default 4)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /audit/summary [get]
func (h *AuditHandler) Summary(c *gin.Context) {
	var req service.GraduationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid graduation parameters"))
		return
	}
	summary, cacheHit, err := h.summary.Summary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download the degree audit
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format" Enums(csv, pdf)
// @Param store query bool false "Also keep a copy on the server"
// @Param credits_per_semester query number false "Credits taken per semester"
// @Param months_per_semester query int false "Months per semester"
// @Success 200 {file} file
// @Router /audit/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	format, err := service.ParseAuditFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GraduationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid graduation parameters"))
		return
	}
	persist := false
	if raw := c.Query("store"); raw != "" {
		if persist, err = strconv.ParseBool(raw); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "store must be a boolean"))
			return
		}
	}

	result, err := h.export.Export(c.Request.Context(), format, req, persist)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.StoredPath != "" {
		c.Header("X-Audit-Stored-Path", result.StoredPath)
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
