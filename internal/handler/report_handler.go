package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// ReportHandler exposes reporting and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// StudentOverview godoc
// @Summary Student population overview
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/student-overview [get]
func (h *ReportHandler) StudentOverview(c *gin.Context) {
	report, err := h.reports.StudentOverview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SupervisorWorkload godoc
// @Summary Supervisor workload distribution
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/supervisor-workload [get]
func (h *ReportHandler) SupervisorWorkload(c *gin.Context) {
	report, err := h.reports.SupervisorWorkloads(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SubmissionAnalytics godoc
// @Summary Submission pipeline analytics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/submission-analytics [get]
func (h *ReportHandler) SubmissionAnalytics(c *gin.Context) {
	report, err := h.reports.SubmissionAnalytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// TimelineCompliance godoc
// @Summary Milestone compliance buckets
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/timeline-compliance [get]
func (h *ReportHandler) TimelineCompliance(c *gin.Context) {
	report, err := h.reports.TimelineCompliance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// AppraisalSummary godoc
// @Summary Appraisal status summary
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/appraisal-summary [get]
func (h *ReportHandler) AppraisalSummary(c *gin.Context) {
	report, err := h.reports.AppraisalSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export a report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param name path string true "Report name"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/{name}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := models.ReportFormat(c.DefaultQuery("format", string(models.ReportFormatCSV)))
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	export, err := h.reports.Export(c.Request.Context(), c.Param("name"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Content)
}
