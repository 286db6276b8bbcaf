package http

import (
	"fmt"
	"net/http"

	"github.com/ativix/ativix/internal/app/report"
	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler implementa as rotas de relatórios
type ReportHandler struct {
	base
	reports *report.Service
}

// NewReportHandler cria um novo handler de relatórios
func NewReportHandler(reportService *report.Service, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		base:    newBase(logger),
		reports: reportService,
	}
}

// SetMetrics configura o objeto de métricas
func (h *ReportHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

// Get devolve o relatório agrupado em JSON
func (h *ReportHandler) Get(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	r, err := h.reports.Generate(c.Request.Context(), requester, c.Param("tipo"))
	if err != nil {
		h.respondError(c, err, report.MsgGenerateFailed)
		return
	}

	if h.metrics != nil {
		h.metrics.ReportGenerated(string(r.Kind), "json")
	}
	c.JSON(http.StatusOK, r)
}

// Export devolve o relatório como arquivo (?format=csv|pdf)
func (h *ReportHandler) Export(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	exp, err := h.reports.Export(c.Request.Context(), requester, c.Param("tipo"), c.Query("format"))
	if err != nil {
		h.respondError(c, err, report.MsgExportFailed)
		return
	}

	if h.metrics != nil {
		h.metrics.ReportGenerated(string(exp.Kind), string(exp.Format))
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exp.Filename))
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}
