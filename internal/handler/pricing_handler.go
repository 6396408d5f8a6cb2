package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pricing_api/internal/export"
	"github.com/GTDGit/pricing_api/internal/pricing"
	"github.com/GTDGit/pricing_api/internal/service"
	"github.com/GTDGit/pricing_api/internal/utils"
)

// PricingHandler handles the SKU pricing endpoints.
type PricingHandler struct {
	pricingService *service.PricingService
	now            func() time.Time
}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService, now: time.Now}
}

// Health handles GET /api/pricing/sku/health
func (h *PricingHandler) Health(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Pricing SKU API is up", gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// GetAnalysis handles GET /api/pricing/sku
func (h *PricingHandler) GetAnalysis(c *gin.Context) {
	report, err := h.pricingService.Analyze(c.Request.Context(), filterRequest(c))
	if err != nil {
		h.writeError(c, err, report)
		return
	}
	utils.Success(c, http.StatusOK, "Pricing analysis completed", report)
}

// GetDetail handles GET /api/pricing/sku/detalle/:sku
func (h *PricingHandler) GetDetail(c *gin.Context) {
	sku := strings.TrimSpace(c.Param("sku"))
	if sku == "" {
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidFilter, "sku is required")
		return
	}

	detail, err := h.pricingService.Detail(c.Request.Context(), sku, filterRequest(c))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Product detail retrieved", detail)
}

// GetStats handles GET /api/pricing/sku/stats
func (h *PricingHandler) GetStats(c *gin.Context) {
	report, err := h.pricingService.Analyze(c.Request.Context(), filterRequest(c))
	if err != nil {
		h.writeError(c, err, report)
		return
	}
	utils.Success(c, http.StatusOK, "Pricing stats computed", service.Summarize(report))
}

// Export handles GET /api/pricing/sku/export?formato=csv|excel
func (h *PricingHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(firstQuery(c, "formato", "format"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, utils.CodeUnsupportedFormat, "Supported formats: csv, excel")
		return
	}

	report, err := h.pricingService.Analyze(c.Request.Context(), filterRequest(c))
	if err != nil {
		h.writeError(c, err, report)
		return
	}
	if len(report.Results) == 0 {
		utils.Error(c, http.StatusNotFound, utils.CodeNoData, "No data to export")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report.Results); err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("export failed")
		utils.Error(c, http.StatusInternalServerError, utils.CodeInternalError, "Failed to build export file")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName(h.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// GetFilterOptions handles GET /api/pricing/sku/filtros
func (h *PricingHandler) GetFilterOptions(c *gin.Context) {
	opts, err := h.pricingService.FilterOptions(c.Request.Context())
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Filter options retrieved", opts)
}

// writeError maps pipeline errors to the response envelope. report may carry
// the metadata of the stages that ran before a failure.
func (h *PricingHandler) writeError(c *gin.Context, err error, report *pricing.Report) {
	var meta *pricing.RunMetadata
	if report != nil {
		meta = report.Metadata
	}

	var stageErr *pricing.StageError
	switch {
	case pricing.IsValidation(err):
		utils.Error(c, http.StatusBadRequest, utils.CodeInvalidFilter, err.Error())
	case errors.Is(err, pricing.ErrProductNotFound):
		utils.Error(c, http.StatusNotFound, utils.CodeProductNotFound, "Product not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("pricing request timed out")
		utils.ErrorWithData(c, http.StatusGatewayTimeout, utils.CodeRequestTimeout, "Request timed out", meta)
	case errors.As(err, &stageErr):
		log.Error().Err(err).Str("stage", stageErr.Stage).Msg("pricing pipeline failed")
		utils.ErrorWithData(c, http.StatusInternalServerError, utils.CodePipelineFailed,
			fmt.Sprintf("Pricing stage %s failed", stageErr.Stage), meta)
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("pricing request failed")
		utils.Error(c, http.StatusInternalServerError, utils.CodeInternalError, "Internal server error")
	}
}

// filterRequest reads the filter query parameters. Spanish names are the
// primary ones; English aliases are accepted too.
func filterRequest(c *gin.Context) pricing.FilterRequest {
	return pricing.FilterRequest{
		Category:   firstQuery(c, "categoria", "category"),
		CategoryL2: firstQuery(c, "categoriaN2", "categoryL2"),
		CategoryL3: firstQuery(c, "categoriaN3", "categoryL3"),
		Brand:      firstQuery(c, "marca", "brand"),
		Store:      firstQuery(c, "tienda", "store"),
		Search:     firstQuery(c, "buscar", "search"),
		SKU:        firstQuery(c, "sku"),
		Period:     firstQuery(c, "periodo", "period"),
		StartDate:  firstQuery(c, "fechaInicio", "startDate"),
		EndDate:    firstQuery(c, "fechaFin", "endDate"),
	}
}

// firstQuery returns the first non-blank query value among keys.
func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}
