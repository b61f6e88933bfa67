package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"factures/internal/export"
	"factures/internal/logger"
	"factures/internal/store"
	"factures/pkg/services"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	service services.InvoiceService
}

// Response is the JSON envelope of every non-file response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// GateRefusal is the payload of a 422 export response
type GateRefusal struct {
	Offenders []export.Offender `json:"offenders"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// reconcile handles POST /api/reconcile with the raw extraction fields
func (h *handlers) reconcile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "request body must be a JSON object"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.service.Reconcile(fields)})
}

func (h *handlers) importInvoice(c *gin.Context) {
	var req services.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid import request"})
		return
	}

	inv, err := h.service.Import(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	c.JSON(status, Response{Success: true, Data: inv})
}

func (h *handlers) listInvoices(c *gin.Context) {
	invoices, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

func (h *handlers) getInvoice(c *gin.Context) {
	inv, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

func (h *handlers) confirmInvoice(c *gin.Context) {
	var amounts services.ConfirmedAmounts
	if err := c.ShouldBindJSON(&amounts); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid amounts"})
		return
	}

	inv, err := h.service.Confirm(c.Request.Context(), c.Param("id"), amounts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// exportFile handles GET /api/export?format=csv|fec|xlsx&period=YYYY-MM&strict=true
func (h *handlers) exportFile(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	req, ok := h.exportRequest(c)
	if !ok {
		return
	}
	req.Format = format

	// Buffered so that a refused batch never sends a partial file.
	var buf bytes.Buffer
	summary, err := h.service.Export(c.Request.Context(), req, &buf)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.FileName(req.Period)+`"`)
	c.Header("X-Records", strconv.Itoa(summary.Records))
	c.Header("X-To-Verify", strconv.Itoa(summary.ToVerify))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// exportRecords returns the resolved export records as JSON
func (h *handlers) exportRecords(c *gin.Context) {
	req, ok := h.exportRequest(c)
	if !ok {
		return
	}

	records, err := h.service.Records(c.Request.Context(), req.Period, req.Strict)
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []export.Record{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

func (h *handlers) exportRequest(c *gin.Context) (services.ExportRequest, bool) {
	period := c.Query("period")
	if err := export.ValidatePeriod(period); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return services.ExportRequest{}, false
	}

	strict := false
	if raw := c.Query("strict"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "strict must be a boolean"})
			return services.ExportRequest{}, false
		}
		strict = parsed
	}

	return services.ExportRequest{Period: period, Strict: strict}, true
}

// fail maps service errors to HTTP statuses
func (h *handlers) fail(c *gin.Context, err error) {
	var gateErr *export.GateError
	switch {
	case errors.As(err, &gateErr):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Error: gateErr.Err.Error(),
			Data:  GateRefusal{Offenders: gateErr.Offenders},
		})
	case errors.Is(err, store.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, Response{Error: "invoice not found"})
	case errors.Is(err, export.ErrUnknownFormat), errors.Is(err, export.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, Response{Error: "internal error"})
	}
}
