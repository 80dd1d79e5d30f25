package imports

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campaign-import/internal/catalog"
	"campaign-import/internal/shared/server/middleware"
	"campaign-import/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches import routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports", h.upload)
	rg.POST("/imports/rows", h.validateRows)
	rg.GET("/imports/:id", h.get)
	rg.POST("/imports/:id/deploy", h.deploy)
	rg.GET("/product-types", h.productTypes)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	allowed, err := h.Svc.Registry.ParseTypes(c.PostFormArray("types"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	batch, err := h.Svc.ValidateWorkbook(c.Request.Context(), fileHeader.Filename, file, allowed)
	if err != nil {
		writeValidateError(c, err)
		return
	}
	c.Set(middleware.BatchIDKey, batch.ID)
	respond.JSON(c, http.StatusCreated, batch)
}

func (h *Handler) validateRows(c *gin.Context) {
	var req ValidateRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	allowed, err := h.Svc.Registry.ParseTypes(req.Types)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	batch, err := h.Svc.ValidateSheets(c.Request.Context(), req.Sheets, allowed)
	if err != nil {
		writeValidateError(c, err)
		return
	}
	c.Set(middleware.BatchIDKey, batch.ID)
	respond.JSON(c, http.StatusCreated, batch)
}

func (h *Handler) get(c *gin.Context) {
	batch, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrBatchNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "batch not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load batch", nil)
		}
		return
	}
	respond.OK(c, batch)
}

func (h *Handler) deploy(c *gin.Context) {
	batch, res, err := h.Svc.Deploy(c.Request.Context(), c.Param("id"))
	c.Set(middleware.DeployedKey, res.SuccessCount)
	c.Set(middleware.FailedCountKey, res.FailedCount)
	if err != nil {
		switch {
		case errors.Is(err, ErrBatchNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "batch not found", nil)
		case errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusGatewayTimeout, "deploy_timeout", err.Error(), DeployResponse{BatchID: batch.ID, Result: res})
		case IsBatchFailure(err):
			respond.Error(c, http.StatusBadGateway, "deploy_failed", err.Error(), DeployResponse{BatchID: batch.ID, Result: res})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to deploy batch", nil)
		}
		return
	}
	respond.OK(c, DeployResponse{BatchID: batch.ID, Result: res})
}

func (h *Handler) productTypes(c *gin.Context) {
	specs := h.Svc.Registry.Specs()
	resp := make([]ProductTypeResponse, 0, len(specs))
	for _, s := range specs {
		resp = append(resp, toProductTypeResponse(s))
	}
	respond.OK(c, resp)
}

func writeValidateError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidWorkbook), errors.Is(err, catalog.ErrUnknownProductType):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "lookup_timeout", err.Error(), nil)
	case IsBatchFailure(err):
		respond.Error(c, http.StatusBadGateway, "lookup_failed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to validate import", nil)
	}
}
